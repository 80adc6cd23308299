package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaily(t *testing.T) {
	ts := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, "security-2026-03-10.log", Daily("security", ts))
}

func TestWriter_AppendWritesOneLinePerRecord(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Append("events.log", map[string]int{"n": 1}))
	require.NoError(t, w.Append("events.log", map[string]int{"n": 2}))

	file, err := os.Open(filepath.Join(w.Dir(), "events.log"))
	require.NoError(t, err)
	defer file.Close()

	var got []int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec map[string]int
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec["n"])
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestWriter_PutReplacesDocument(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Put("incidents/a.json", map[string]string{"status": "open"}))
	require.NoError(t, w.Put("incidents/a.json", map[string]string{"status": "resolved"}))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "incidents", "a.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "resolved")
	assert.NotContains(t, string(data), "open")

	_, err = os.Stat(filepath.Join(w.Dir(), "incidents", "a.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
