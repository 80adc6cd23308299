// Package journal writes append-only JSON records under a directory: one
// NDJSON line per record for logs, one indented document per file for
// snapshots such as incidents.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

type Writer struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("journal directory is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create journal dir %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// Append marshals record as a single line and appends it to name.
func (w *Writer) Append(name string, record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(filepath.Join(w.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := file.Write(line); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Put replaces name with the indented JSON encoding of record. The write goes
// through a temp file so readers never observe a partial document.
func (w *Writer) Put(name string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	target := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Daily returns "<prefix>-YYYY-MM-DD.log" for the UTC day of t.
func Daily(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.log", prefix, t.UTC().Format("2006-01-02"))
}
