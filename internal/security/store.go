package security

import (
	"path"

	"learnhub/internal/journal"
)

// Journal is the durable side of the monitor: an append-only event log, one
// document per incident and an append-only alert log.
type Journal interface {
	AppendEvent(e Event) error
	SaveIncident(i Incident) error
	AppendAlert(a Alert) error
}

type FileJournal struct {
	w *journal.Writer
}

func NewFileJournal(dir string) (*FileJournal, error) {
	w, err := journal.New(dir)
	if err != nil {
		return nil, err
	}
	return &FileJournal{w: w}, nil
}

func (j *FileJournal) AppendEvent(e Event) error {
	return j.w.Append(journal.Daily("security", e.Timestamp), e)
}

func (j *FileJournal) SaveIncident(i Incident) error {
	return j.w.Put(path.Join("incidents", i.ID+".json"), i)
}

func (j *FileJournal) AppendAlert(a Alert) error {
	return j.w.Append(journal.Daily("alerts", a.Timestamp), a)
}
