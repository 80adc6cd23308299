package gdpr

import (
	"time"

	"learnhub/internal/journal"
)

const (
	ActionDataExport                  = "DATA_EXPORT"
	ActionDataExportFailed            = "DATA_EXPORT_FAILED"
	ActionDataDeletion                = "DATA_DELETION"
	ActionDataDeletionFailed          = "DATA_DELETION_FAILED"
	ActionDataRectification           = "DATA_RECTIFICATION"
	ActionDataRectificationFailed     = "DATA_RECTIFICATION_FAILED"
	ActionProcessingRestricted        = "PROCESSING_RESTRICTED"
	ActionProcessingRestrictionFailed = "PROCESSING_RESTRICTION_FAILED"

	complianceTag = "GDPR"
	auditFileName = "gdpr-audit.log"
)

type AuditEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	UserID     string         `json:"userId"`
	Details    map[string]any `json:"details"`
	Compliance string         `json:"compliance"`
}

// AuditLog is append-only; entries are never rewritten.
type AuditLog interface {
	Record(entry AuditEntry) error
}

type FileAuditLog struct {
	w *journal.Writer
}

func NewFileAuditLog(dir string) (*FileAuditLog, error) {
	w, err := journal.New(dir)
	if err != nil {
		return nil, err
	}
	return &FileAuditLog{w: w}, nil
}

func (l *FileAuditLog) Record(entry AuditEntry) error {
	return l.w.Append(auditFileName, entry)
}
