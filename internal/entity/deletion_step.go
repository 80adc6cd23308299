package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DeletionStepStatus string

const (
	DeletionStepDone    DeletionStepStatus = "done"
	DeletionStepFailed  DeletionStepStatus = "failed"
	DeletionStepSkipped DeletionStepStatus = "skipped"
)

// DeletionStep is the persisted outcome of one erasure step. RequestID groups
// the steps of a single deleteUserData run.
type DeletionStep struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_deletion_request_step"`
	SubjectID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Step      string             `gorm:"type:varchar(50);not null;uniqueIndex:idx_deletion_request_step"`
	Status    DeletionStepStatus `gorm:"type:varchar(10);not null"`
	Affected  int64
	Error     string `gorm:"type:text"`
	Options   datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}
