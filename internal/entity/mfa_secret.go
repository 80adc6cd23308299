package entity

import (
	"time"

	"github.com/google/uuid"
)

type MFASecret struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Secret    string `gorm:"type:text;not null"`
	EnabledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *MFASecret) Enabled() bool {
	return s != nil && s.EnabledAt != nil
}
