package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session backs a refresh token. UserAgent is pinned at login so a refresh
// from a different client can be reported as a hijack attempt.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	TokenHash  string  `gorm:"type:text;not null;index"`
	DeviceID   string  `gorm:"type:varchar(255);not null"`
	DeviceName string  `gorm:"type:varchar(255)"`
	IPAddress  *string `gorm:"type:varchar(45)"`
	UserAgent  *string `gorm:"type:text"`

	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time

	CreatedAt time.Time
}
