package entity

import (
	"time"

	"github.com/google/uuid"
)

type Mentorship struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MentorID        *uuid.UUID `gorm:"type:uuid;index" json:"mentorId"`
	MenteeID        *uuid.UUID `gorm:"type:uuid;index" json:"menteeId"`
	MentorName      string     `gorm:"type:varchar(100)" json:"mentorName,omitempty"`
	MenteeName      string     `gorm:"type:varchar(100)" json:"menteeName,omitempty"`
	IsMentorDeleted bool       `gorm:"default:false" json:"isMentorDeleted"`
	IsMenteeDeleted bool       `gorm:"default:false" json:"isMenteeDeleted"`
	Topic           string     `gorm:"type:varchar(200)" json:"topic,omitempty"`
	Status          string     `gorm:"type:varchar(20);default:'active'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
