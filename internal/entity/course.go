package entity

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructorId"`
	Published    bool      `gorm:"default:false" json:"published"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CourseEnrollment struct {
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"courseId"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"userId"`
	Course     Course    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type UserProgress struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	CourseID         uuid.UUID `gorm:"type:uuid;not null;index" json:"courseId"`
	CompletedLessons int       `json:"completedLessons"`
	Percent          float64   `json:"percent"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
