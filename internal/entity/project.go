package entity

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string     `gorm:"type:varchar(200);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Budget          float64    `json:"budget"`
	ClientID        *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`
	ClientName      string     `gorm:"type:varchar(100)" json:"clientName,omitempty"`
	IsClientDeleted bool       `gorm:"default:false" json:"isClientDeleted"`

	Applications []ProjectApplication `json:"applications,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProjectApplication struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancerId"`
	CoverLetter  string    `gorm:"type:text" json:"coverLetter,omitempty"`
	Status       string    `gorm:"type:varchar(20);default:'pending'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
}
