package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRole string

const (
	UserRoleFreelancer UserRole = "freelancer"
	UserRoleClient     UserRole = "client"
	UserRoleMentor     UserRole = "mentor"
	UserRoleAdmin      UserRole = "admin"
	UserRoleDeleted    UserRole = "deleted"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash *string   `gorm:"type:text" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);default:'freelancer';not null" json:"role"`

	Skills       datatypes.JSON `json:"skills,omitempty"`
	Bio          string         `gorm:"type:text" json:"bio,omitempty"`
	ProfileImage string         `gorm:"type:text" json:"profileImage,omitempty"`
	SocialLinks  datatypes.JSON `json:"socialLinks,omitempty"`
	Preferences  datatypes.JSON `json:"preferences,omitempty"`

	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	IsActive        bool       `gorm:"default:true" json:"isActive"`
	IsDeleted       bool       `gorm:"default:false" json:"isDeleted"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`

	DataProcessingRestrictions datatypes.JSON `json:"dataProcessingRestrictions,omitempty"`
	RestrictionDate            *time.Time     `json:"restrictionDate,omitempty"`
	RestrictedBy               *uuid.UUID     `gorm:"type:uuid" json:"restrictedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Sessions  []Session  `json:"-"`
	MFASecret *MFASecret `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin && u.IsActive
}
