package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID     uuid.UUID  `gorm:"type:uuid;index" json:"conversationId"`
	SenderID           *uuid.UUID `gorm:"type:uuid;index" json:"senderId"`
	RecipientID        *uuid.UUID `gorm:"type:uuid;index" json:"recipientId"`
	Content            string     `gorm:"type:text;not null" json:"content"`
	IsDeleted          bool       `gorm:"default:false" json:"isDeleted"`
	DeletedAt          *time.Time `json:"deletedAt,omitempty"`
	IsRecipientDeleted bool       `gorm:"default:false" json:"isRecipientDeleted"`

	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Type   string    `gorm:"type:varchar(50)" json:"type"`
	Title  string    `gorm:"type:varchar(200)" json:"title"`
	Body   string    `gorm:"type:text" json:"body,omitempty"`
	Read   bool      `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"createdAt"`
}
