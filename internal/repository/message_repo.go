package repository

import (
	"context"
	"time"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	FindSent(ctx context.Context, userID uuid.UUID) ([]entity.Message, error)
	FindReceived(ctx context.Context, userID uuid.UUID) ([]entity.Message, error)
	AnonymizeSent(ctx context.Context, userID uuid.UUID, placeholder string, at time.Time) (int64, error)
	DetachRecipient(ctx context.Context, userID uuid.UUID) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) FindSent(ctx context.Context, userID uuid.UUID) ([]entity.Message, error) {
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) FindReceived(ctx context.Context, userID uuid.UUID) ([]entity.Message, error) {
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// AnonymizeSent keeps sender_id so threads stay intact; only the content goes.
func (r *messageRepository) AnonymizeSent(ctx context.Context, userID uuid.UUID, placeholder string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("sender_id = ?", userID).
		Updates(map[string]any{
			"content":    placeholder,
			"is_deleted": true,
			"deleted_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *messageRepository) DetachRecipient(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ?", userID).
		Updates(map[string]any{
			"recipient_id":         nil,
			"is_recipient_deleted": true,
		})
	return result.RowsAffected, result.Error
}
