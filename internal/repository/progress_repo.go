package repository

import (
	"context"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserProgress, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserProgress, error) {
	var progress []entity.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&progress).Error
	return progress, err
}

func (r *progressRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.UserProgress{})
	return result.RowsAffected, result.Error
}
