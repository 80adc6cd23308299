package repository

import (
	"context"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeletionStepRepository interface {
	Save(ctx context.Context, step *entity.DeletionStep) error
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]entity.DeletionStep, error)
}

type deletionStepRepository struct {
	db *gorm.DB
}

func NewDeletionStepRepository(db *gorm.DB) DeletionStepRepository {
	return &deletionStepRepository{db: db}
}

// Save upserts on (request_id, step) so a resumed run overwrites the failed row.
func (r *deletionStepRepository) Save(ctx context.Context, step *entity.DeletionStep) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}, {Name: "step"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "affected", "error", "updated_at"}),
		}).
		Create(step).Error
}

func (r *deletionStepRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]entity.DeletionStep, error) {
	var steps []entity.DeletionStep
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&steps).Error
	return steps, err
}
