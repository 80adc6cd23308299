package repository

import (
	"context"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	FindByClient(ctx context.Context, userID uuid.UUID) ([]entity.Project, error)
	FindApplicationsByFreelancer(ctx context.Context, userID uuid.UUID) ([]entity.ProjectApplication, error)
	TransferClient(ctx context.Context, from, to uuid.UUID) (int64, error)
	AnonymizeClient(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error)
	RemoveApplications(ctx context.Context, userID uuid.UUID) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) FindByClient(ctx context.Context, userID uuid.UUID) ([]entity.Project, error) {
	var projects []entity.Project
	err := r.db.WithContext(ctx).
		Where("client_id = ?", userID).
		Order("created_at ASC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) FindApplicationsByFreelancer(ctx context.Context, userID uuid.UUID) ([]entity.ProjectApplication, error) {
	var applications []entity.ProjectApplication
	err := r.db.WithContext(ctx).
		Where("freelancer_id = ?", userID).
		Order("created_at ASC").
		Find(&applications).Error
	return applications, err
}

func (r *projectRepository) TransferClient(ctx context.Context, from, to uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("client_id = ?", from).
		Update("client_id", to)
	return result.RowsAffected, result.Error
}

func (r *projectRepository) AnonymizeClient(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Project{}).
		Where("client_id = ?", userID).
		Updates(map[string]any{
			"client_id":         nil,
			"client_name":       placeholder,
			"is_client_deleted": true,
		})
	return result.RowsAffected, result.Error
}

func (r *projectRepository) RemoveApplications(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("freelancer_id = ?", userID).
		Delete(&entity.ProjectApplication{})
	return result.RowsAffected, result.Error
}
