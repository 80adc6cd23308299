package repository

import (
	"context"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MentorshipRepository interface {
	FindByMentor(ctx context.Context, userID uuid.UUID) ([]entity.Mentorship, error)
	FindByMentee(ctx context.Context, userID uuid.UUID) ([]entity.Mentorship, error)
	AnonymizeMentor(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error)
	AnonymizeMentee(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error)
}

type mentorshipRepository struct {
	db *gorm.DB
}

func NewMentorshipRepository(db *gorm.DB) MentorshipRepository {
	return &mentorshipRepository{db: db}
}

func (r *mentorshipRepository) FindByMentor(ctx context.Context, userID uuid.UUID) ([]entity.Mentorship, error) {
	var mentorships []entity.Mentorship
	err := r.db.WithContext(ctx).Where("mentor_id = ?", userID).Find(&mentorships).Error
	return mentorships, err
}

func (r *mentorshipRepository) FindByMentee(ctx context.Context, userID uuid.UUID) ([]entity.Mentorship, error) {
	var mentorships []entity.Mentorship
	err := r.db.WithContext(ctx).Where("mentee_id = ?", userID).Find(&mentorships).Error
	return mentorships, err
}

func (r *mentorshipRepository) AnonymizeMentor(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Mentorship{}).
		Where("mentor_id = ?", userID).
		Updates(map[string]any{
			"mentor_id":         nil,
			"mentor_name":       placeholder,
			"is_mentor_deleted": true,
		})
	return result.RowsAffected, result.Error
}

func (r *mentorshipRepository) AnonymizeMentee(ctx context.Context, userID uuid.UUID, placeholder string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Mentorship{}).
		Where("mentee_id = ?", userID).
		Updates(map[string]any{
			"mentee_id":         nil,
			"mentee_name":       placeholder,
			"is_mentee_deleted": true,
		})
	return result.RowsAffected, result.Error
}
