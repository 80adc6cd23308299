package repository

import (
	"context"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRepository interface {
	FindByInstructor(ctx context.Context, userID uuid.UUID) ([]entity.Course, error)
	FindEnrolled(ctx context.Context, userID uuid.UUID) ([]entity.Course, error)
	RemoveEnrollments(ctx context.Context, userID uuid.UUID) (int64, error)
	TransferOwnership(ctx context.Context, from, to uuid.UUID) (int64, error)
	DeleteByInstructor(ctx context.Context, userID uuid.UUID) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) FindByInstructor(ctx context.Context, userID uuid.UUID) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", userID).
		Order("created_at ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) FindEnrolled(ctx context.Context, userID uuid.UUID) ([]entity.Course, error) {
	var courses []entity.Course
	err := r.db.WithContext(ctx).
		Joins("JOIN course_enrollments ON course_enrollments.course_id = courses.id").
		Where("course_enrollments.user_id = ?", userID).
		Select("courses.id, courses.title, courses.instructor_id, courses.published, courses.created_at").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) RemoveEnrollments(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&entity.CourseEnrollment{})
	return result.RowsAffected, result.Error
}

func (r *courseRepository) TransferOwnership(ctx context.Context, from, to uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Course{}).
		Where("instructor_id = ?", from).
		Update("instructor_id", to)
	return result.RowsAffected, result.Error
}

func (r *courseRepository) DeleteByInstructor(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("instructor_id = ?", userID).
		Delete(&entity.Course{})
	return result.RowsAffected, result.Error
}
