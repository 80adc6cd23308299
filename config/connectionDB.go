package config

import (
	"fmt"

	"learnhub/internal/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func ConnectionDb(cfg Config, log logrus.FieldLogger) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true, // Disable prepared statements completely
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info("success connect to db")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Session{},
		&entity.VerificationToken{},
		&entity.MFASecret{},
		&entity.Course{},
		&entity.CourseEnrollment{},
		&entity.UserProgress{},
		&entity.Project{},
		&entity.ProjectApplication{},
		&entity.Message{},
		&entity.Notification{},
		&entity.Mentorship{},
		&entity.DeletionStep{},
	)
}
