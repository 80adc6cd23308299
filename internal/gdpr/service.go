package gdpr

import (
	"context"
	"fmt"
	"time"

	"learnhub/internal/repository"
	"learnhub/internal/security"
	"learnhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ExportDir string
	// RetentionDays is the default age after which export artifacts are removed.
	RetentionDays int
	// MinExportAge protects artifacts that may still be being written.
	MinExportAge time.Duration
}

func (c Config) withDefaults() Config {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.MinExportAge <= 0 {
		c.MinExportAge = time.Hour
	}
	return c
}

// Repositories are the stores holding subject data.
type Repositories struct {
	Users         repository.UserRepository
	Progress      repository.ProgressRepository
	Courses       repository.CourseRepository
	Projects      repository.ProjectRepository
	Messages      repository.MessageRepository
	Notifications repository.NotificationRepository
	Mentorships   repository.MentorshipRepository
	Sessions      repository.SessionRepository
	Tokens        repository.VerificationTokenRepository
	Steps         repository.DeletionStepRepository
}

type Service struct {
	cfg      Config
	repos    Repositories
	audit    AuditLog
	events   security.EventSink
	log      logrus.FieldLogger
	clock    utils.Clock
	metrics  *Metrics
	validate *validator.Validate
}

type Option func(*Service)

func WithEventSink(sink security.EventSink) Option {
	return func(s *Service) { s.events = sink }
}

func WithClock(c utils.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(cfg Config, repos Repositories, audit AuditLog, log logrus.FieldLogger, opts ...Option) (*Service, error) {
	cfg = cfg.withDefaults()
	if cfg.ExportDir == "" {
		return nil, fmt.Errorf("gdpr export directory is required")
	}
	s := &Service{
		cfg:      cfg,
		repos:    repos,
		audit:    audit,
		log:      log,
		clock:    utils.RealClock{},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s, nil
}

// authorize lets a subject act on their own data and lets active admins act
// on anyone's. It runs before any subject data is read.
func (s *Service) authorize(ctx context.Context, op string, subjectID, requesterID uuid.UUID) error {
	if subjectID == uuid.Nil || requesterID == uuid.Nil {
		return newError(op, KindInvalid, fmt.Errorf("subject and requester are required"))
	}
	if subjectID == requesterID {
		return nil
	}
	requester, err := s.repos.Users.FindByID(ctx, requesterID)
	if err != nil {
		return newError(op, KindStorage, fmt.Errorf("look up requester: %w", err))
	}
	if requester == nil || !requester.IsAdmin() {
		return newError(op, KindUnauthorized, ErrUnauthorized)
	}
	return nil
}

func (s *Service) record(action string, subjectID uuid.UUID, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := AuditEntry{
		Timestamp:  s.clock.Now().UTC(),
		Action:     action,
		UserID:     subjectID.String(),
		Details:    details,
		Compliance: complianceTag,
	}
	if err := s.audit.Record(entry); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"action":  action,
			"user_id": subjectID,
		}).Error("failed to write gdpr audit entry")
	}
}

func (s *Service) fail(op, action string, subjectID uuid.UUID, details map[string]any, err error) error {
	if details == nil {
		details = map[string]any{}
	}
	details["error"] = err.Error()
	s.record(action, subjectID, details)
	s.metrics.requests.WithLabelValues(op, "failure").Inc()
	s.log.WithError(err).WithFields(logrus.Fields{
		"operation": op,
		"user_id":   subjectID,
		"kind":      KindOf(err).String(),
	}).Warn("gdpr request failed")
	return err
}

func (s *Service) succeed(op, action string, subjectID uuid.UUID, details map[string]any) {
	s.record(action, subjectID, details)
	s.metrics.requests.WithLabelValues(op, "success").Inc()
	s.log.WithFields(logrus.Fields{"operation": op, "user_id": subjectID}).Info("gdpr request completed")
}
