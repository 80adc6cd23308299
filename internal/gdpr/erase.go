package gdpr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"learnhub/internal/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PlaceholderName           = "Deleted User"
	PlaceholderMessageContent = "[Message deleted by user]"
	placeholderEmailDomain    = "deleted.local"
)

// Erasure steps in execution order.
const (
	StepExport            = "export"
	StepAnonymizeProfile  = "anonymizeProfile"
	StepCourseProgress    = "courseProgress"
	StepEnrollments       = "enrollments"
	StepCreatedCourses    = "createdCourses"
	StepSentMessages      = "sentMessages"
	StepReceivedMessages  = "receivedMessages"
	StepNotifications     = "notifications"
	StepClientProjects    = "clientProjects"
	StepApplications      = "projectApplications"
	StepMentorMentorships = "mentorMentorships"
	StepMenteeMentorships = "menteeMentorships"
	StepRevokeCredentials = "revokeCredentials"
)

// erasureStep is one idempotent unit of a deletion. run returns the number
// of affected records and a short description of what was done. A step with
// firstPassOnly is never retried: it reads data the later steps erase.
type erasureStep struct {
	name          string
	run           func(ctx context.Context, e *erasure) (int64, string, error)
	firstPassOnly bool
}

type erasure struct {
	requestID uuid.UUID
	subjectID uuid.UUID
	opts      DeleteOptions
	report    *DeletionReport
}

func (s *Service) erasureSteps(opts DeleteOptions) []erasureStep {
	var steps []erasureStep
	if !opts.SkipExport {
		steps = append(steps, erasureStep{name: StepExport, run: s.stepExport, firstPassOnly: true})
	}
	if !opts.PreserveProfile {
		steps = append(steps, erasureStep{name: StepAnonymizeProfile, run: s.stepAnonymizeProfile})
	}
	return append(steps,
		erasureStep{name: StepCourseProgress, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Progress.DeleteByUser(ctx, e.subjectID)
			return n, "deleted", err
		}},
		erasureStep{name: StepEnrollments, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Courses.RemoveEnrollments(ctx, e.subjectID)
			return n, "removed", err
		}},
		erasureStep{name: StepCreatedCourses, run: s.stepCreatedCourses},
		erasureStep{name: StepSentMessages, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Messages.AnonymizeSent(ctx, e.subjectID, PlaceholderMessageContent, s.clock.Now())
			return n, "anonymized", err
		}},
		erasureStep{name: StepReceivedMessages, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Messages.DetachRecipient(ctx, e.subjectID)
			return n, "recipient detached", err
		}},
		erasureStep{name: StepNotifications, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Notifications.DeleteByUser(ctx, e.subjectID)
			return n, "deleted", err
		}},
		erasureStep{name: StepClientProjects, run: s.stepClientProjects},
		erasureStep{name: StepApplications, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Projects.RemoveApplications(ctx, e.subjectID)
			return n, "removed", err
		}},
		erasureStep{name: StepMentorMentorships, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Mentorships.AnonymizeMentor(ctx, e.subjectID, PlaceholderName)
			return n, "anonymized", err
		}},
		erasureStep{name: StepMenteeMentorships, run: func(ctx context.Context, e *erasure) (int64, string, error) {
			n, err := s.repos.Mentorships.AnonymizeMentee(ctx, e.subjectID, PlaceholderName)
			return n, "anonymized", err
		}},
		erasureStep{name: StepRevokeCredentials, run: s.stepRevokeCredentials},
	)
}

func (s *Service) stepExport(ctx context.Context, e *erasure) (int64, string, error) {
	result, err := s.export(ctx, "delete", e.subjectID)
	if err != nil {
		return 0, "", err
	}
	e.report.ExportFile = result.FileName
	return int64(result.RecordCount), result.FileName, nil
}

func (s *Service) stepAnonymizeProfile(ctx context.Context, e *erasure) (int64, string, error) {
	now := s.clock.Now()
	err := s.repos.Users.UpdateFields(ctx, e.subjectID, map[string]any{
		"name":          PlaceholderName,
		"email":         placeholderEmail(),
		"password_hash": nil,
		"role":          entity.UserRoleDeleted,
		"is_active":     false,
		"is_deleted":    true,
		"deleted_at":    now,
		"skills":        nil,
		"bio":           "",
		"profile_image": "",
		"social_links":  nil,
		"preferences":   nil,
	})
	if err != nil {
		return 0, "", err
	}
	return 1, "anonymized", nil
}

func (s *Service) stepCreatedCourses(ctx context.Context, e *erasure) (int64, string, error) {
	if owner, ok := e.opts.transferCoursesTo(); ok {
		n, err := s.repos.Courses.TransferOwnership(ctx, e.subjectID, owner)
		return n, "transferred to " + owner.String(), err
	}
	n, err := s.repos.Courses.DeleteByInstructor(ctx, e.subjectID)
	return n, "deleted", err
}

func (s *Service) stepClientProjects(ctx context.Context, e *erasure) (int64, string, error) {
	if owner, ok := e.opts.transferProjectsTo(); ok {
		n, err := s.repos.Projects.TransferClient(ctx, e.subjectID, owner)
		return n, "transferred to " + owner.String(), err
	}
	n, err := s.repos.Projects.AnonymizeClient(ctx, e.subjectID, PlaceholderName)
	return n, "anonymized", err
}

func (s *Service) stepRevokeCredentials(ctx context.Context, e *erasure) (int64, string, error) {
	var total int64
	var errs []error
	if s.repos.Sessions != nil {
		n, err := s.repos.Sessions.RevokeAllByUser(ctx, e.subjectID)
		total += n
		errs = append(errs, err)
	}
	if s.repos.Tokens != nil {
		n, err := s.repos.Tokens.DeleteByUser(ctx, e.subjectID)
		total += n
		errs = append(errs, err)
	}
	return total, "sessions revoked", errors.Join(errs...)
}

func placeholderEmail() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("deleted-%s@%s", token, placeholderEmailDomain)
}

// DeleteUserData erases the subject's personal data. Each step is attempted
// even if an earlier one fails; failures are reported per step and can be
// retried with ResumeDeletion.
func (s *Service) DeleteUserData(ctx context.Context, subjectID, requesterID uuid.UUID, opts DeleteOptions) (*DeletionReport, error) {
	const op = "delete"
	details := map[string]any{"requestedBy": requesterID.String(), "options": opts}

	if err := s.authorize(ctx, op, subjectID, requesterID); err != nil {
		return nil, s.fail(op, ActionDataDeletionFailed, subjectID, details, err)
	}

	e := &erasure{
		requestID: uuid.New(),
		subjectID: subjectID,
		opts:      opts,
		report: &DeletionReport{
			SubjectID:   subjectID,
			Options:     opts,
			Steps:       []StepResult{},
			FailedSteps: []string{},
		},
	}
	e.report.RequestID = e.requestID
	s.runSteps(ctx, e, s.erasureSteps(opts))

	details["requestId"] = e.requestID.String()
	details["report"] = e.report
	s.succeed(op, ActionDataDeletion, subjectID, details)
	return e.report, nil
}

// ResumeDeletion re-runs the failed steps of an earlier deletion request
// with the options it was started with.
func (s *Service) ResumeDeletion(ctx context.Context, requestID, requesterID uuid.UUID) (*DeletionReport, error) {
	const op = "resume_delete"
	if s.repos.Steps == nil {
		return nil, newError(op, KindNotFound, ErrDeletionNotFound)
	}
	rows, err := s.repos.Steps.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, newError(op, KindStorage, err)
	}
	if len(rows) == 0 {
		return nil, newError(op, KindNotFound, ErrDeletionNotFound)
	}
	subjectID := rows[0].SubjectID
	details := map[string]any{"requestedBy": requesterID.String(), "requestId": requestID.String(), "resumed": true}

	if err := s.authorize(ctx, op, subjectID, requesterID); err != nil {
		return nil, s.fail(op, ActionDataDeletionFailed, subjectID, details, err)
	}

	var opts DeleteOptions
	if len(rows[0].Options) > 0 {
		if err := json.Unmarshal(rows[0].Options, &opts); err != nil {
			return nil, s.fail(op, ActionDataDeletionFailed, subjectID, details, newError(op, KindStorage, err))
		}
	}

	e := &erasure{
		requestID: requestID,
		subjectID: subjectID,
		opts:      opts,
		report: &DeletionReport{
			RequestID:   requestID,
			SubjectID:   subjectID,
			Options:     opts,
			Steps:       []StepResult{},
			FailedSteps: []string{},
		},
	}

	failed := make(map[string]bool)
	for _, row := range rows {
		if row.Status == entity.DeletionStepFailed {
			failed[row.Step] = true
			continue
		}
		e.report.Steps = append(e.report.Steps, StepResult{
			Name:     row.Step,
			Status:   row.Status,
			Affected: row.Affected,
		})
	}

	options, _ := json.Marshal(opts)
	var retry []erasureStep
	for _, step := range s.erasureSteps(opts) {
		if !failed[step.name] {
			continue
		}
		if step.firstPassOnly {
			skipped := StepResult{
				Name:   step.name,
				Status: entity.DeletionStepSkipped,
				Detail: "not retried after erasure started",
			}
			e.report.Steps = append(e.report.Steps, skipped)
			s.saveStep(ctx, e, skipped, options)
			continue
		}
		retry = append(retry, step)
	}
	s.runSteps(ctx, e, retry)

	details["report"] = e.report
	s.succeed(op, ActionDataDeletion, subjectID, details)
	return e.report, nil
}

func (s *Service) runSteps(ctx context.Context, e *erasure, steps []erasureStep) {
	options, _ := json.Marshal(e.opts)
	for _, step := range steps {
		affected, detail, err := step.run(ctx, e)
		result := StepResult{
			Name:     step.name,
			Status:   entity.DeletionStepDone,
			Affected: affected,
			Detail:   detail,
		}
		if err != nil {
			result = StepResult{
				Name:   step.name,
				Status: entity.DeletionStepFailed,
				Error:  stepError(err),
			}
			e.report.FailedSteps = append(e.report.FailedSteps, step.name)
			s.log.WithError(err).WithFields(logrus.Fields{
				"request_id": e.requestID,
				"user_id":    e.subjectID,
				"step":       step.name,
			}).Error("erasure step failed")
		}
		e.report.Steps = append(e.report.Steps, result)
		s.saveStep(ctx, e, result, options)
	}
	e.report.CompletedAt = s.clock.Now()
}

func (s *Service) saveStep(ctx context.Context, e *erasure, result StepResult, options []byte) {
	if s.repos.Steps == nil {
		return
	}
	row := &entity.DeletionStep{
		RequestID: e.requestID,
		SubjectID: e.subjectID,
		Step:      result.Name,
		Status:    result.Status,
		Affected:  result.Affected,
		Error:     result.Error,
		Options:   datatypes.JSON(options),
	}
	if err := s.repos.Steps.Save(ctx, row); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": e.requestID,
			"step":       result.Name,
		}).Error("failed to record erasure step")
	}
}

func stepError(err error) string {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound.Error()
	}
	return err.Error()
}
