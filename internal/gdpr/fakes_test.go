package gdpr

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"learnhub/internal/entity"
	"learnhub/internal/repository"
	"learnhub/internal/security"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// store is an in-memory stand-in for the database behind the repositories.
type store struct {
	mu            sync.Mutex
	reads         int
	users         map[uuid.UUID]*entity.User
	progress      []entity.UserProgress
	courses       []entity.Course
	enrollments   []entity.CourseEnrollment
	projects      []entity.Project
	applications  []entity.ProjectApplication
	messages      []entity.Message
	notifications []entity.Notification
	mentorships   []entity.Mentorship
	steps         []entity.DeletionStep

	failNotifications error
	failSent          error
}

func newStore() *store {
	return &store{users: make(map[uuid.UUID]*entity.User)}
}

func (s *store) read() {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
}

func (s *store) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *store) addUser(role entity.UserRole) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{
		ID:       uuid.New(),
		Name:     "Ada Lovelace",
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
		Bio:      "analyst",
		Skills:   datatypes.JSON(`["go"]`),
		IsActive: true,
	}
	hash := "secret-hash"
	u.PasswordHash = &hash
	s.users[u.ID] = u
	return u
}

func (s *store) user(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *store) repositories() Repositories {
	return Repositories{
		Users:         userFake{s},
		Progress:      progressFake{s},
		Courses:       courseFake{s},
		Projects:      projectFake{s},
		Messages:      messageFake{s},
		Notifications: notificationFake{s},
		Mentorships:   mentorshipFake{s},
		Steps:         stepFake{s},
	}
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

type userFake struct{ *store }

var _ repository.UserRepository = userFake{}

func (f userFake) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f userFake) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f userFake) FindAnyByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f userFake) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f userFake) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f userFake) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "password_hash":
			u.PasswordHash = nil
		case "role":
			u.Role = v.(entity.UserRole)
		case "is_active":
			u.IsActive = v.(bool)
		case "is_deleted":
			u.IsDeleted = v.(bool)
		case "deleted_at":
			t := v.(time.Time)
			u.DeletedAt = &t
		case "bio":
			u.Bio = v.(string)
		case "profile_image":
			u.ProfileImage = v.(string)
		case "skills":
			u.Skills = jsonOrNil(v)
		case "social_links":
			u.SocialLinks = jsonOrNil(v)
		case "preferences":
			u.Preferences = jsonOrNil(v)
		case "data_processing_restrictions":
			u.DataProcessingRestrictions = jsonOrNil(v)
		case "restriction_date":
			t := v.(time.Time)
			u.RestrictionDate = &t
		case "restricted_by":
			by := v.(uuid.UUID)
			u.RestrictedBy = &by
		default:
			return errors.New("unexpected field " + k)
		}
	}
	return nil
}

func jsonOrNil(v any) datatypes.JSON {
	if j, ok := v.(datatypes.JSON); ok {
		return j
	}
	return nil
}

func (f userFake) VerifyEmail(context.Context, uuid.UUID) error { return nil }

func (f userFake) List(context.Context, int, int) ([]entity.User, error) { return nil, nil }

type progressFake struct{ *store }

func (f progressFake) FindByUser(_ context.Context, id uuid.UUID) ([]entity.UserProgress, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.UserProgress
	for _, p := range f.progress {
		if p.UserID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f progressFake) DeleteByUser(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.UserProgress
	var n int64
	for _, p := range f.progress {
		if p.UserID == id {
			n++
			continue
		}
		kept = append(kept, p)
	}
	f.progress = kept
	return n, nil
}

type courseFake struct{ *store }

func (f courseFake) FindByInstructor(_ context.Context, id uuid.UUID) ([]entity.Course, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Course
	for _, c := range f.courses {
		if c.InstructorID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f courseFake) FindEnrolled(_ context.Context, id uuid.UUID) ([]entity.Course, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Course
	for _, e := range f.enrollments {
		if e.UserID != id {
			continue
		}
		for _, c := range f.courses {
			if c.ID == e.CourseID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f courseFake) RemoveEnrollments(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.CourseEnrollment
	var n int64
	for _, e := range f.enrollments {
		if e.UserID == id {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.enrollments = kept
	return n, nil
}

func (f courseFake) TransferOwnership(_ context.Context, from, to uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.courses {
		if f.courses[i].InstructorID == from {
			f.courses[i].InstructorID = to
			n++
		}
	}
	return n, nil
}

func (f courseFake) DeleteByInstructor(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.Course
	var n int64
	for _, c := range f.courses {
		if c.InstructorID == id {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.courses = kept
	return n, nil
}

type projectFake struct{ *store }

func (f projectFake) FindByClient(_ context.Context, id uuid.UUID) ([]entity.Project, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Project
	for _, p := range f.projects {
		if p.ClientID != nil && *p.ClientID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f projectFake) FindApplicationsByFreelancer(_ context.Context, id uuid.UUID) ([]entity.ProjectApplication, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ProjectApplication
	for _, a := range f.applications {
		if a.FreelancerID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f projectFake) TransferClient(_ context.Context, from, to uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.projects {
		if f.projects[i].ClientID != nil && *f.projects[i].ClientID == from {
			f.projects[i].ClientID = ptr(to)
			n++
		}
	}
	return n, nil
}

func (f projectFake) AnonymizeClient(_ context.Context, id uuid.UUID, placeholder string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.projects {
		if f.projects[i].ClientID != nil && *f.projects[i].ClientID == id {
			f.projects[i].ClientID = nil
			f.projects[i].ClientName = placeholder
			f.projects[i].IsClientDeleted = true
			n++
		}
	}
	return n, nil
}

func (f projectFake) RemoveApplications(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.ProjectApplication
	var n int64
	for _, a := range f.applications {
		if a.FreelancerID == id {
			n++
			continue
		}
		kept = append(kept, a)
	}
	f.applications = kept
	return n, nil
}

type messageFake struct{ *store }

func (f messageFake) FindSent(_ context.Context, id uuid.UUID) ([]entity.Message, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if m.SenderID != nil && *m.SenderID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f messageFake) FindReceived(_ context.Context, id uuid.UUID) ([]entity.Message, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if m.RecipientID != nil && *m.RecipientID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f messageFake) AnonymizeSent(_ context.Context, id uuid.UUID, placeholder string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSent != nil {
		return 0, f.failSent
	}
	var n int64
	for i := range f.messages {
		if f.messages[i].SenderID != nil && *f.messages[i].SenderID == id {
			f.messages[i].Content = placeholder
			f.messages[i].IsDeleted = true
			f.messages[i].DeletedAt = &at
			n++
		}
	}
	return n, nil
}

func (f messageFake) DetachRecipient(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.messages {
		if f.messages[i].RecipientID != nil && *f.messages[i].RecipientID == id {
			f.messages[i].RecipientID = nil
			f.messages[i].IsRecipientDeleted = true
			n++
		}
	}
	return n, nil
}

type notificationFake struct{ *store }

func (f notificationFake) FindByUser(_ context.Context, id uuid.UUID) ([]entity.Notification, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNotifications != nil {
		return nil, f.failNotifications
	}
	var out []entity.Notification
	for _, n := range f.notifications {
		if n.UserID == id {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f notificationFake) DeleteByUser(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNotifications != nil {
		return 0, f.failNotifications
	}
	var kept []entity.Notification
	var n int64
	for _, x := range f.notifications {
		if x.UserID == id {
			n++
			continue
		}
		kept = append(kept, x)
	}
	f.notifications = kept
	return n, nil
}

type mentorshipFake struct{ *store }

func (f mentorshipFake) FindByMentor(_ context.Context, id uuid.UUID) ([]entity.Mentorship, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Mentorship
	for _, m := range f.mentorships {
		if m.MentorID != nil && *m.MentorID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f mentorshipFake) FindByMentee(_ context.Context, id uuid.UUID) ([]entity.Mentorship, error) {
	f.read()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Mentorship
	for _, m := range f.mentorships {
		if m.MenteeID != nil && *m.MenteeID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f mentorshipFake) AnonymizeMentor(_ context.Context, id uuid.UUID, placeholder string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.mentorships {
		if f.mentorships[i].MentorID != nil && *f.mentorships[i].MentorID == id {
			f.mentorships[i].MentorID = nil
			f.mentorships[i].MentorName = placeholder
			f.mentorships[i].IsMentorDeleted = true
			n++
		}
	}
	return n, nil
}

func (f mentorshipFake) AnonymizeMentee(_ context.Context, id uuid.UUID, placeholder string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.mentorships {
		if f.mentorships[i].MenteeID != nil && *f.mentorships[i].MenteeID == id {
			f.mentorships[i].MenteeID = nil
			f.mentorships[i].MenteeName = placeholder
			f.mentorships[i].IsMenteeDeleted = true
			n++
		}
	}
	return n, nil
}

type stepFake struct{ *store }

func (f stepFake) Save(_ context.Context, step *entity.DeletionStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.steps {
		if f.steps[i].RequestID == step.RequestID && f.steps[i].Step == step.Step {
			f.steps[i].Status = step.Status
			f.steps[i].Affected = step.Affected
			f.steps[i].Error = step.Error
			return nil
		}
	}
	f.steps = append(f.steps, *step)
	return nil
}

func (f stepFake) FindByRequest(_ context.Context, requestID uuid.UUID) ([]entity.DeletionStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.DeletionStep
	for _, s := range f.steps {
		if s.RequestID == requestID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *memAudit) Record(e AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []security.Details
}

func (r *recordingSink) LogEvent(_ context.Context, _ security.EventType, d security.Details) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return uuid.NewString(), nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
