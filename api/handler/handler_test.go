package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"learnhub/api/middleware"
	"learnhub/internal/entity"
	"learnhub/internal/gdpr"
	"learnhub/internal/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func as(userID uuid.UUID, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetAuthContext(c, userID, role, uuid.New())
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Real-IP", "10.20.30.40")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func newTestMonitor(t *testing.T) *security.Monitor {
	t.Helper()
	m := security.NewMonitor(security.DefaultConfig(), nil, quietLogger())
	t.Cleanup(m.Close)
	return m
}

func TestSecurityDashboardAndReport(t *testing.T) {
	monitor := newTestMonitor(t)
	h := NewSecurityHandler(monitor, validator.New())
	adminID := uuid.New()

	e := echo.New()
	e.GET("/admin/security/dashboard", h.Dashboard, as(adminID, "admin"))
	e.GET("/admin/security/report", h.Report, as(adminID, "admin"))

	rec := do(e, http.MethodGet, "/admin/security/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "systemStatus")
	assert.Equal(t, float64(0), body["activeIncidents"])

	rec = do(e, http.MethodGet, "/admin/security/report?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	period, ok := decode(t, rec)["period"].(map[string]any)
	require.True(t, ok)
	assert.NotEqual(t, period["from"], period["coveredFrom"], "30 days exceeds the event retention")
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/admin/security/report?days=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/admin/security/report?days=abc", "").Code)
}

func TestSecurityResolveAndUnblock(t *testing.T) {
	monitor := newTestMonitor(t)
	h := NewSecurityHandler(monitor, validator.New())
	adminID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = monitor.LogEvent(ctx, security.LoginFailed, security.Details{IP: "192.0.2.50"})
	}
	require.True(t, monitor.IsBlocked(ctx, "192.0.2.50"))
	incidents := monitor.Dashboard(ctx).RecentIncidents
	require.Len(t, incidents, 1)
	incidentID := incidents[0].ID

	e := echo.New()
	admin := as(adminID, "admin")
	e.GET("/admin/security/blocked", h.Blocked, admin)
	e.DELETE("/admin/security/blocked/:ip", h.Unblock, admin)
	e.GET("/admin/security/incidents/:id", h.Incident, admin)
	e.POST("/admin/security/incidents/:id/resolve", h.ResolveIncident, admin)

	rec := do(e, http.MethodGet, "/admin/security/blocked", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = do(e, http.MethodPost, "/admin/security/incidents/nope/resolve", `{"resolution":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(e, http.MethodPost, "/admin/security/incidents/"+incidentID+"/resolve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/admin/security/incidents/"+incidentID+"/resolve", `{"resolution":"credential stuffing, source blocked"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	incident := body["incident"].(map[string]any)
	assert.Equal(t, "resolved", incident["status"])
	assert.Equal(t, adminID.String(), incident["resolution"].(map[string]any)["resolvedBy"])

	rec = do(e, http.MethodPost, "/admin/security/incidents/"+incidentID+"/resolve", `{"resolution":"again"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodDelete, "/admin/security/blocked/192.0.2.50", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, monitor.IsBlocked(ctx, "192.0.2.50"))

	counts := monitor.Dashboard(ctx).EventCounts.Last24Hours
	assert.Equal(t, 2, counts[security.AdminAction])
}

type userStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*entity.User
	updates map[uuid.UUID]map[string]any
}

func newUserStore(users ...*entity.User) *userStore {
	s := &userStore{users: map[uuid.UUID]*entity.User{}, updates: map[uuid.UUID]map[string]any{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userStore) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *userStore) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *userStore) FindAnyByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.FindByID(ctx, id)
}

func (s *userStore) FindByEmail(context.Context, string) (*entity.User, error) { return nil, nil }
func (s *userStore) Update(context.Context, *entity.User) error                { return nil }
func (s *userStore) VerifyEmail(context.Context, uuid.UUID) error               { return nil }

func (s *userStore) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[id] = fields
	return nil
}

func (s *userStore) List(context.Context, int, int) ([]entity.User, error) { return nil, nil }

type emptyProgress struct{}

func (emptyProgress) FindByUser(context.Context, uuid.UUID) ([]entity.UserProgress, error) {
	return nil, nil
}
func (emptyProgress) DeleteByUser(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type emptyCourses struct{}

func (emptyCourses) FindByInstructor(context.Context, uuid.UUID) ([]entity.Course, error) {
	return nil, nil
}
func (emptyCourses) FindEnrolled(context.Context, uuid.UUID) ([]entity.Course, error) {
	return nil, nil
}
func (emptyCourses) RemoveEnrollments(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (emptyCourses) TransferOwnership(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}
func (emptyCourses) DeleteByInstructor(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type emptyProjects struct{}

func (emptyProjects) FindByClient(context.Context, uuid.UUID) ([]entity.Project, error) {
	return nil, nil
}
func (emptyProjects) FindApplicationsByFreelancer(context.Context, uuid.UUID) ([]entity.ProjectApplication, error) {
	return nil, nil
}
func (emptyProjects) TransferClient(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}
func (emptyProjects) AnonymizeClient(context.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}
func (emptyProjects) RemoveApplications(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type emptyMessages struct{}

func (emptyMessages) FindSent(context.Context, uuid.UUID) ([]entity.Message, error) { return nil, nil }
func (emptyMessages) FindReceived(context.Context, uuid.UUID) ([]entity.Message, error) {
	return nil, nil
}
func (emptyMessages) AnonymizeSent(context.Context, uuid.UUID, string, time.Time) (int64, error) {
	return 0, nil
}
func (emptyMessages) DetachRecipient(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type emptyNotifications struct{}

func (emptyNotifications) FindByUser(context.Context, uuid.UUID) ([]entity.Notification, error) {
	return nil, nil
}
func (emptyNotifications) DeleteByUser(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type emptyMentorships struct{}

func (emptyMentorships) FindByMentor(context.Context, uuid.UUID) ([]entity.Mentorship, error) {
	return nil, nil
}
func (emptyMentorships) FindByMentee(context.Context, uuid.UUID) ([]entity.Mentorship, error) {
	return nil, nil
}
func (emptyMentorships) AnonymizeMentor(context.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}
func (emptyMentorships) AnonymizeMentee(context.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}

type gdprFixture struct {
	e       *echo.Echo
	users   *userStore
	monitor *security.Monitor
	member  *entity.User
	admin   *entity.User
	dir     string
}

func newGDPRFixture(t *testing.T) *gdprFixture {
	t.Helper()
	member := &entity.User{ID: uuid.New(), Name: "Grace", Email: "grace@example.com", Role: entity.UserRoleMentor, IsActive: true}
	admin := &entity.User{ID: uuid.New(), Name: "Root", Email: "root@example.com", Role: entity.UserRoleAdmin, IsActive: true}
	users := newUserStore(member, admin)
	monitor := newTestMonitor(t)
	dir := t.TempDir()

	svc, err := gdpr.NewService(gdpr.Config{ExportDir: dir}, gdpr.Repositories{
		Users:         users,
		Progress:      emptyProgress{},
		Courses:       emptyCourses{},
		Projects:      emptyProjects{},
		Messages:      emptyMessages{},
		Notifications: emptyNotifications{},
		Mentorships:   emptyMentorships{},
	}, nil, quietLogger(), gdpr.WithEventSink(monitor))
	require.NoError(t, err)

	h := NewGDPRHandler(svc, validator.New(), monitor)
	e := echo.New()
	self := as(member.ID, "mentor")
	e.POST("/gdpr/export", h.Export, self)
	e.PATCH("/gdpr/data", h.Rectify, self)
	e.POST("/gdpr/restrict", h.Restrict, self)
	e.GET("/gdpr/portable", h.Portable, self)
	e.GET("/gdpr/privacy-report", h.PrivacyReport, self)
	e.POST("/as-member/users/:id/export", h.Export, self)
	e.POST("/admin/gdpr/users/:id/export", h.Export, as(admin.ID, "admin"))

	return &gdprFixture{e: e, users: users, monitor: monitor, member: member, admin: admin, dir: dir}
}

func TestGDPRExportSelf(t *testing.T) {
	f := newGDPRFixture(t)

	rec := do(f.e, http.MethodPost, "/gdpr/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.True(t, strings.HasPrefix(body["fileName"].(string), "user-data-export-"+f.member.ID.String()))
	assert.Equal(t, float64(1), body["recordCount"])

	counts := f.monitor.Dashboard(context.Background()).EventCounts.Last24Hours
	assert.Equal(t, 1, counts[security.DataExportRequest])
	assert.Zero(t, counts[security.AdminAction])
}

func TestGDPRExportForOtherUser(t *testing.T) {
	f := newGDPRFixture(t)

	rec := do(f.e, http.MethodPost, "/as-member/users/"+f.admin.ID.String()+"/export", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	rec = do(f.e, http.MethodPost, "/admin/gdpr/users/"+f.member.ID.String()+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	counts := f.monitor.Dashboard(context.Background()).EventCounts.Last24Hours
	assert.Equal(t, 1, counts[security.AdminAction])

	rec = do(f.e, http.MethodPost, "/admin/gdpr/users/not-a-uuid/export", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestGDPRRectify(t *testing.T) {
	f := newGDPRFixture(t)

	rec := do(f.e, http.MethodPatch, "/gdpr/data", `{"profile":{"bio":"Distributed systems mentor"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["profileUpdated"])
	assert.Equal(t, "Distributed systems mentor", f.users.updates[f.member.ID]["bio"])

	rec = do(f.e, http.MethodPatch, "/gdpr/data", `{"profile":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(f.e, http.MethodPatch, "/gdpr/data", `{"profile":{"profileImage":"not a url"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGDPRRestrict(t *testing.T) {
	f := newGDPRFixture(t)

	rec := do(f.e, http.MethodPost, "/gdpr/restrict", `{"marketing":true,"profiling":true,"reason":"opt out"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	restrictions := body["restrictions"].(map[string]any)
	assert.Equal(t, true, restrictions["marketing"])
	assert.Equal(t, false, restrictions["analytics"])
	assert.Equal(t, f.member.ID, f.users.updates[f.member.ID]["restricted_by"])
}

func TestGDPRPortableAndReport(t *testing.T) {
	f := newGDPRFixture(t)

	rec := do(f.e, http.MethodGet, "/gdpr/portable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "user-data-"+f.member.ID.String()+".json")

	rec = do(f.e, http.MethodGet, "/gdpr/portable?format=csv", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(f.e, http.MethodGet, "/gdpr/portable?format=yaml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(f.e, http.MethodGet, "/gdpr/privacy-report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode(t, rec)["report"].(map[string]any)
	assert.Len(t, report["rights"], 6)
}
