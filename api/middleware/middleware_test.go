package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"learnhub/internal/security"
	"learnhub/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type recordedEvent struct {
	Type    security.EventType
	Details security.Details
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingSink) LogEvent(_ context.Context, typ security.EventType, d security.Details) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: typ, Details: d})
	return "evt", nil
}

func (r *recordingSink) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

type staticBlocks map[string]bool

func (s staticBlocks) IsBlocked(_ context.Context, ip string) bool { return s[ip] }

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func serve(e *echo.Echo, method, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func fromIP(ip string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("X-Real-IP", ip) }
}

func TestClientContextExposesCaller(t *testing.T) {
	e := echo.New()
	var got security.Client
	e.GET("/x", func(c echo.Context) error {
		got = security.ClientFrom(c.Request().Context())
		return ok(c)
	}, ClientContext)

	serve(e, http.MethodGet, "/x", func(r *http.Request) {
		r.Header.Set("X-Real-IP", "203.0.113.4")
		r.Header.Set("User-Agent", "Firefox")
	})
	assert.Equal(t, security.Client{IP: "203.0.113.4", UserAgent: "Firefox"}, got)
}

func TestAuthMiddleware(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("test-secret"), Issuer: "learnhub"}
	userID, sessionID := uuid.New(), uuid.New()
	token, _, err := manager.IssueAccessToken(userID.String(), "admin", sessionID.String())
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := UserIDFromContext(c)
		role, _ := RoleFromContext(c)
		sid, _ := SessionIDFromContext(c)
		return c.JSON(http.StatusOK, map[string]string{"id": id.String(), "role": role, "sid": sid.String()})
	}, AuthMiddleware{JWT: manager}.RequireAuth)

	rec := serve(e, http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), sessionID.String())
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	rec = serve(e, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleReportsDenial(t *testing.T) {
	sink := &recordingSink{}
	userID := uuid.New()

	e := echo.New()
	asRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				SetAuthContext(c, userID, role, uuid.New())
				return next(c)
			}
		}
	}
	e.GET("/admin/x", ok, asRole("freelancer"), RequireRole("admin", sink))
	e.GET("/admin/y", ok, asRole("admin"), RequireRole("admin", sink))

	rec := serve(e, http.MethodGet, "/admin/x", fromIP("10.0.0.8"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/admin/y", fromIP("10.0.0.8"))
	assert.Equal(t, http.StatusOK, rec.Code)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, security.UnauthorizedAccessAttempt, events[0].Type)
	assert.Equal(t, userID.String(), events[0].Details.UserID)
	assert.Equal(t, "10.0.0.8", events[0].Details.IP)
	assert.Equal(t, "/admin/x", events[0].Details.Path)
}

func TestRateLimiterReportsRejections(t *testing.T) {
	sink := &recordingSink{}
	limiter := NewRateLimiter(rate.Every(time.Hour), 1, time.Minute)
	limiter.Events = sink

	e := echo.New()
	e.POST("/auth/login", ok, limiter.Middleware())

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/auth/login", fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/auth/login", fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/auth/login", fromIP("10.0.0.2")).Code)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, security.RateLimitExceeded, events[0].Type)
	assert.Equal(t, "10.0.0.1", events[0].Details.IP)
	assert.Equal(t, http.MethodPost, events[0].Details.Method)
}

func TestBlockGuard(t *testing.T) {
	e := echo.New()
	e.Use(BlockGuard(staticBlocks{"198.51.100.9": true}))
	e.GET("/x", ok)

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/x", fromIP("198.51.100.9")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", fromIP("198.51.100.10")).Code)
}

func TestBlockGuardWithMonitor(t *testing.T) {
	monitor := security.NewMonitor(security.DefaultConfig(), nil, nil)
	defer monitor.Close()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = monitor.LogEvent(ctx, security.LoginFailed, security.Details{IP: "198.51.100.77"})
	}

	e := echo.New()
	e.Use(BlockGuard(monitor))
	e.GET("/x", ok)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/x", fromIP("198.51.100.77")).Code)
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   []security.EventType
	}{
		{"clean", "/courses?page=2&sort=title", nil},
		{"tautology", "/courses?id=1%20OR%201=1", []security.EventType{security.SQLInjectionAttempt}},
		{"union select", "/courses?id=1%20UNION%20SELECT%20password%20FROM%20users", []security.EventType{security.SQLInjectionAttempt}},
		{"script tag", "/search?q=%3Cscript%3Ealert(1)%3C/script%3E", []security.EventType{security.XSSAttempt}},
		{"js scheme", "/redirect?to=javascript:alert(1)", []security.EventType{security.XSSAttempt}},
		{"traversal", "/files/..%2f..%2fetc%2fpasswd", []security.EventType{security.SuspiciousRequest}},
		{"encoded traversal", "/download?path=%2e%2e%2fsecret", []security.EventType{security.SuspiciousRequest}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			var got []security.EventType
			for _, f := range Inspect(req.URL.EscapedPath(), req.URL.RawQuery) {
				got = append(got, f.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestInspectorPassesThrough(t *testing.T) {
	sink := &recordingSink{}
	e := echo.New()
	e.Use(RequestInspector(sink))
	e.GET("/search", ok)

	rec := serve(e, http.MethodGet, "/search?q=%3Cscript%3E", fromIP("10.9.9.9"))
	assert.Equal(t, http.StatusOK, rec.Code)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, security.XSSAttempt, events[0].Type)
	assert.Equal(t, "xss", events[0].Details.Reason)
	assert.Equal(t, "10.9.9.9", events[0].Details.IP)
}
