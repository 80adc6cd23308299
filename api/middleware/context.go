package middleware

import (
	"learnhub/internal/security"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey  = "auth_user_id"
	contextRoleKey    = "auth_role"
	contextSessionKey = "auth_session_id"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role string, sessionID uuid.UUID) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRoleKey, role)
	c.Set(contextSessionKey, sessionID)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(string)
	return role, ok
}

func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextSessionKey)
	sessionID, ok := value.(uuid.UUID)
	return sessionID, ok
}

// ClientContext stores the caller's address and user agent on the request
// context so services deeper in the stack can attribute security events.
func ClientContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := security.WithClient(req.Context(), security.Client{
			IP:        c.RealIP(),
			UserAgent: req.UserAgent(),
		})
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func emit(c echo.Context, events security.EventSink, typ security.EventType, details security.Details) {
	if events == nil {
		return
	}
	_, _ = events.LogEvent(c.Request().Context(), typ, details)
}

func requestDetails(c echo.Context) security.Details {
	req := c.Request()
	details := security.Details{
		IP:        c.RealIP(),
		UserAgent: req.UserAgent(),
		Method:    req.Method,
		Path:      req.URL.Path,
	}
	if userID, ok := UserIDFromContext(c); ok {
		details.UserID = userID.String()
	}
	return details
}
