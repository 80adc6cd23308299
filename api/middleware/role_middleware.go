package middleware

import (
	"net/http"

	"learnhub/internal/security"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects callers without role. Denials are reported to events
// as UNAUTHORIZED_ACCESS_ATTEMPT.
func RequireRole(role string, events security.EventSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			currentRole, ok := RoleFromContext(c)
			if !ok || currentRole != role {
				details := requestDetails(c)
				details.Reason = "role " + role + " required"
				emit(c, events, security.UnauthorizedAccessAttempt, details)
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
