package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type BlockChecker interface {
	IsBlocked(ctx context.Context, ip string) bool
}

// BlockGuard turns away requests from blocked addresses before any handler
// runs.
func BlockGuard(blocks BlockChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if blocks.IsBlocked(c.Request().Context(), c.RealIP()) {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}
