package routes

import (
	"time"

	"learnhub/api/handler"
	"learnhub/api/middleware"
	"learnhub/internal/security"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Security       *handler.SecurityHandler
	GDPR           *handler.GDPRHandler
	Monitor        *security.Monitor
	Metrics        prometheus.Gatherer
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
	GDPRRate       *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, monitor *security.Monitor, authMiddleware middleware.AuthMiddleware, authHandler *handler.AuthHandler, securityHandler *handler.SecurityHandler, gdprHandler *handler.GDPRHandler) *Router {
	r := &Router{
		Echo:           e,
		Auth:           authHandler,
		Security:       securityHandler,
		GDPR:           gdprHandler,
		Monitor:        monitor,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
		GDPRRate:       middleware.NewRateLimiter(rate.Every(time.Minute), 3, 30*time.Minute),
	}
	r.AuthRate.Events = monitor
	r.LoginRate.Events = monitor
	r.GDPRRate.Events = monitor
	return r
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	e.Use(middleware.ClientContext)
	e.Use(middleware.BlockGuard(r.Monitor))
	e.Use(middleware.RequestInspector(r.Monitor))

	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.Metrics, promhttp.HandlerOpts{})))
	}

	auth := r.AuthMiddleware.RequireAuth
	admin := middleware.RequireRole("admin", r.Monitor)

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/verify-email", r.Auth.VerifyEmail, r.AuthRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/login/mfa", r.Auth.LoginWithMFA, r.LoginRate.Middleware())
	e.POST("/auth/refresh", r.Auth.Refresh, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, auth)
	e.POST("/auth/logout-all", r.Auth.LogoutAll, auth)
	e.POST("/auth/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	e.POST("/auth/password/reset", r.Auth.PasswordReset, r.AuthRate.Middleware())
	e.POST("/auth/mfa/enable", r.Auth.EnableMFA, auth)
	e.POST("/auth/mfa/verify", r.Auth.VerifyMFA, auth)
	e.POST("/auth/mfa/disable", r.Auth.DisableMFA, auth)

	e.GET("/me", r.Auth.Me, auth)

	gdpr := e.Group("/gdpr", auth)
	gdpr.POST("/export", r.GDPR.Export, r.GDPRRate.Middleware())
	gdpr.GET("/portable", r.GDPR.Portable, r.GDPRRate.Middleware())
	gdpr.DELETE("/data", r.GDPR.Delete, r.GDPRRate.Middleware())
	gdpr.PATCH("/data", r.GDPR.Rectify)
	gdpr.POST("/restrict", r.GDPR.Restrict)
	gdpr.GET("/privacy-report", r.GDPR.PrivacyReport)

	adm := e.Group("/admin", auth, admin)
	adm.GET("/users", r.Auth.AdminListUsers)
	adm.POST("/users/:id/revoke-sessions", r.Auth.AdminRevokeUserSessions)

	adm.GET("/security/dashboard", r.Security.Dashboard)
	adm.GET("/security/report", r.Security.Report)
	adm.GET("/security/incidents/:id", r.Security.Incident)
	adm.POST("/security/incidents/:id/resolve", r.Security.ResolveIncident)
	adm.GET("/security/blocked", r.Security.Blocked)
	adm.DELETE("/security/blocked/:ip", r.Security.Unblock)

	adm.POST("/gdpr/users/:id/export", r.GDPR.Export)
	adm.GET("/gdpr/users/:id/portable", r.GDPR.Portable)
	adm.DELETE("/gdpr/users/:id/data", r.GDPR.Delete)
	adm.PATCH("/gdpr/users/:id/data", r.GDPR.Rectify)
	adm.POST("/gdpr/users/:id/restrict", r.GDPR.Restrict)
	adm.GET("/gdpr/users/:id/privacy-report", r.GDPR.PrivacyReport)
	adm.POST("/gdpr/deletions/:requestId/resume", r.GDPR.ResumeDeletion)
}
