package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"learnhub/api/middleware"
	"learnhub/internal/dto"
	"learnhub/internal/security"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	defaultReportDays = 7
	maxReportDays     = 90
)

type SecurityHandler struct {
	Monitor  *security.Monitor
	Validate *validator.Validate
}

func NewSecurityHandler(monitor *security.Monitor, validate *validator.Validate) *SecurityHandler {
	return &SecurityHandler{Monitor: monitor, Validate: validate}
}

func (h *SecurityHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Monitor.Dashboard(c.Request().Context()))
}

func (h *SecurityHandler) Report(c echo.Context) error {
	days := defaultReportDays
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxReportDays {
			return writeError(c, http.StatusBadRequest, errors.New("days must be between 1 and 90"))
		}
		days = parsed
	}
	return c.JSON(http.StatusOK, h.Monitor.Report(c.Request().Context(), days))
}

func (h *SecurityHandler) Incident(c echo.Context) error {
	incident, err := h.Monitor.Incident(c.Param("id"))
	if err != nil {
		return writeSecurityError(c, err)
	}
	return c.JSON(http.StatusOK, dto.IncidentResponse{Success: true, Incident: &incident})
}

func (h *SecurityHandler) ResolveIncident(c echo.Context) error {
	adminID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.ResolveIncidentRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
		}
	}

	id := c.Param("id")
	incident, err := h.Monitor.ResolveIncident(c.Request().Context(), id, req.Resolution, adminID.String())
	if err != nil {
		return writeSecurityError(c, err)
	}
	reportAdminAction(c, h.Monitor, "resolve_incident", map[string]any{"incidentId": id})
	return c.JSON(http.StatusOK, dto.IncidentResponse{Success: true, Incident: &incident})
}

func (h *SecurityHandler) Blocked(c echo.Context) error {
	blocks, err := h.Monitor.BlockedIdentities(c.Request().Context())
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, dto.BlockedListResponse{Blocked: blocks, Count: len(blocks)})
}

func (h *SecurityHandler) Unblock(c echo.Context) error {
	ip := strings.TrimSpace(c.Param("ip"))
	if ip == "" {
		return writeError(c, http.StatusBadRequest, errors.New("ip is required"))
	}
	if err := h.Monitor.Unblock(c.Request().Context(), ip); err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	reportAdminAction(c, h.Monitor, "unblock_ip", map[string]any{"target": ip})
	return c.NoContent(http.StatusNoContent)
}

func writeSecurityError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, security.ErrIncidentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, security.ErrIncidentAlreadyResolved):
		status = http.StatusConflict
	}
	return c.JSON(status, dto.Failure(err.Error()))
}

// reportAdminAction records a privileged operation against the acting
// admin so the admin-action anomaly rule can see it.
func reportAdminAction(c echo.Context, events security.EventSink, action string, extra map[string]any) {
	if events == nil {
		return
	}
	details := security.Details{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Method:    c.Request().Method,
		Path:      c.Request().URL.Path,
		Reason:    action,
		Extra:     extra,
	}
	if adminID, ok := middleware.UserIDFromContext(c); ok {
		details.UserID = adminID.String()
	}
	_, _ = events.LogEvent(c.Request().Context(), security.AdminAction, details)
}
