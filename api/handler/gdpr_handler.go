package handler

import (
	"errors"
	"fmt"
	"net/http"

	"learnhub/api/middleware"
	"learnhub/internal/dto"
	"learnhub/internal/gdpr"
	"learnhub/internal/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// GDPRHandler serves data subject requests. Routes without an :id act on
// the caller; admin routes name the subject in :id.
type GDPRHandler struct {
	Service  *gdpr.Service
	Validate *validator.Validate
	Events   security.EventSink
}

func NewGDPRHandler(svc *gdpr.Service, validate *validator.Validate, events security.EventSink) *GDPRHandler {
	return &GDPRHandler{Service: svc, Validate: validate, Events: events}
}

func (h *GDPRHandler) Export(c echo.Context) error {
	subjectID, requesterID, err := h.parties(c)
	if err != nil {
		return err
	}
	result, err := h.Service.ExportUserData(c.Request().Context(), subjectID, requesterID)
	if err != nil {
		return writeGDPRError(c, "export user data", err)
	}
	h.onBehalf(c, "gdpr_export", subjectID, requesterID)
	if c.QueryParam("download") == "true" {
		return c.Attachment(result.FilePath, result.FileName)
	}
	return c.JSON(http.StatusOK, dto.ExportResponse{Success: true, ExportResult: result})
}

func (h *GDPRHandler) Delete(c echo.Context) error {
	subjectID, requesterID, err := h.parties(c)
	if err != nil {
		return err
	}
	var req dto.DeleteDataRequest
	if c.Request().ContentLength > 0 {
		if err := decodeJSON(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
		}
	}
	if err := h.validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	report, err := h.Service.DeleteUserData(c.Request().Context(), subjectID, requesterID, req.Options())
	if err != nil {
		return writeGDPRError(c, "delete user data", err)
	}
	h.onBehalf(c, "gdpr_delete", subjectID, requesterID)
	return c.JSON(http.StatusOK, dto.DeletionResponse{Success: true, DeletionReport: report})
}

func (h *GDPRHandler) ResumeDeletion(c echo.Context) error {
	requesterID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.Failure("unauthorized"))
	}
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure("invalid request id"))
	}
	report, err := h.Service.ResumeDeletion(c.Request().Context(), requestID, requesterID)
	if err != nil {
		return writeGDPRError(c, "resume deletion", err)
	}
	h.onBehalf(c, "gdpr_resume_deletion", report.SubjectID, requesterID)
	return c.JSON(http.StatusOK, dto.DeletionResponse{Success: true, DeletionReport: report})
}

func (h *GDPRHandler) Rectify(c echo.Context) error {
	subjectID, requesterID, err := h.parties(c)
	if err != nil {
		return err
	}
	var req dto.RectifyRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	if err := h.validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	result, err := h.Service.RectifyUserData(c.Request().Context(), subjectID, gdpr.Corrections{Profile: req.Profile}, requesterID)
	if err != nil {
		return writeGDPRError(c, "rectify user data", err)
	}
	h.onBehalf(c, "gdpr_rectify", subjectID, requesterID)
	return c.JSON(http.StatusOK, dto.RectifyResponse{Success: true, RectifyResult: result})
}

func (h *GDPRHandler) Restrict(c echo.Context) error {
	subjectID, requesterID, err := h.parties(c)
	if err != nil {
		return err
	}
	var req dto.RestrictRequest
	if err := decodeJSON(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	if err := h.validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
	}
	result, err := h.Service.RestrictDataProcessing(c.Request().Context(), subjectID, req.Restrictions(), requesterID)
	if err != nil {
		return writeGDPRError(c, "restrict data processing", err)
	}
	h.onBehalf(c, "gdpr_restrict", subjectID, requesterID)
	return c.JSON(http.StatusOK, dto.RestrictResponse{Success: true, RestrictResult: result})
}

// PrivacyReport has no requester check in the engine. Admin routes are role
// guarded and self routes can only name the caller.
func (h *GDPRHandler) PrivacyReport(c echo.Context) error {
	subjectID, _, err := h.parties(c)
	if err != nil {
		return err
	}
	report, err := h.Service.PrivacyReport(c.Request().Context(), subjectID)
	if err != nil {
		return writeGDPRError(c, "generate privacy report", err)
	}
	return c.JSON(http.StatusOK, dto.PrivacyReportResponse{Success: true, Report: report})
}

func (h *GDPRHandler) Portable(c echo.Context) error {
	subjectID, _, err := h.parties(c)
	if err != nil {
		return err
	}
	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}
	body, contentType, err := h.Service.ExportPortable(c.Request().Context(), subjectID, format)
	if err != nil {
		return writeGDPRError(c, "export portable data", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "user-data-"+subjectID.String()+"."+format))
	return c.Blob(http.StatusOK, contentType, body)
}

// parties returns the data subject and the caller. The error carries a
// failure envelope for echo's error handler.
func (h *GDPRHandler) parties(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	requesterID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, dto.Failure("unauthorized"))
	}
	raw := c.Param("id")
	if raw == "" {
		return requesterID, requesterID, nil
	}
	subjectID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, dto.Failure("invalid user id"))
	}
	return subjectID, requesterID, nil
}

func (h *GDPRHandler) onBehalf(c echo.Context, action string, subjectID, requesterID uuid.UUID) {
	if subjectID == requesterID {
		return
	}
	reportAdminAction(c, h.Events, action, map[string]any{"subjectId": subjectID.String()})
}

func (h *GDPRHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

// writeGDPRError maps engine failures onto the envelope. Internal failures
// get a generic message; the engine has already logged the cause.
func writeGDPRError(c echo.Context, op string, err error) error {
	status := http.StatusInternalServerError
	message := "failed to " + op
	switch gdpr.KindOf(err) {
	case gdpr.KindUnauthorized:
		status, message = http.StatusForbidden, err.Error()
	case gdpr.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case gdpr.KindInvalid:
		status, message = http.StatusBadRequest, err.Error()
	case gdpr.KindUnsupported:
		status, message = http.StatusNotImplemented, err.Error()
	}
	if errors.Is(err, gdpr.ErrUserNotFound) {
		status = http.StatusNotFound
	}
	return c.JSON(status, dto.Failure(message))
}
