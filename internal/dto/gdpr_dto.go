package dto

import (
	"learnhub/internal/gdpr"

	"github.com/google/uuid"
)

// GDPR responses share one envelope so callers can branch on success alone.
// Payload fields are inlined next to it.

type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Failure(message string) FailureResponse {
	return FailureResponse{Success: false, Error: message}
}

type ExportResponse struct {
	Success bool `json:"success"`
	*gdpr.ExportResult
}

type DeletionResponse struct {
	Success bool `json:"success"`
	*gdpr.DeletionReport
}

type RectifyResponse struct {
	Success bool `json:"success"`
	*gdpr.RectifyResult
}

type RestrictResponse struct {
	Success bool `json:"success"`
	*gdpr.RestrictResult
}

type PrivacyReportResponse struct {
	Success bool                `json:"success"`
	Report  *gdpr.PrivacyReport `json:"report"`
}

type DeleteDataRequest struct {
	SkipExport       bool   `json:"skip_export"`
	PreserveProfile  bool   `json:"preserve_profile"`
	TransferCourses  bool   `json:"transfer_courses"`
	TransferProjects bool   `json:"transfer_projects"`
	NewOwnerID       string `json:"new_owner_id" validate:"omitempty,uuid"`
}

func (r DeleteDataRequest) Options() gdpr.DeleteOptions {
	opts := gdpr.DeleteOptions{
		SkipExport:       r.SkipExport,
		PreserveProfile:  r.PreserveProfile,
		TransferCourses:  r.TransferCourses,
		TransferProjects: r.TransferProjects,
	}
	if id, err := uuid.Parse(r.NewOwnerID); err == nil {
		opts.NewOwnerID = &id
	}
	return opts
}

type RectifyRequest struct {
	Profile *gdpr.ProfileCorrections `json:"profile" validate:"required"`
}

type RestrictRequest struct {
	Marketing         bool   `json:"marketing"`
	Analytics         bool   `json:"analytics"`
	Profiling         bool   `json:"profiling"`
	ThirdPartySharing bool   `json:"third_party_sharing"`
	Reason            string `json:"reason" validate:"max=500"`
}

func (r RestrictRequest) Restrictions() gdpr.Restrictions {
	return gdpr.Restrictions{
		Marketing:         r.Marketing,
		Analytics:         r.Analytics,
		Profiling:         r.Profiling,
		ThirdPartySharing: r.ThirdPartySharing,
		Reason:            r.Reason,
	}
}
