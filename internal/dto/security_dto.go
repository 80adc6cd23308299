package dto

import "learnhub/internal/security"

type ResolveIncidentRequest struct {
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

type IncidentResponse struct {
	Success  bool               `json:"success"`
	Incident *security.Incident `json:"incident"`
}

type BlockedListResponse struct {
	Blocked []security.Block `json:"blocked"`
	Count   int              `json:"count"`
}
