// Package security implements the security monitoring engine: event
// ingestion, sliding-window detection, incident tracking, identity blocking
// and the dashboard/report views over that state.
package security

import "time"

type EventType string

const (
	LoginFailed                EventType = "LOGIN_FAILED"
	LoginSuccess               EventType = "LOGIN_SUCCESS"
	PasswordResetRequest       EventType = "PASSWORD_RESET_REQUEST"
	PasswordChanged            EventType = "PASSWORD_CHANGED"
	AccountLocked              EventType = "ACCOUNT_LOCKED"
	SuspiciousRequest          EventType = "SUSPICIOUS_REQUEST"
	SQLInjectionAttempt        EventType = "SQL_INJECTION_ATTEMPT"
	XSSAttempt                 EventType = "XSS_ATTEMPT"
	BruteForceDetected         EventType = "BRUTE_FORCE_DETECTED"
	DataExportRequest          EventType = "DATA_EXPORT_REQUEST"
	AdminAction                EventType = "ADMIN_ACTION"
	UnauthorizedAccessAttempt  EventType = "UNAUTHORIZED_ACCESS_ATTEMPT"
	FileUploadBlocked          EventType = "FILE_UPLOAD_BLOCKED"
	RateLimitExceeded          EventType = "RATE_LIMIT_EXCEEDED"
	CSRFTokenInvalid           EventType = "CSRF_TOKEN_INVALID"
	SessionHijackAttempt       EventType = "SESSION_HIJACK_ATTEMPT"
	PrivilegeEscalationAttempt EventType = "PRIVILEGE_ESCALATION_ATTEMPT"
	DataBreachSuspected        EventType = "DATA_BREACH_SUSPECTED"
)

// Incident types raised by the counting rules. Critical events raise an
// incident typed after the event itself.
const (
	IncidentBruteForce         = string(BruteForceDetected)
	IncidentSuspiciousActivity = "SUSPICIOUS_ACTIVITY"
	IncidentDataExportAnomaly  = "DATA_EXPORT_ANOMALY"
	IncidentAdminActionAnomaly = "ADMIN_ACTION_ANOMALY"
)

// Details is the context attached to an event. IP is the network identity
// the detection rules key on; Extra carries anything event specific.
type Details struct {
	IP        string         `json:"ip,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Email     string         `json:"email,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Details   Details   `json:"details"`
	Processed bool      `json:"processed"`
}

type IncidentStatus string

const (
	IncidentOpen     IncidentStatus = "open"
	IncidentResolved IncidentStatus = "resolved"
)

type Resolution struct {
	Text       string    `json:"text"`
	ResolvedBy string    `json:"resolvedBy"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

type Incident struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	Type       string         `json:"type"`
	Severity   Severity       `json:"severity"`
	Status     IncidentStatus `json:"status"`
	Subject    string         `json:"subject,omitempty"`
	Details    map[string]any `json:"details"`
	EventIDs   []string       `json:"eventIds,omitempty"`
	AssignedTo string         `json:"assignedTo,omitempty"`
	Resolution *Resolution    `json:"resolution,omitempty"`
}

func (i *Incident) clone() Incident {
	out := *i
	if i.Resolution != nil {
		r := *i.Resolution
		out.Resolution = &r
	}
	return out
}

type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertHigh     AlertLevel = "HIGH"
	AlertMedium   AlertLevel = "MEDIUM"
)

type Alert struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Title      string         `json:"title"`
	Level      AlertLevel     `json:"level"`
	IncidentID string         `json:"incidentId,omitempty"`
	Details    map[string]any `json:"details"`
}

// Block is an active block on a network identity. ExpiresAt is nil for
// blocks that last until a manual unblock.
type Block struct {
	IP        string     `json:"ip"`
	Reason    string     `json:"reason"`
	BlockedAt time.Time  `json:"blockedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (b Block) expired(now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}
