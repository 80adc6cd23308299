package security

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityByType = map[EventType]Severity{
	LoginSuccess:               SeverityInfo,
	PasswordChanged:            SeverityInfo,
	PasswordResetRequest:       SeverityLow,
	AdminAction:                SeverityLow,
	LoginFailed:                SeverityMedium,
	SuspiciousRequest:          SeverityMedium,
	DataExportRequest:          SeverityMedium,
	FileUploadBlocked:          SeverityMedium,
	RateLimitExceeded:          SeverityMedium,
	AccountLocked:              SeverityHigh,
	SQLInjectionAttempt:        SeverityHigh,
	XSSAttempt:                 SeverityHigh,
	BruteForceDetected:         SeverityHigh,
	UnauthorizedAccessAttempt:  SeverityHigh,
	CSRFTokenInvalid:           SeverityHigh,
	SessionHijackAttempt:       SeverityCritical,
	PrivilegeEscalationAttempt: SeverityCritical,
	DataBreachSuspected:        SeverityCritical,
}

// SeverityFor looks up the fixed severity of an event type. Unknown types
// are treated as medium.
func SeverityFor(t EventType) Severity {
	if s, ok := severityByType[t]; ok {
		return s
	}
	return SeverityMedium
}

// KnownEventType reports whether t is part of the event vocabulary.
func KnownEventType(t EventType) bool {
	_, ok := severityByType[t]
	return ok
}

func (s Severity) rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 2
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

func maxSeverity(a, b Severity) Severity {
	if a.AtLeast(b) {
		return a
	}
	return b
}

func alertLevelFor(s Severity) AlertLevel {
	switch s {
	case SeverityCritical:
		return AlertCritical
	case SeverityHigh:
		return AlertHigh
	}
	return AlertMedium
}
