package security

import (
	"context"
	"sort"
	"time"
)

const (
	StatusCritical = "CRITICAL"
	StatusWarning  = "WARNING"
	StatusHealthy  = "HEALTHY"

	recentIncidentLimit   = 10
	topThreatLimit        = 5
	blockedWarningLimit   = 10
	reportIncidentLimit   = 10
	reportBlockedLimit    = 50
	reportLoginFailLimit  = 100
	reportSuspiciousLimit = 50
)

type EventCounts struct {
	Last24Hours map[EventType]int `json:"last24Hours"`
	Last7Days   map[EventType]int `json:"last7Days"`
}

type ThreatCount struct {
	Type  EventType `json:"type"`
	Count int       `json:"count"`
}

type SystemStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Dashboard struct {
	EventCounts     EventCounts   `json:"eventCounts"`
	ActiveIncidents int           `json:"activeIncidents"`
	BlockedIPs      int           `json:"blockedIPs"`
	RecentIncidents []Incident    `json:"recentIncidents"`
	TopThreats      []ThreatCount `json:"topThreats"`
	SystemStatus    SystemStatus  `json:"systemStatus"`
}

func (m *Monitor) Dashboard(ctx context.Context) Dashboard {
	now := m.clock.Now()
	blocked := m.blockedCount(ctx)

	m.mu.RLock()
	counts := EventCounts{
		Last24Hours: m.index.countSince(now.Add(-24*time.Hour), nil),
		Last7Days:   m.index.countSince(now.Add(-7*24*time.Hour), nil),
	}
	threats := m.index.countSince(now.Add(-24*time.Hour), func(e *Event) bool {
		return e.Severity.AtLeast(SeverityHigh)
	})
	open := m.openIncidents()
	m.mu.RUnlock()

	recent := open
	if len(recent) > recentIncidentLimit {
		recent = recent[:recentIncidentLimit]
	}

	return Dashboard{
		EventCounts:     counts,
		ActiveIncidents: len(open),
		BlockedIPs:      blocked,
		RecentIncidents: recent,
		TopThreats:      topThreats(threats, topThreatLimit),
		SystemStatus:    systemStatus(open, blocked),
	}
}

// openIncidents returns copies of the open incidents, newest first. Callers
// hold mu.
func (m *Monitor) openIncidents() []Incident {
	out := []Incident{}
	for _, inc := range m.incidents {
		if inc.Status == IncidentOpen {
			out = append(out, inc.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Monitor) blockedCount(ctx context.Context) int {
	blocks, err := m.blocks.List(ctx)
	if err != nil {
		m.log.WithError(err).Error("failed to list blocked identities")
		return 0
	}
	m.metrics.blocked.Set(float64(len(blocks)))
	return len(blocks)
}

func topThreats(counts map[EventType]int, limit int) []ThreatCount {
	out := make([]ThreatCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, ThreatCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func systemStatus(open []Incident, blocked int) SystemStatus {
	var critical, high bool
	for _, inc := range open {
		switch inc.Severity {
		case SeverityCritical:
			critical = true
		case SeverityHigh:
			high = true
		}
	}
	switch {
	case critical:
		return SystemStatus{Status: StatusCritical, Message: "Critical security incidents require immediate attention"}
	case high || blocked > blockedWarningLimit:
		return SystemStatus{Status: StatusWarning, Message: "Elevated security activity detected"}
	}
	return SystemStatus{Status: StatusHealthy, Message: "All security systems operating normally"}
}

// ReportPeriod is the requested window. CoveredFrom is where event counts
// actually start; it is later than From when days exceeds the retention.
type ReportPeriod struct {
	Days        int       `json:"days"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	CoveredFrom time.Time `json:"coveredFrom"`
}

type IncidentSummary struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Subject   string    `json:"subject,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Recommendation struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type Report struct {
	Period          ReportPeriod      `json:"period"`
	EventCounts     map[EventType]int `json:"eventCounts"`
	TotalEvents     int               `json:"totalEvents"`
	Incidents       []IncidentSummary `json:"incidents"`
	BlockedIPs      int               `json:"blockedIPs"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// Report summarises activity over the last days. Event counts come from the
// in-memory index, so they cover at most the retention window.
func (m *Monitor) Report(ctx context.Context, days int) Report {
	if days <= 0 {
		days = 7
	}
	now := m.clock.Now()
	from := now.AddDate(0, 0, -days)
	covered := from
	if oldest := now.Add(-m.cfg.Retention); covered.Before(oldest) {
		covered = oldest
	}
	blocked := m.blockedCount(ctx)

	m.mu.RLock()
	counts := m.index.countSince(from, nil)
	summaries := []IncidentSummary{}
	for _, inc := range m.openIncidents() {
		if inc.CreatedAt.Before(from) {
			continue
		}
		summaries = append(summaries, IncidentSummary{
			ID:        inc.ID,
			Type:      inc.Type,
			Severity:  inc.Severity,
			Subject:   inc.Subject,
			CreatedAt: inc.CreatedAt,
		})
	}
	m.mu.RUnlock()

	total := 0
	for _, n := range counts {
		total += n
	}

	return Report{
		Period:          ReportPeriod{Days: days, From: from, To: now, CoveredFrom: covered},
		EventCounts:     counts,
		TotalEvents:     total,
		Incidents:       summaries,
		BlockedIPs:      blocked,
		Recommendations: recommendations(counts, len(summaries), blocked),
	}
}

func recommendations(counts map[EventType]int, incidents, blocked int) []Recommendation {
	out := []Recommendation{}
	if incidents > reportIncidentLimit {
		out = append(out, Recommendation{
			Priority: "high",
			Category: "policy",
			Message:  "High number of security incidents. Review and tighten security policies.",
		})
	}
	if blocked > reportBlockedLimit {
		out = append(out, Recommendation{
			Priority: "medium",
			Category: "network",
			Message:  "Many blocked IP addresses. Consider geo-restrictions or IP reputation filtering.",
		})
	}
	if counts[LoginFailed] > reportLoginFailLimit {
		out = append(out, Recommendation{
			Priority: "medium",
			Category: "authentication",
			Message:  "High number of failed logins. Enable CAPTCHA on the login form.",
		})
	}
	if counts[SuspiciousRequest] > reportSuspiciousLimit {
		out = append(out, Recommendation{
			Priority: "medium",
			Category: "firewall",
			Message:  "Many suspicious requests. Add web application firewall rules.",
		})
	}
	return out
}
