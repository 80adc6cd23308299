package security

import (
	"fmt"
	"sort"
	"time"
)

type keyFunc func(Details) string

func byIP(d Details) string   { return d.IP }
func byUser(d Details) string { return d.UserID }

// Rule counts events of one type per identity over a trailing window and
// fires once the count reaches the threshold.
type Rule struct {
	Name      string
	Trigger   EventType
	Threshold Threshold
	Incident  string
	Severity  Severity

	// Block adds the identity to the blocklist when the rule fires.
	Block bool

	key       keyFunc
	title     func(identity string) string
	summarize func(identity string, window []*Event) map[string]any
}

func defaultRules(t Thresholds) []Rule {
	return []Rule{
		{
			Name:      "brute_force",
			Trigger:   LoginFailed,
			Threshold: t.BruteForce,
			Incident:  IncidentBruteForce,
			Severity:  SeverityHigh,
			Block:     true,
			key:       byIP,
			title: func(ip string) string {
				return fmt.Sprintf("Brute force attack detected from %s", ip)
			},
			summarize: func(ip string, window []*Event) map[string]any {
				return map[string]any{
					"ip":            ip,
					"attempts":      len(window),
					"timeSpan":      span(window).String(),
					"timeSpanSecs":  int64(span(window).Seconds()),
					"affectedUsers": distinct(window, affectedUser),
				}
			},
		},
		{
			Name:      "suspicious_activity",
			Trigger:   SuspiciousRequest,
			Threshold: t.Suspicious,
			Incident:  IncidentSuspiciousActivity,
			Severity:  SeverityMedium,
			Block:     true,
			key:       byIP,
			title: func(ip string) string {
				return fmt.Sprintf("Suspicious activity from %s", ip)
			},
			summarize: func(ip string, window []*Event) map[string]any {
				return map[string]any{
					"ip":           ip,
					"requestCount": len(window),
					"patterns":     distinct(window, requestPattern),
				}
			},
		},
		{
			Name:      "data_export_anomaly",
			Trigger:   DataExportRequest,
			Threshold: t.DataExport,
			Incident:  IncidentDataExportAnomaly,
			Severity:  SeverityMedium,
			key:       byUser,
			title: func(user string) string {
				return fmt.Sprintf("Unusual number of data exports by user %s", user)
			},
			summarize: func(user string, window []*Event) map[string]any {
				return map[string]any{
					"userId":      user,
					"exportCount": len(window),
					"timeframe":   t.DataExport.Window.String(),
				}
			},
		},
		{
			Name:      "admin_action_anomaly",
			Trigger:   AdminAction,
			Threshold: t.AdminAction,
			Incident:  IncidentAdminActionAnomaly,
			Severity:  SeverityMedium,
			key:       byUser,
			title: func(user string) string {
				return fmt.Sprintf("Unusual admin activity by user %s", user)
			},
			summarize: func(user string, window []*Event) map[string]any {
				return map[string]any{
					"userId":      user,
					"actionCount": len(window),
					"actions":     distinct(window, func(e *Event) string { return e.Details.Reason }),
					"timeframe":   t.AdminAction.Window.String(),
				}
			},
		},
	}
}

func span(window []*Event) time.Duration {
	if len(window) < 2 {
		return 0
	}
	return window[len(window)-1].Timestamp.Sub(window[0].Timestamp)
}

func affectedUser(e *Event) string {
	if e.Details.UserID != "" {
		return e.Details.UserID
	}
	return e.Details.Email
}

func requestPattern(e *Event) string {
	if e.Details.Reason != "" {
		return e.Details.Reason
	}
	return e.Details.Path
}

// distinct collects the non-empty values of field across window, sorted.
func distinct(window []*Event, field func(*Event) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range window {
		v := field(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func eventIDs(window []*Event) []string {
	ids := make([]string, 0, len(window))
	for _, e := range window {
		ids = append(ids, e.ID)
	}
	return ids
}
