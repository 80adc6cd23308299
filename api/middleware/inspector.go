package middleware

import (
	"net/url"
	"regexp"

	"learnhub/internal/security"

	"github.com/labstack/echo/v4"
)

var (
	sqlInjectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bunion\b.+\bselect\b`),
		regexp.MustCompile(`(?i)\b(select|insert|delete)\b.+\b(from|into)\b`),
		regexp.MustCompile(`(?i);\s*(drop|alter|truncate)\s+table\b`),
		regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
		regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+`),
		regexp.MustCompile(`(?i)\b(sleep|benchmark|pg_sleep)\s*\(`),
	}
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)\bon(error|load|mouseover|focus)\s*=`),
		regexp.MustCompile(`(?i)<\s*iframe\b`),
		regexp.MustCompile(`(?i)document\.cookie`),
	}
	pathTraversalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`\.\.\\`),
		regexp.MustCompile(`(?i)%2e%2e(%2f|%5c)`),
		regexp.MustCompile(`(?i)/etc/passwd`),
		regexp.MustCompile(`(?i)/windows/system32`),
	}
)

// Finding is one attack signature matched in a request.
type Finding struct {
	Type   security.EventType
	Reason string
}

// Inspect matches the request path and query against known attack
// signatures. At most one finding per category is returned.
func Inspect(rawPath, rawQuery string) []Finding {
	targets := []string{rawPath, rawQuery}
	if decoded, err := url.PathUnescape(rawPath); err == nil && decoded != rawPath {
		targets = append(targets, decoded)
	}
	if decoded, err := url.QueryUnescape(rawQuery); err == nil && decoded != rawQuery {
		targets = append(targets, decoded)
	}

	var findings []Finding
	if matchAny(sqlInjectionPatterns, targets) {
		findings = append(findings, Finding{Type: security.SQLInjectionAttempt, Reason: "sql_injection"})
	}
	if matchAny(xssPatterns, targets) {
		findings = append(findings, Finding{Type: security.XSSAttempt, Reason: "xss"})
	}
	if matchAny(pathTraversalPatterns, targets) {
		findings = append(findings, Finding{Type: security.SuspiciousRequest, Reason: "path_traversal"})
	}
	return findings
}

func matchAny(patterns []*regexp.Regexp, targets []string) bool {
	for _, target := range targets {
		if target == "" {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(target) {
				return true
			}
		}
	}
	return false
}

// RequestInspector reports requests carrying attack signatures. It only
// observes; BlockGuard does the enforcing once the monitor blocks the source.
func RequestInspector(events security.EventSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rawPath := req.URL.EscapedPath()
			for _, f := range Inspect(rawPath, req.URL.RawQuery) {
				details := requestDetails(c)
				details.Reason = f.Reason
				details.Extra = map[string]any{"query": req.URL.RawQuery}
				emit(c, events, f.Type, details)
			}
			return next(c)
		}
	}
}
