package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"learnhub/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrIncidentNotFound        = errors.New("incident not found")
	ErrIncidentAlreadyResolved = errors.New("incident already resolved")
)

// Monitor is the security monitoring engine. A single instance owns the
// recency index, the incident set and the blocklist for the process.
type Monitor struct {
	cfg       Config
	log       logrus.FieldLogger
	journal   Journal
	blocks    BlockList
	notifiers []Notifier
	metrics   *Metrics
	clock     utils.Clock
	rules     []Rule

	mu        sync.RWMutex
	index     *eventIndex
	incidents map[string]*Incident

	inflight sync.WaitGroup
}

type Option func(*Monitor)

func WithBlockList(b BlockList) Option {
	return func(m *Monitor) { m.blocks = b }
}

func WithNotifiers(n ...Notifier) Option {
	return func(m *Monitor) { m.notifiers = append(m.notifiers, n...) }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

func WithClock(c utils.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func NewMonitor(cfg Config, journal Journal, log logrus.FieldLogger, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:       cfg.withDefaults(),
		log:       log,
		journal:   journal,
		clock:     utils.RealClock{},
		index:     newEventIndex(),
		incidents: make(map[string]*Incident),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.blocks == nil {
		m.blocks = NewMemoryBlockList(m.clock)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	m.rules = defaultRules(m.cfg.Thresholds)
	return m
}

// LogEvent records a security event and runs detection on it. It never
// panics and callers on the request path may ignore the error: a failed
// durable append returns an empty id, but the event is still indexed and
// analysed.
func (m *Monitor) LogEvent(ctx context.Context, typ EventType, details Details) (string, error) {
	event := &Event{
		ID:        uuid.NewString(),
		Timestamp: m.clock.Now(),
		Type:      typ,
		Severity:  SeverityFor(typ),
		Details:   details,
	}
	m.metrics.events.WithLabelValues(string(event.Type), string(event.Severity)).Inc()

	m.mu.Lock()
	m.index.add(event)
	snapshot := *event
	m.mu.Unlock()

	var persistErr error
	if m.journal != nil {
		if err := m.journal.AppendEvent(snapshot); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"event_type": typ,
				"ip":         details.IP,
			}).Error("failed to persist security event")
			persistErr = fmt.Errorf("persist security event: %w", err)
		}
	}

	m.analyze(ctx, event)

	m.mu.Lock()
	event.Processed = true
	m.mu.Unlock()

	if persistErr != nil {
		return "", persistErr
	}
	return event.ID, nil
}

func (m *Monitor) analyze(ctx context.Context, event *Event) {
	if event.Severity == SeverityCritical {
		m.raise(ctx, detection{
			incidentType: string(event.Type),
			severity:     event.Severity,
			subject:      event.Details.IP,
			title:        fmt.Sprintf("Critical security event: %s", event.Type),
			details: map[string]any{
				"eventId": event.ID,
				"event":   event.Details,
			},
			eventIDs: []string{event.ID},
		})
		return
	}

	for i := range m.rules {
		rule := &m.rules[i]
		if rule.Trigger != event.Type {
			continue
		}
		identity := rule.key(event.Details)
		if identity == "" {
			continue
		}
		if rule.Block && m.IsBlocked(ctx, identity) {
			continue
		}

		now := m.clock.Now()
		m.mu.RLock()
		window := m.index.window(rule.Trigger, rule.key, identity, now, rule.Threshold.Window)
		duplicate := !rule.Block && m.hasOpenIncident(rule.Incident, identity)
		m.mu.RUnlock()
		if len(window) < rule.Threshold.Limit || duplicate {
			continue
		}

		if rule.Block {
			m.block(ctx, identity, rule.Name)
		}
		m.raise(ctx, detection{
			incidentType: rule.Incident,
			severity:     maxSeverity(rule.Severity, event.Severity),
			subject:      identity,
			title:        rule.title(identity),
			details:      rule.summarize(identity, window),
			eventIDs:     eventIDs(window),
		})
	}
}

// hasOpenIncident must be called with mu held.
func (m *Monitor) hasOpenIncident(incidentType, subject string) bool {
	for _, inc := range m.incidents {
		if inc.Status == IncidentOpen && inc.Type == incidentType && inc.Subject == subject {
			return true
		}
	}
	return false
}

type detection struct {
	incidentType string
	severity     Severity
	subject      string
	title        string
	details      map[string]any
	eventIDs     []string
}

func (m *Monitor) raise(ctx context.Context, d detection) {
	incident := &Incident{
		ID:        uuid.NewString(),
		CreatedAt: m.clock.Now(),
		Type:      d.incidentType,
		Severity:  d.severity,
		Status:    IncidentOpen,
		Subject:   d.subject,
		Details:   d.details,
		EventIDs:  d.eventIDs,
	}

	m.mu.Lock()
	m.incidents[incident.ID] = incident
	snapshot := incident.clone()
	m.mu.Unlock()

	m.metrics.incidents.WithLabelValues(incident.Type, string(incident.Severity)).Inc()
	m.log.WithFields(logrus.Fields{
		"incident_id":   incident.ID,
		"incident_type": incident.Type,
		"severity":      incident.Severity,
		"subject":       incident.Subject,
	}).Warn("security incident created")

	if m.journal != nil {
		if err := m.journal.SaveIncident(snapshot); err != nil {
			m.log.WithError(err).WithField("incident_id", incident.ID).Error("failed to persist security incident")
		}
	}

	m.alert(ctx, Alert{
		ID:         uuid.NewString(),
		Timestamp:  incident.CreatedAt,
		Title:      d.title,
		Level:      alertLevelFor(incident.Severity),
		IncidentID: incident.ID,
		Details:    d.details,
	})
}

func (m *Monitor) alert(ctx context.Context, alert Alert) {
	m.metrics.alerts.WithLabelValues(string(alert.Level)).Inc()
	if m.journal != nil {
		if err := m.journal.AppendAlert(alert); err != nil {
			m.log.WithError(err).WithField("alert_id", alert.ID).Error("failed to persist security alert")
		}
	}
	if len(m.notifiers) == 0 {
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.NotifyTimeout)
		defer cancel()
		for _, n := range m.notifiers {
			if err := n.Notify(notifyCtx, alert); err != nil {
				m.log.WithError(err).WithField("alert_id", alert.ID).Warn("alert notification failed")
			}
		}
	}()
}

func (m *Monitor) block(ctx context.Context, ip, reason string) {
	now := m.clock.Now()
	b := Block{IP: ip, Reason: reason, BlockedAt: now}
	if m.cfg.BlockTTL > 0 {
		expires := now.Add(m.cfg.BlockTTL)
		b.ExpiresAt = &expires
	}
	added, err := m.blocks.Add(ctx, b)
	if err != nil {
		m.log.WithError(err).WithField("ip", ip).Error("failed to block identity")
		return
	}
	if added {
		m.metrics.blocked.Inc()
		m.log.WithFields(logrus.Fields{"ip": ip, "reason": reason}).Warn("identity blocked")
	}
}

// IsBlocked reports whether ip is under an active block. Blocklist failures
// fail open.
func (m *Monitor) IsBlocked(ctx context.Context, ip string) bool {
	if ip == "" {
		return false
	}
	blocked, err := m.blocks.IsBlocked(ctx, ip)
	if err != nil {
		m.log.WithError(err).WithField("ip", ip).Error("failed to check blocklist")
		return false
	}
	return blocked
}

// Unblock removes ip from the blocklist. Unblocking an identity that is not
// blocked is a no-op.
func (m *Monitor) Unblock(ctx context.Context, ip string) error {
	blocked := m.IsBlocked(ctx, ip)
	if err := m.blocks.Remove(ctx, ip); err != nil {
		return fmt.Errorf("unblock %s: %w", ip, err)
	}
	if blocked {
		m.metrics.blocked.Dec()
		m.log.WithField("ip", ip).Info("identity unblocked")
	}
	return nil
}

func (m *Monitor) BlockedIdentities(ctx context.Context) ([]Block, error) {
	return m.blocks.List(ctx)
}

func (m *Monitor) Incident(id string) (Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inc, ok := m.incidents[id]
	if !ok {
		return Incident{}, ErrIncidentNotFound
	}
	return inc.clone(), nil
}

func (m *Monitor) ResolveIncident(ctx context.Context, id, resolution, resolvedBy string) (Incident, error) {
	m.mu.Lock()
	inc, ok := m.incidents[id]
	if !ok {
		m.mu.Unlock()
		return Incident{}, ErrIncidentNotFound
	}
	if inc.Status == IncidentResolved {
		m.mu.Unlock()
		return Incident{}, ErrIncidentAlreadyResolved
	}
	inc.Status = IncidentResolved
	inc.Resolution = &Resolution{
		Text:       resolution,
		ResolvedBy: resolvedBy,
		ResolvedAt: m.clock.Now(),
	}
	snapshot := inc.clone()
	m.mu.Unlock()

	if m.journal != nil {
		if err := m.journal.SaveIncident(snapshot); err != nil {
			m.log.WithError(err).WithField("incident_id", id).Error("failed to persist incident resolution")
		}
	}
	m.log.WithFields(logrus.Fields{"incident_id": id, "resolved_by": resolvedBy}).Info("security incident resolved")
	return snapshot, nil
}

// Sweep evicts events older than the retention window from memory.
func (m *Monitor) Sweep() int {
	cutoff := m.clock.Now().Add(-m.cfg.Retention)
	m.mu.Lock()
	removed := m.index.evictBefore(cutoff)
	m.mu.Unlock()
	if removed > 0 {
		m.log.WithField("removed", removed).Debug("evicted expired security events")
	}
	return removed
}

// Run sweeps on every SweepInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close waits for in-flight alert notifications.
func (m *Monitor) Close() {
	m.inflight.Wait()
}
