package security

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	events    *prometheus.CounterVec
	incidents *prometheus.CounterVec
	alerts    *prometheus.CounterVec
	blocked   prometheus.Gauge
}

// NewMetrics builds the monitor's collectors and registers them on reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_security_events_total",
			Help: "Security events ingested",
		}, []string{"type", "severity"}),
		incidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_security_incidents_total",
			Help: "Security incidents raised",
		}, []string{"type", "severity"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_security_alerts_total",
			Help: "Security alerts emitted",
		}, []string{"level"}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "learnhub_security_blocked_identities",
			Help: "Identities currently blocked",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.incidents, m.alerts, m.blocked)
	}
	return m
}
