package gdpr

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	requests     *prometheus.CounterVec
	filesRemoved prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_gdpr_requests_total",
			Help: "GDPR requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		filesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "learnhub_gdpr_export_files_removed_total",
			Help: "Expired export artifacts removed by cleanup",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.filesRemoved)
	}
	return m
}
