package location

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments registry builds.
type Metrics struct {
	builds    prometheus.Counter
	failures  *prometheus.CounterVec
	locations *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vroot",
			Subsystem: "registry",
			Name:      "builds_total",
			Help:      "Number of location registry builds.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vroot",
			Subsystem: "registry",
			Name:      "source_failures_total",
			Help:      "Storage sources that failed to enumerate.",
		}, []string{"source"}),
		locations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vroot",
			Subsystem: "registry",
			Name:      "locations",
			Help:      "Locations in the last built snapshot.",
		}, []string{"visibility"}),
	}
	if reg != nil {
		reg.MustRegister(m.builds, m.failures, m.locations)
	}
	return m
}

// observe records one build. hidden counts entries the hidden rules apply
// to, whether or not the build listed them.
func (m *Metrics) observe(total, hidden int, failed []string) {
	if m == nil {
		return
	}
	m.builds.Inc()
	for _, f := range failed {
		m.failures.WithLabelValues(f).Inc()
	}
	m.locations.WithLabelValues("visible").Set(float64(total - hidden))
	m.locations.WithLabelValues("hidden").Set(float64(hidden))
}
