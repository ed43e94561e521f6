package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus collectors of a Client.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// newMetrics creates the collectors. A nil registerer leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netmagis_ui",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total number of backend requests by resource and outcome",
		}, []string{"resource", "outcome"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netmagis_ui",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Backend request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
	}
}

func (m *metrics) observe(resource, outcome string, d time.Duration) {
	m.requestsTotal.WithLabelValues(resource, outcome).Inc()
	m.requestDuration.WithLabelValues(resource).Observe(d.Seconds())
}
