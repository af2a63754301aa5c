package lambda

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records adapter invocations. A nil *Metrics is valid and records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the adapter collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viswords",
			Subsystem: "adapter",
			Name:      "invocations_total",
			Help:      "Events handled by the adapter, by response status code.",
		}, []string{"code"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viswords",
			Subsystem: "adapter",
			Name:      "failures_total",
			Help:      "Events converted into an error envelope, by failure kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "viswords",
			Subsystem: "adapter",
			Name:      "invocation_duration_seconds",
			Help:      "Time spent handling one event.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(strconv.Itoa(status)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) failure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}
