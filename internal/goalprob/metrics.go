package goalprob

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports calculation counters to Prometheus. A nil *Metrics
// is a valid no-op receiver.
type Metrics struct {
	calculations *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "goalprob_calculations_total",
			Help: "Goal probability calculations by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "goalprob_calculation_seconds",
			Help:    "Wall time of goal probability calculations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) observeCalculation(elapsed time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
