package simcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports cache counters to Prometheus. A nil *Metrics is a
// valid no-op receiver, so wiring metrics stays optional.
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

// NewMetrics registers the cache metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "simcache_hits_total",
			Help: "Number of simulation cache hits.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "simcache_misses_total",
			Help: "Number of simulation cache misses.",
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "simcache_evictions_total",
			Help: "Number of entries evicted from the simulation cache.",
		}),
		size: factory.NewGauge(prometheus.GaugeOpts{
			Name: "simcache_entries",
			Help: "Current number of entries in the simulation cache.",
		}),
	}
}

func (m *Metrics) incHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) incMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) incEviction() {
	if m != nil {
		m.evictions.Inc()
	}
}

func (m *Metrics) setSize(n int) {
	if m != nil {
		m.size.Set(float64(n))
	}
}
