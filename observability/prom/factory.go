// Package prom provides a Prometheus-backed MetricFactory for the
// observability extension.
package prom

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/passage/observability"
)

var _ observability.MetricFactory = (*Factory)(nil)

// Factory creates Prometheus counters and histograms and registers them
// with a Registerer. Metric names are normalized to Prometheus form, so
// "passage.service.created" becomes "passage_service_created".
type Factory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewFactory creates a Factory registering with reg. Pass
// prometheus.DefaultRegisterer to use the process-global registry.
func NewFactory(reg prometheus.Registerer) *Factory {
	return &Factory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements observability.MetricFactory. Repeated calls with the
// same name return the same collector.
func (f *Factory) Counter(name string) observability.Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: normalize(name),
		Help: name,
	})
	f.reg.MustRegister(c)
	f.counters[name] = c
	return c
}

// Histogram implements observability.MetricFactory.
func (f *Factory) Histogram(name string) observability.Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    normalize(name),
		Help:    name,
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})
	f.reg.MustRegister(h)
	f.histograms[name] = h
	return h
}

func normalize(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
