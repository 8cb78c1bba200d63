package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SivanLevi100/storefront/internal/observability"
)

// Registry creates instruments backed by Prometheus vectors. Asking twice for the same
// name returns the vector registered first.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New registers vectors on reg, or on prometheus.DefaultRegisterer when reg is nil.
func New(namespace, subsystem string, reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
		namespace:  namespace,
		subsystem:  subsystem,
		reg:        reg,
	}
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	v := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(v)
	c := &counter{v: v, keys: labelKeys}
	r.counters[name] = c
	return c
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	v := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(v)
	h := &histogram{v: v, keys: labelKeys}
	r.histograms[name] = h
	return h
}

type counter struct {
	v    *prometheus.CounterVec
	keys []string
}

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.WithLabelValues(values(c.keys, labels)...).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return c.v.WithLabelValues(values(c.keys, labels)...)
}

type histogram struct {
	v    *prometheus.HistogramVec
	keys []string
}

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.WithLabelValues(values(h.keys, labels)...).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return h.v.WithLabelValues(values(h.keys, labels)...)
}

// values orders labels by the declared keys. Missing keys become "" and undeclared
// labels are dropped.
func values(keys []string, labels []observability.Label) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		for _, l := range labels {
			if l.Key == k {
				out[i] = l.Value
				break
			}
		}
	}
	return out
}
