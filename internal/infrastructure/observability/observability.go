package observability

import (
	"github.com/SivanLevi100/storefront/internal/observability"
)

// Provider hands one tracer, one base logger and the registered instruments to every
// component. Instruments that were never registered resolve to no-ops, so a component
// asking for a metric the process does not export keeps working.
type Provider struct {
	tracer     observability.Tracer
	logger     observability.Logger
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// New builds a Provider. Nil arguments fall back to no-op implementations.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) *Provider {
	p := &Provider{
		tracer:     observability.NopTracer(),
		logger:     observability.NopLogger(),
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	if tracer != nil {
		p.tracer = tracer
	}
	if logger != nil {
		p.logger = logger
	}
	for k, c := range counters {
		if c != nil {
			p.counters[k] = c
		}
	}
	for k, h := range histograms {
		if h != nil {
			p.histograms[k] = h
		}
	}
	return p
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p }

func (p *Provider) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := p.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (p *Provider) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := p.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}
