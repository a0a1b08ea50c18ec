// Package metrics defines the small Counter/Timer abstraction the plugin
// reports through, plus two concrete reporters: one backed by lyft/gostats
// (matching the host framework's own stats pipeline) and one backed by
// Prometheus client_golang (for the debug HTTP surface's /metrics route).
package metrics

import (
	"sync"

	stats "github.com/lyft/gostats"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricReporter is the reporting backend the rest of the plugin depends on.
type MetricReporter interface {
	NewCounter(name string) Counter
	NewTimer(name string) Timer
}

// A Counter is an always incrementing stat.
type Counter interface {
	// Add increments the Counter by the argument's value.
	Add(uint64)

	// Inc increments the Counter by 1.
	Inc()

	// Value returns the current value of the Counter as a uint64.
	Value() uint64
}

// A Timer is used to flush timing statistics.
type Timer interface {
	// AddValue flushs the timer with the argument's value.
	AddValue(float64)
}

// StatsMetricReporter reports through a lyft/gostats scope, the same
// reporting path the host framework's own components use.
type StatsMetricReporter struct {
	scope stats.Scope
}

// NewStatsMetricReporter wraps scope as a MetricReporter.
func NewStatsMetricReporter(scope stats.Scope) *StatsMetricReporter {
	return &StatsMetricReporter{scope: scope}
}

func (s StatsMetricReporter) NewCounter(name string) Counter {
	return s.scope.NewCounter(name)
}

func (s StatsMetricReporter) NewTimer(name string) Timer {
	return s.scope.NewTimer(name)
}

// PromMetricReporter reports through Prometheus client_golang, registered
// against a caller-supplied registry so the debug HTTP server can expose it.
type PromMetricReporter struct {
	registry *prometheus.Registry
	mu       sync.Mutex
	counters map[string]*promCounter
	timers   map[string]*promTimer
}

// NewPromMetricReporter builds a PromMetricReporter registering all created
// metrics against registry.
func NewPromMetricReporter(registry *prometheus.Registry) *PromMetricReporter {
	return &PromMetricReporter{
		registry: registry,
		counters: make(map[string]*promCounter),
		timers:   make(map[string]*promTimer),
	}
}

func (p *PromMetricReporter) NewCounter(name string) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c
	}
	vec := prometheus.NewCounter(prometheus.CounterOpts{
		Name: sanitizeName(name),
		Help: "anomaly plugin counter " + name,
	})
	p.registry.MustRegister(vec)
	c := &promCounter{c: vec}
	p.counters[name] = c
	return c
}

func (p *PromMetricReporter) NewTimer(name string) Timer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[name]; ok {
		return t
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: sanitizeName(name),
		Help: "anomaly plugin timer " + name,
	})
	p.registry.MustRegister(h)
	t := &promTimer{h: h}
	p.timers[name] = t
	return t
}

type promCounter struct {
	c prometheus.Counter
	v uint64
}

func (p *promCounter) Add(delta uint64) {
	p.v += delta
	p.c.Add(float64(delta))
}

func (p *promCounter) Inc() {
	p.v++
	p.c.Inc()
}

func (p *promCounter) Value() uint64 { return p.v }

type promTimer struct {
	h prometheus.Histogram
}

func (p *promTimer) AddValue(v float64) { p.h.Observe(v) }

// sanitizeName rewrites the dotted metric names the rest of the plugin uses
// (e.g. "dispatch.events_parsed") into the underscore form Prometheus
// requires.
func sanitizeName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' || c == '-' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return string(out)
}
