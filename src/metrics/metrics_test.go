package metrics

import (
	"errors"
	"testing"
	"time"

	stats "github.com/lyft/gostats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

// discardSink satisfies stats.Sink without touching the network, for
// exercising StatsMetricReporter in isolation from a real statsd backend.
type discardSink struct{}

func (discardSink) FlushCounter(string, uint64) {}
func (discardSink) FlushGauge(string, uint64)   {}
func (discardSink) FlushTimer(string, float64)  {}

func TestStatsReporterCreatesAndReusesCounters(t *testing.T) {
	store := stats.NewStore(discardSink{}, false)
	r := NewStatsMetricReporter(store)

	c1 := r.NewCounter("dispatch.events_parsed")
	c1.Inc()
	c1.Add(4)

	c2 := r.NewCounter("dispatch.events_parsed")
	assert.Equal(t, uint64(5), c2.Value())
}

func TestStatsReporterTimer(t *testing.T) {
	store := stats.NewStore(discardSink{}, false)
	r := NewStatsMetricReporter(store)
	timer := r.NewTimer("dispatch.parse_time_ms")
	timer.AddValue(12.5)
}

func TestPromReporterCreatesAndReusesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPromMetricReporter(reg)

	c1 := r.NewCounter("dispatch.events_parsed")
	c1.Inc()
	c1.Add(4)

	c2 := r.NewCounter("dispatch.events_parsed")
	assert.Equal(t, uint64(5), c2.Value())
}

func TestPromReporterTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPromMetricReporter(reg)
	timer := r.NewTimer("dispatch.parse_time_ms")
	timer.AddValue(12.5)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "dispatch_events_parsed", sanitizeName("dispatch.events_parsed"))
}

func TestPluginMetricsObserveParse(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPromMetricReporter(reg)
	m := NewPluginMetrics(r)

	m.ObserveParse(time.Now(), true, nil)
	assert.Equal(t, uint64(1), m.EventsParsed.Value())

	m.ObserveParse(time.Now(), false, nil)
	assert.Equal(t, uint64(1), m.EventsSkipped.Value())

	m.ObserveParse(time.Now(), false, errors.New("boom"))
	assert.Equal(t, uint64(1), m.ParseErrors.Value())
}
