package metrics

import "time"

// PluginMetrics bundles the counters and timers the dispatch and extract
// paths report through, grouped the way the host framework's own
// ServerReporter groups per-call metrics.
type PluginMetrics struct {
	EventsParsed    Counter
	EventsSkipped   Counter
	ParseErrors     Counter
	SketchUpdates   Counter
	ExtractRequests Counter
	ExtractErrors   Counter
	ParseTime       Timer
}

// NewPluginMetrics builds a PluginMetrics from reporter, creating one
// named counter or timer per field.
func NewPluginMetrics(reporter MetricReporter) *PluginMetrics {
	return &PluginMetrics{
		EventsParsed:    reporter.NewCounter("dispatch.events_parsed"),
		EventsSkipped:   reporter.NewCounter("dispatch.events_skipped"),
		ParseErrors:     reporter.NewCounter("dispatch.parse_errors"),
		SketchUpdates:   reporter.NewCounter("dispatch.sketch_updates"),
		ExtractRequests: reporter.NewCounter("extract.requests"),
		ExtractErrors:   reporter.NewCounter("extract.errors"),
		ParseTime:       reporter.NewTimer("dispatch.parse_time_ms"),
	}
}

// ObserveParse records one Parse call's outcome and wall-clock cost.
func (m *PluginMetrics) ObserveParse(start time.Time, ok bool, err error) {
	m.ParseTime.AddValue(float64(time.Since(start).Milliseconds()))
	if err != nil {
		m.ParseErrors.Inc()
		return
	}
	if ok {
		m.EventsParsed.Inc()
	} else {
		m.EventsSkipped.Inc()
	}
}
