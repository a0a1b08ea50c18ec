// Command harness drives the anomaly plugin against a synthetic scenario
// file for local testing, outside of the host observability framework.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	stats "github.com/lyft/gostats"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/debugserver"
	"github.com/FedeDP/plugins/src/harness"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/plugin"
)

func main() {
	var s harness.Settings
	if err := envconfig.Process("ANOMALY_HARNESS", &s); err != nil {
		fmt.Fprintln(os.Stderr, "harness: bad settings:", err)
		os.Exit(1)
	}

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	configRaw, err := os.ReadFile(s.ConfigPath)
	if err != nil {
		log.Fatalf("harness: reading config: %v", err)
	}

	scenario, err := harness.LoadScenario(s.EventsPath)
	if err != nil {
		log.Fatalf("harness: %v", err)
	}

	registry := prometheus.NewRegistry()
	reporter := newReporter(s, registry)
	p := plugin.New(reporter)

	alwaysBound := func(name string) (any, bool) { return struct{}{}, true }
	if !p.Init(configRaw, alwaysBound) {
		log.Fatalf("harness: plugin init failed: %v", p.LastError())
	}
	defer p.Close()

	debug := debugserver.New(fmt.Sprintf(":%d", s.DebugPort), registry, p.Bank())
	debug.Start()
	defer debug.Stop()

	harness.Run(p, scenario)
}

// newReporter picks the lyft/gostats reporter when the harness is run with
// ANOMALY_HARNESS_USE_STATSD=true, matching the host framework's own
// statsd-backed reporting path; otherwise it falls back to the Prometheus
// reporter the debug server's /metrics route scrapes.
func newReporter(s harness.Settings, registry *prometheus.Registry) metrics.MetricReporter {
	if !s.UseStatsd {
		return metrics.NewPromMetricReporter(registry)
	}
	sink := stats.NewTCPStatsdSink(stats.WithStatsdHost(s.StatsdHost), stats.WithStatsdPort(s.StatsdPort))
	store := stats.NewStore(sink, true)
	go store.Start(time.NewTicker(s.ReportPeriod))
	return metrics.NewStatsMetricReporter(store)
}
