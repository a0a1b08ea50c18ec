// Package harness provides the settings and event-feeding loop for
// cmd/harness, a standalone CLI that drives the plugin outside of the host
// observability framework for local testing. It deliberately does not
// depend on the plugin's host-facing ABI; it talks to the same Go API the
// host would.
package harness

import (
	"time"
)

// Settings is the harness's own environment-driven configuration, read with
// kelseyhightower/envconfig the same way the host framework's own runner
// reads settings.Settings.
type Settings struct {
	ConfigPath   string        `envconfig:"CONFIG_PATH" default:"config.json"`
	EventsPath   string        `envconfig:"EVENTS_PATH" required:"true"`
	DebugPort    int           `envconfig:"DEBUG_PORT" default:"8085"`
	UseStatsd    bool          `envconfig:"USE_STATSD" default:"false"`
	StatsdHost   string        `envconfig:"STATSD_HOST" default:"localhost"`
	StatsdPort   int           `envconfig:"STATSD_PORT" default:"8125"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	ReportPeriod time.Duration `envconfig:"REPORT_PERIOD" default:"1s"`
}
