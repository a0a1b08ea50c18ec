package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/hostapi/hostapitest"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/plugin"
	"github.com/FedeDP/plugins/src/ppme"
)

const scenarioJSON = `{
	"threads": [
		{"tid": 100, "ptid": 1, "comm": "bash", "exe": "/bin/bash"}
	],
	"events": [
		{"type": 9, "tid": 100},
		{"type": 9, "tid": 100}
	]
}`

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioJSON), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, s.Threads, 1)
	require.Len(t, s.Events, 2)
	assert.Equal(t, int64(100), s.Threads[0].Tid)
}

func TestRunReplaysEventsAgainstPlugin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(scenarioJSON), 0o644))
	s, err := LoadScenario(path)
	require.NoError(t, err)

	cfg := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"rows_cols": [[5, 2048]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [9]}
			]
		}
	}`)
	reporter := metrics.NewPromMetricReporter(prometheus.NewRegistry())
	p := plugin.New(reporter)
	alwaysBound := func(name string) (any, bool) { return struct{}{}, true }
	require.True(t, p.Init(cfg, alwaysBound))

	Run(p, s)

	tt := s.BuildThreadTable()
	var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: 100}
	est, err := p.Estimate(0, evt, tt)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), est)
}
