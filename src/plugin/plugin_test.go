package plugin

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/hostapi/hostapitest"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/ppme"
)

func alwaysResolves(name string) (any, bool) { return struct{}{}, true }

func newTestPlugin(t *testing.T) *Plugin {
	t.Helper()
	reporter := metrics.NewPromMetricReporter(prometheus.NewRegistry())
	return New(reporter)
}

func basicConfig() []byte {
	return []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"rows_cols": [[5, 2048]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [9]}
			]
		}
	}`)
}

func TestInitValidConfigSucceeds(t *testing.T) {
	p := newTestPlugin(t)
	ok := p.Init(basicConfig(), alwaysResolves)
	assert.True(t, ok)
	assert.NoError(t, p.LastError())
	assert.NotEmpty(t, p.Epoch())
}

func TestInitInvalidConfigFails(t *testing.T) {
	p := newTestPlugin(t)
	ok := p.Init([]byte(`{"count_min_sketch":{"enabled":true,"n_sketches":2,"behavior_profiles":[]}}`), alwaysResolves)
	assert.False(t, ok)
	assert.Error(t, p.LastError())
}

func TestInitTableBindingFailureFails(t *testing.T) {
	p := newTestPlugin(t)
	neverResolves := func(name string) (any, bool) { return nil, false }
	ok := p.Init(basicConfig(), neverResolves)
	assert.False(t, ok)
	assert.Error(t, p.LastError())
}

func TestParseAndEstimateRoundTrip(t *testing.T) {
	p := newTestPlugin(t)
	require.True(t, p.Init(basicConfig(), alwaysResolves))

	tt := hostapitest.NewThreadTable()
	self := hostapitest.NewThreadEntry(100)
	self.ExeV = "/bin/sh"
	self.PtidV = 1
	tt.Add(self)

	var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: 100}
	for i := 0; i < 10; i++ {
		ok := p.Parse(evt, tt)
		require.True(t, ok)
	}

	est, err := p.Estimate(0, evt, tt)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), est)

	fp, err := p.Profile(0, evt, tt)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", fp)
}

func TestEstimateOutOfBounds(t *testing.T) {
	p := newTestPlugin(t)
	require.True(t, p.Init(basicConfig(), alwaysResolves))
	tt := hostapitest.NewThreadTable()
	var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: 100}
	_, err := p.Estimate(5, evt, tt)
	assert.Error(t, err)
}

func TestEstimateWhenDisabled(t *testing.T) {
	p := newTestPlugin(t)
	require.True(t, p.Init([]byte(`{"count_min_sketch":{"enabled":false}}`), alwaysResolves))
	tt := hostapitest.NewThreadTable()
	var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: 100}
	_, err := p.Estimate(0, evt, tt)
	assert.Error(t, err)
}

func TestHotReloadDrainsPriorBank(t *testing.T) {
	p := newTestPlugin(t)
	require.True(t, p.Init(basicConfig(), alwaysResolves))
	firstEpoch := p.Epoch()

	reconfigured := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 2,
			"rows_cols": [[5, 2048], [4, 1024]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [9]},
				{"fields": "%proc.name", "event_codes": [9]}
			]
		}
	}`)
	require.True(t, p.Init(reconfigured, alwaysResolves))
	assert.NotEqual(t, firstEpoch, p.Epoch())

	tt := hostapitest.NewThreadTable()
	var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: 100}
	_, err := p.Estimate(1, evt, tt)
	assert.NoError(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := newTestPlugin(t)
	require.True(t, p.Init(basicConfig(), alwaysResolves))
	p.Close()
	p.Close()
}
