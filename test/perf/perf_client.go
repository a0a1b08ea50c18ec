// Command perf_client replays a configurable number of events through the
// dispatch loop in-process, as fast as it can, and reports throughput and
// latency percentiles, the same role
// the teacher's test/perf/perf_client.go plays against a live gRPC server,
// adapted here to call the plugin's Parse method directly instead of
// issuing network RPCs.
package main

import (
	"flag"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/hostapi/hostapitest"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/plugin"
	"github.com/FedeDP/plugins/src/ppme"
)

// latencyStats accumulates per-call durations for percentile reporting,
// mirroring the teacher's LatencyStats.
type latencyStats struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (ls *latencyStats) add(d time.Duration) {
	ls.mu.Lock()
	ls.latencies = append(ls.latencies, d)
	ls.mu.Unlock()
}

func (ls *latencyStats) percentiles() map[string]time.Duration {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if len(ls.latencies) == 0 {
		return nil
	}
	sorted := make([]time.Duration, len(ls.latencies))
	copy(sorted, ls.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pick := func(q float64) time.Duration {
		idx := int(q * float64(len(sorted)-1))
		return sorted[idx]
	}
	return map[string]time.Duration{
		"min": sorted[0],
		"p50": pick(0.50),
		"p90": pick(0.90),
		"p99": pick(0.99),
		"max": sorted[len(sorted)-1],
	}
}

func main() {
	tids := flag.Int("tids", 100, "number of distinct thread ids to simulate")
	events := flag.Int("events", 100000, "total number of events to replay")
	sketches := flag.Int("sketches", 1, "number of sketches to configure")
	flag.Parse()

	reporter := metrics.NewPromMetricReporter(prometheus.NewRegistry())
	p := plugin.New(reporter)
	cfg := buildConfig(*sketches)
	alwaysBound := func(name string) (any, bool) { return struct{}{}, true }
	if !p.Init(cfg, alwaysBound) {
		fmt.Println("init failed:", p.LastError())
		return
	}
	defer p.Close()

	tt := hostapitest.NewThreadTable()
	for tid := int64(1); tid <= int64(*tids); tid++ {
		e := hostapitest.NewThreadEntry(tid)
		e.ExeV = fmt.Sprintf("/usr/bin/app-%d", tid%10)
		e.PtidV = 1
		tt.Add(e)
	}

	stats := &latencyStats{}
	start := time.Now()
	for i := 0; i < *events; i++ {
		tid := int64(i%(*tids)) + 1
		var evt hostapi.Event = hostapitest.Event{TypeV: ppme.Execve, TidV: tid}
		callStart := time.Now()
		p.Parse(evt, tt)
		stats.add(time.Since(callStart))
	}
	elapsed := time.Since(start)

	fmt.Printf("replayed %d events across %d thread ids in %s (%.0f events/sec)\n",
		*events, *tids, elapsed, float64(*events)/elapsed.Seconds())
	for name, d := range stats.percentiles() {
		fmt.Printf("  %s: %s\n", name, d)
	}
}

func buildConfig(n int) []byte {
	profiles := ""
	rowsCols := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			profiles += ","
			rowsCols += ","
		}
		profiles += `{"fields": "%proc.exe", "event_codes": [9]}`
		rowsCols += `[5, 8192]`
	}
	return []byte(fmt.Sprintf(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": %d,
			"rows_cols": [%s],
			"behavior_profiles": [%s]
		}
	}`, n, rowsCols, profiles))
}
