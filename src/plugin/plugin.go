// Package plugin wires the configuration validator, sketch bank, dispatch
// loop, and extract capability into the single object the host embeds:
// Init/Parse/Extract/Close, plus the LastError and Epoch accessors the
// surrounding harness and debug surface use.
package plugin

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/cms"
	"github.com/FedeDP/plugins/src/config"
	"github.com/FedeDP/plugins/src/dispatch"
	"github.com/FedeDP/plugins/src/errs"
	"github.com/FedeDP/plugins/src/fingerprint"
	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/metrics"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/profile"
	"github.com/FedeDP/plugins/src/sketchbank"
)

// fdCacheSize bounds the fingerprint path-resolution cache; its TTL tracks
// the shortest configured reset period, falling back to defaultFdCacheTTL
// when every sketch disables reset. The cache expires entries in whole
// seconds, so the period is truncated to seconds with a one-second minimum.
const (
	fdCacheSize       = 1 << 20 // 1 MiB
	defaultFdCacheTTL = 10 * time.Second
)

// Plugin is the anomaly detection core's single entry point.
type Plugin struct {
	mu      sync.RWMutex
	enabled bool
	bank    *sketchbank.Bank
	cache   *fingerprint.PathCache
	metrics *metrics.PluginMetrics

	epoch     string
	lastError error
	startedAt uint64 // /proc/self/cmdline ctime, nanoseconds since epoch
}

// New constructs an unconfigured Plugin; Init must be called before Parse
// or Extract are used.
func New(reporter metrics.MetricReporter) *Plugin {
	p := &Plugin{
		metrics: metrics.NewPluginMetrics(reporter),
	}
	p.startedAt = cmdlineCtimeNs()
	return p
}

// Init parses and validates raw JSON config, builds a fresh sketch bank
// (destroying and replacing any prior one), and stamps a new hot-reload
// epoch. It may be called more than once; the previous bank's reset workers
// are fully drained before the new bank's workers are spawned.
func (p *Plugin) Init(raw []byte, resolve hostapi.FieldResolver) bool {
	cfg, err := config.Parse(raw)
	if err != nil {
		p.setLastError(err)
		return false
	}

	if _, err := hostapi.ResolveFields(resolve, requiredFieldNames); err != nil {
		p.setLastError(err)
		return false
	}

	p.mu.Lock()
	oldBank := p.bank
	p.bank = nil
	p.enabled = false
	p.mu.Unlock()

	if oldBank != nil {
		oldBank.ClearAll()
	}

	var newBank *sketchbank.Bank
	if cfg.CountMinSketch.Enabled {
		newBank, err = buildBank(cfg)
		if err != nil {
			p.setLastError(err)
			return false
		}
	}

	p.mu.Lock()
	p.bank = newBank
	p.enabled = cfg.CountMinSketch.Enabled
	p.cache = fingerprint.NewPathCache(fdCacheSize, pathCacheTTL(cfg))
	p.epoch = newEpoch()
	p.mu.Unlock()
	return true
}

// requiredFieldNames are the host thread-table fields resolved (with retry)
// at init, per spec §6's list of host interfaces consumed.
var requiredFieldNames = []string{
	"thread.tid", "thread.comm", "thread.exe", "thread.args", "thread.env",
	"thread.file_descriptors",
}

func buildBank(cfg *config.Config) (*sketchbank.Bank, error) {
	cmsCfg := cfg.CountMinSketch
	entries := make([]*sketchbank.Entry, 0, cmsCfg.NSketches)
	for i, bp := range cmsCfg.BehaviorProfiles {
		sketch, err := buildSketch(cfg, i)
		if err != nil {
			return nil, err
		}
		codes := make(map[ppme.Code]struct{}, len(bp.EventCodes))
		for _, c := range bp.EventCodes {
			codes[ppme.Code(c)] = struct{}{}
		}
		entries = append(entries, &sketchbank.Entry{
			Sketch:      sketch,
			Profile:     profile.Parse(bp.Fields),
			EventCodes:  codes,
			ResetPeriod: bp.ResetPeriod(),
		})
	}
	return sketchbank.New(entries), nil
}

// pathCacheTTL picks the shortest configured reset period across all
// behavior profiles as the fd-path cache's TTL, or defaultFdCacheTTL if
// every profile leaves reset_timer_ms unset.
func pathCacheTTL(cfg *config.Config) time.Duration {
	shortest := time.Duration(0)
	for _, bp := range cfg.CountMinSketch.BehaviorProfiles {
		period := bp.ResetPeriod()
		if period <= 0 {
			continue
		}
		if shortest == 0 || period < shortest {
			shortest = period
		}
	}
	if shortest == 0 {
		return defaultFdCacheTTL
	}
	return shortest
}

func buildSketch(cfg *config.Config, i int) (*cms.Sketch, error) {
	cm := cfg.CountMinSketch
	switch {
	case len(cm.RowsCols) > i:
		rc := cm.RowsCols[i]
		return cms.NewWithDW(rc.Depth, rc.Width), nil
	case len(cm.GammaEps) > i:
		ge := cm.GammaEps[i]
		return cms.NewWithGammaEpsilon(ge.Gamma, ge.Epsilon), nil
	default:
		return nil, fmt.Errorf("%w: sketch %d has neither rows_cols nor gamma_eps", errs.ErrConfigInvalid, i)
	}
}

// Parse runs the dispatch loop's per-event logic. It is a no-op success
// when CMS is disabled.
func (p *Plugin) Parse(evt hostapi.Event, tt hostapi.ThreadTable) bool {
	p.mu.RLock()
	bank, cache, enabled := p.bank, p.cache, p.enabled
	p.mu.RUnlock()
	if !enabled {
		return true
	}

	start := time.Now()
	ok, err := dispatch.Parse(evt, tt, bank, cache, p.metrics.SketchUpdates)
	p.metrics.ObserveParse(start, ok, err)
	if err != nil {
		p.setLastError(err)
	}
	return ok
}

// Estimate implements anomaly.count_min_sketch[i]: recompute fp for sketch
// i's profile against evt and return sketch[i].estimate(fp).
func (p *Plugin) Estimate(i int, evt hostapi.Event, tt hostapi.ThreadTable) (uint64, error) {
	p.metrics.ExtractRequests.Inc()
	_, fp, entry, err := p.fingerprintFor(i, evt, tt)
	if err != nil {
		p.metrics.ExtractErrors.Inc()
		p.setLastError(err)
		return 0, err
	}
	if fp == "" {
		return 0, nil
	}
	return entry.Sketch.Estimate([]byte(fp)), nil
}

// Profile implements anomaly.count_min_sketch.profile[i]: return fp itself.
func (p *Plugin) Profile(i int, evt hostapi.Event, tt hostapi.ThreadTable) (string, error) {
	p.metrics.ExtractRequests.Inc()
	_, fp, _, err := p.fingerprintFor(i, evt, tt)
	if err != nil {
		p.metrics.ExtractErrors.Inc()
		p.setLastError(err)
		return "", err
	}
	return fp, nil
}

// DurationNs implements anomaly.falco.duration_ns.
func (p *Plugin) DurationNs() uint64 {
	return uint64(time.Now().UnixNano()) - p.startedAt
}

func (p *Plugin) fingerprintFor(i int, evt hostapi.Event, tt hostapi.ThreadTable) (bool, string, *sketchbank.Entry, error) {
	p.mu.RLock()
	bank, cache, enabled := p.bank, p.cache, p.enabled
	p.mu.RUnlock()
	if !enabled {
		return false, "", nil, fmt.Errorf("%w: count_min_sketch is disabled", errs.ErrExtractOutOfBounds)
	}
	entry, err := bank.Get(i)
	if err != nil {
		return false, "", nil, err
	}
	ok, fp := fingerprint.Extract(evt, tt, entry.Profile, cache)
	return ok, fp, entry, nil
}

// Close tears down the sketch bank and its reset workers. Safe to call
// multiple times.
func (p *Plugin) Close() {
	p.mu.Lock()
	bank := p.bank
	p.bank = nil
	p.enabled = false
	p.mu.Unlock()
	if bank != nil {
		bank.ClearAll()
	}
}

// LastError returns the most recent init-time or hot-path error, or nil.
func (p *Plugin) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastError
}

// Bank exposes the current sketch bank for the debug HTTP surface's
// read-only introspection routes. May be nil if CMS is disabled.
func (p *Plugin) Bank() *sketchbank.Bank {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bank
}

// Epoch returns the current hot-reload configuration epoch id.
func (p *Plugin) Epoch() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.epoch
}

func (p *Plugin) setLastError(err error) {
	p.mu.Lock()
	p.lastError = err
	p.mu.Unlock()
	log.Warnf("anomaly plugin: %v", err)
}

func newEpoch() string {
	return uuid.NewString()
}

// cmdlineCtimeNs returns the ctime of /proc/self/cmdline in nanoseconds
// since the Unix epoch, used as the reference point for
// anomaly.falco.duration_ns. Falls back to the current time if the host
// lacks a /proc filesystem (non-Linux development environments).
func cmdlineCtimeNs() uint64 {
	var st syscall.Stat_t
	if err := syscall.Stat("/proc/self/cmdline", &st); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return uint64(st.Ctim.Sec)*uint64(time.Second) + uint64(st.Ctim.Nsec)
}
