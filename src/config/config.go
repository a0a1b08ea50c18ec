// Package config defines and validates the plugin's JSON host configuration,
// matching the shape the rest of the anomaly plugin's call sites expect.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/FedeDP/plugins/src/errs"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/profile"
)

// GammaEpsilon is one [γ, ε] pair from the optional gamma_eps config array.
type GammaEpsilon struct {
	Gamma   float64
	Epsilon float64
}

// UnmarshalJSON accepts the wire form [gamma, epsilon].
func (g *GammaEpsilon) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	g.Gamma, g.Epsilon = pair[0], pair[1]
	return nil
}

// MarshalJSON emits the wire form [gamma, epsilon].
func (g GammaEpsilon) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{g.Gamma, g.Epsilon})
}

// RowsCols is one [d, w] pair from the optional rows_cols config array.
type RowsCols struct {
	Depth int
	Width int
}

func (r *RowsCols) UnmarshalJSON(b []byte) error {
	var pair [2]int
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	r.Depth, r.Width = pair[0], pair[1]
	return nil
}

func (r RowsCols) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Depth, r.Width})
}

// BehaviorProfile is one entry of behavior_profiles: a field-selector string,
// the event codes it applies to, and an optional periodic reset.
type BehaviorProfile struct {
	Fields       string  `json:"fields"`
	EventCodes   []int   `json:"event_codes"`
	ResetTimerMs int     `json:"reset_timer_ms"`
}

// ResetPeriod converts ResetTimerMs to a time.Duration.
func (p BehaviorProfile) ResetPeriod() time.Duration {
	return time.Duration(p.ResetTimerMs) * time.Millisecond
}

// CountMinSketch is the count_min_sketch root config object.
type CountMinSketch struct {
	Enabled          bool              `json:"enabled"`
	NSketches        int               `json:"n_sketches"`
	GammaEps         []GammaEpsilon    `json:"gamma_eps,omitempty"`
	RowsCols         []RowsCols        `json:"rows_cols,omitempty"`
	BehaviorProfiles []BehaviorProfile `json:"behavior_profiles"`
}

// Config is the single root JSON object the host hands the plugin at init.
type Config struct {
	CountMinSketch CountMinSketch `json:"count_min_sketch"`
}

// Parse unmarshals and validates raw JSON config, returning a Config ready
// for use by the plugin and sketch bank builders.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the rules spec §6 states beyond plain JSON schema.
func (c *Config) Validate() error {
	cms := c.CountMinSketch
	if !cms.Enabled {
		return nil
	}
	if cms.NSketches < 1 {
		return fmt.Errorf("%w: n_sketches must be >= 1, got %d", errs.ErrConfigInvalid, cms.NSketches)
	}
	if len(cms.BehaviorProfiles) != cms.NSketches {
		return fmt.Errorf("%w: behavior_profiles has %d entries, want %d (n_sketches)",
			errs.ErrConfigInvalid, len(cms.BehaviorProfiles), cms.NSketches)
	}
	if len(cms.GammaEps) > 0 && len(cms.GammaEps) != cms.NSketches {
		return fmt.Errorf("%w: gamma_eps has %d entries, want %d (n_sketches)",
			errs.ErrConfigInvalid, len(cms.GammaEps), cms.NSketches)
	}
	if len(cms.RowsCols) > 0 && len(cms.RowsCols) != cms.NSketches {
		return fmt.Errorf("%w: rows_cols has %d entries, want %d (n_sketches)",
			errs.ErrConfigInvalid, len(cms.RowsCols), cms.NSketches)
	}
	for i, bp := range cms.BehaviorProfiles {
		if err := validateProfile(i, bp); err != nil {
			return err
		}
	}
	return nil
}

// validateProfile enforces the fd-selector/event-code coupling rule: a
// profile referencing any %fd.* selector must restrict itself to
// fd-producing event codes.
func validateProfile(i int, bp BehaviorProfile) error {
	sels := profile.Parse(bp.Fields)
	if !profile.ContainsFdSelector(sels) {
		return nil
	}
	for _, ec := range bp.EventCodes {
		if !ppme.IsFdProducing(ppme.Code(ec)) {
			return fmt.Errorf("%w: behavior_profiles[%d] uses an %%fd.* selector but event_codes includes non-fd-producing code %d",
				errs.ErrConfigInvalid, i, ec)
		}
	}
	return nil
}
