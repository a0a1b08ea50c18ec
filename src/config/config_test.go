package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FedeDP/plugins/src/errs"
)

func TestParseValidConfig(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"rows_cols": [[5, 2048]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [8], "reset_timer_ms": 0}
			]
		}
	}`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, cfg.CountMinSketch.Enabled)
	assert.Equal(t, 1, cfg.CountMinSketch.NSketches)
	assert.Equal(t, 5, cfg.CountMinSketch.RowsCols[0].Depth)
	assert.Equal(t, 2048, cfg.CountMinSketch.RowsCols[0].Width)
}

func TestDisabledConfigSkipsValidation(t *testing.T) {
	raw := []byte(`{"count_min_sketch": {"enabled": false}}`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.False(t, cfg.CountMinSketch.Enabled)
}

func TestBehaviorProfilesLengthMismatch(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 2,
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [8]}
			]
		}
	}`)
	_, err := Parse(raw)
	require.ErrorIs(t, err, errs.ErrConfigInvalid)
}

func TestGammaEpsLengthMismatch(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"gamma_eps": [[0.01, 0.01], [0.02, 0.02]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [8]}
			]
		}
	}`)
	_, err := Parse(raw)
	require.Error(t, err)
}

func TestFdSelectorWithNonFdEventCodesRejected(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"behavior_profiles": [
				{"fields": "%fd.name", "event_codes": [9]}
			]
		}
	}`)
	_, err := Parse(raw)
	require.Error(t, err)
}

func TestFdSelectorWithAllFdProducingEventCodesAccepted(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"behavior_profiles": [
				{"fields": "%fd.name", "event_codes": [1, 2]}
			]
		}
	}`)
	_, err := Parse(raw)
	require.NoError(t, err)
}

func TestRowsColsOverridesGammaEps(t *testing.T) {
	raw := []byte(`{
		"count_min_sketch": {
			"enabled": true,
			"n_sketches": 1,
			"gamma_eps": [[0.5, 0.5]],
			"rows_cols": [[7, 4096]],
			"behavior_profiles": [
				{"fields": "%proc.exe", "event_codes": [8]}
			]
		}
	}`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, cfg.CountMinSketch.RowsCols, 1)
	assert.Equal(t, 7, cfg.CountMinSketch.RowsCols[0].Depth)
}
