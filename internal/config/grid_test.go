package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrid = `
strategy: volume_zone
objective: total_return
min_trades: 3
workers: 2
budget: 5m
params:
  - name: stop_mult
    values: [1, 1.5, 2]
  - name: risk_pct
    values: [0.01, 0.02]
`

func TestLoadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGrid), 0o600))

	file, err := LoadGrid(path)
	require.NoError(t, err)

	grid, err := file.Grid()
	require.NoError(t, err)
	require.Len(t, grid.Params, 2)
	assert.Equal(t, "stop_mult", grid.Params[0].Name)
	assert.Equal(t, "1.5", grid.Params[0].Values[1].String())
	assert.Equal(t, "0.01", grid.Params[1].Values[0].String())
	assert.Equal(t, 6, grid.Size())

	cfg := DefaultConfig()
	file.Apply(cfg)
	assert.Equal(t, "volume_zone", cfg.Strategy)
	assert.Equal(t, "total_return", cfg.Sweep.Objective)
	assert.Equal(t, 3, cfg.Sweep.MinTrades)
	assert.Equal(t, 2, cfg.Sweep.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.Budget)
}

func TestParseGrid_OptionalFieldsKeepConfig(t *testing.T) {
	file, err := ParseGrid([]byte("params:\n  - name: max_wait_bars\n    values: [1, 2]\n"))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Sweep.Workers = 7
	file.Apply(cfg)
	assert.Equal(t, 7, cfg.Sweep.Workers)
	assert.Equal(t, "oscillator", cfg.Strategy)
}

func TestParseGrid_Errors(t *testing.T) {
	cases := map[string]string{
		"no params":     "objective: total_return\n",
		"empty values":  "params:\n  - name: stop_mult\n    values: []\n",
		"bad value":     "params:\n  - name: stop_mult\n    values: [wide]\n",
		"duplicate":     "params:\n  - name: a\n    values: [1]\n  - name: a\n    values: [2]\n",
		"objective":     "objective: sharpe\nparams:\n  - name: a\n    values: [1]\n",
		"budget":        "budget: later\nparams:\n  - name: a\n    values: [1]\n",
		"unknown field": "paramz: []\n",
		"not yaml":      "params: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGrid([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadGrid_MissingFile(t *testing.T) {
	_, err := LoadGrid(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
