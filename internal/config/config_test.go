package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/sweep"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "BTC-USD", cfg.Symbol)
	assert.Equal(t, signal.NameOscillator, cfg.Strategy)
	assert.Equal(t, 20, cfg.Replay.WarmupBars)
	assert.True(t, cfg.Replay.RiskPct.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, backtesting.StopFirst, cfg.Replay.ExitPriority)
	assert.Equal(t, string(sweep.ObjectiveReturnDrawdown), cfg.Sweep.Objective)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("REPLAY_SYMBOL", "ETH-USD")
	t.Setenv("REPLAY_STRATEGY", "volatility")
	t.Setenv("RISK_PCT", "0.02")
	t.Setenv("FEE_PCT", "0")
	t.Setenv("EXIT_PRIORITY", "target_first")
	t.Setenv("ANCHOR", "hybrid")
	t.Setenv("MAX_WAIT_BARS", "5")
	t.Setenv("CLOSE_AT_END", "true")
	t.Setenv("DYNAMIC_RISK", "true")
	t.Setenv("DYNAMIC_RISK_MIN", "0.005")
	t.Setenv("DYNAMIC_RISK_MAX", "0.03")
	t.Setenv("DYNAMIC_RISK_WIN_MULT", "1.1")
	t.Setenv("DYNAMIC_RISK_LOSS_MULT", "0.8")
	t.Setenv("RSI_PERIOD", "30")
	t.Setenv("SWEEP_WORKERS", "3")
	t.Setenv("SWEEP_BUDGET", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", cfg.Symbol)
	assert.Equal(t, signal.NameVolatility, cfg.Strategy)
	assert.Equal(t, "0.02", cfg.Replay.RiskPct.String())
	assert.True(t, cfg.Replay.FeePct.IsZero())
	assert.Equal(t, backtesting.TargetFirst, cfg.Replay.ExitPriority)
	assert.Equal(t, backtesting.AnchorHybrid, cfg.Replay.Anchor)
	assert.Equal(t, 5, cfg.Replay.MaxWaitBars)
	assert.True(t, cfg.Replay.CloseAtEnd)
	assert.True(t, cfg.Replay.DynamicRisk.Enabled)
	assert.Equal(t, "0.8", cfg.Replay.DynamicRisk.LossMultiplier.String())
	assert.Equal(t, 30, cfg.Replay.WarmupBars, "warm-up follows the longest indicator period")
	assert.Equal(t, 3, cfg.Sweep.Workers)
	assert.Equal(t, 90*time.Second, cfg.Sweep.Budget)
}

func TestLoad_ExplicitWarmup(t *testing.T) {
	isolate(t)
	t.Setenv("WARMUP_BARS", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Replay.WarmupBars)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPLAY_SYMBOL=SOL-USD\nMAX_HOLD_BARS=12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("REPLAY_SYMBOL")
		os.Unsetenv("MAX_HOLD_BARS")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "SOL-USD", cfg.Symbol)
	assert.Equal(t, 12, cfg.Replay.MaxHoldBars)
}

func TestLoad_MissingNamedEnvFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"RISK_PCT":         "one percent",
		"MAX_WAIT_BARS":    "2.5",
		"EXIT_ON_REVERSAL": "maybe",
		"SWEEP_BUDGET":     "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	t.Run("risk", func(t *testing.T) {
		isolate(t)
		t.Setenv("RISK_PCT", "0")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, backtesting.IsConfigError(err))
	})

	t.Run("strategy", func(t *testing.T) {
		isolate(t)
		t.Setenv("REPLAY_STRATEGY", "martingale")

		_, err := Load()
		require.Error(t, err)
		assert.True(t, backtesting.IsConfigError(err))
	})

	t.Run("objective", func(t *testing.T) {
		isolate(t)
		t.Setenv("SWEEP_OBJECTIVE", "sharpe")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("log level", func(t *testing.T) {
		isolate(t)
		t.Setenv("LOG_LEVEL", "loud")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestAppConfig_SweepOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sweep.Workers = 2
	cfg.Sweep.MinTrades = 4
	cfg.Sweep.Objective = "win_rate"

	opts := cfg.SweepOptions()
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 4, opts.MinTrades)
	assert.Equal(t, sweep.ObjectiveWinRate, opts.Objective)

	base := cfg.SweepBase()
	assert.Equal(t, cfg.Strategy, base.Strategy)
	assert.Equal(t, cfg.Replay, base.Config)
}
