// Package config loads replay settings from the environment, an optional .env file
// and YAML sweep grid files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/indicators"
	"github.com/guyghost/replay/internal/logger"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/sweep"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// SweepConfig holds parameter sweep settings
type SweepConfig struct {
	GridPath  string
	Workers   int
	MinTrades int
	Objective string
	Budget    time.Duration
}

// AppConfig holds application-wide configuration
type AppConfig struct {
	Symbol        string
	DataPath      string
	Strategy      string
	LogLevel      string
	LogFormat     string
	TelemetryAddr string // empty disables the metrics server

	Replay     backtesting.Config
	Signal     signal.Params
	Indicators indicators.Config
	Sweep      SweepConfig
}

// DefaultConfig returns default application configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Symbol:     "BTC-USD",
		Strategy:   signal.NameOscillator,
		LogLevel:   "info",
		LogFormat:  "text",
		Replay:     backtesting.DefaultConfig(),
		Signal:     signal.DefaultParams(),
		Indicators: indicators.DefaultConfig(),
		Sweep: SweepConfig{
			Objective: string(sweep.ObjectiveReturnDrawdown),
		},
	}
}

// Load reads the given .env files (".env" when none are named; a missing default
// file is not an error), then applies environment overrides on top of DefaultConfig.
// WARMUP_BARS defaults to the indicator warm-up.
func Load(files ...string) (*AppConfig, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := DefaultConfig()
	env := &envReader{}

	cfg.Symbol = env.string("REPLAY_SYMBOL", cfg.Symbol)
	cfg.DataPath = env.string("REPLAY_DATA", cfg.DataPath)
	cfg.Strategy = env.string("REPLAY_STRATEGY", cfg.Strategy)
	cfg.LogLevel = env.string("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = env.string("LOG_FORMAT", cfg.LogFormat)
	cfg.TelemetryAddr = env.string("TELEMETRY_ADDR", cfg.TelemetryAddr)

	ind := &cfg.Indicators
	ind.RSIPeriod = env.int("RSI_PERIOD", ind.RSIPeriod)
	ind.ATRPeriod = env.int("ATR_PERIOD", ind.ATRPeriod)
	ind.EMAFastPeriod = env.int("EMA_FAST_PERIOD", ind.EMAFastPeriod)
	ind.EMASlowPeriod = env.int("EMA_SLOW_PERIOD", ind.EMASlowPeriod)
	ind.VolumePeriod = env.int("VOLUME_PERIOD", ind.VolumePeriod)
	ind.RangeLookback = env.int("RANGE_LOOKBACK", ind.RangeLookback)

	sig := &cfg.Signal
	sig.RSIOversold = env.decimal("RSI_OVERSOLD", sig.RSIOversold)
	sig.RSIOverbought = env.decimal("RSI_OVERBOUGHT", sig.RSIOverbought)
	sig.MinATRPct = env.decimal("MIN_ATR_PCT", sig.MinATRPct)
	sig.MaxTrendDistPct = env.decimal("MAX_TREND_DIST_PCT", sig.MaxTrendDistPct)
	sig.VolumeMult = env.decimal("VOLUME_MULT", sig.VolumeMult)
	sig.MaxZoneWidthPct = env.decimal("MAX_ZONE_WIDTH_PCT", sig.MaxZoneWidthPct)

	r := &cfg.Replay
	r.InitialCapital = env.decimal("INITIAL_CAPITAL", r.InitialCapital)
	r.RiskPct = env.decimal("RISK_PCT", r.RiskPct)
	r.Leverage = env.decimal("LEVERAGE", r.Leverage)
	r.FeePct = env.decimal("FEE_PCT", r.FeePct)
	r.DynamicRisk.Enabled = env.bool("DYNAMIC_RISK", r.DynamicRisk.Enabled)
	r.DynamicRisk.Min = env.decimal("DYNAMIC_RISK_MIN", r.DynamicRisk.Min)
	r.DynamicRisk.Max = env.decimal("DYNAMIC_RISK_MAX", r.DynamicRisk.Max)
	r.DynamicRisk.WinMultiplier = env.decimal("DYNAMIC_RISK_WIN_MULT", r.DynamicRisk.WinMultiplier)
	r.DynamicRisk.LossMultiplier = env.decimal("DYNAMIC_RISK_LOSS_MULT", r.DynamicRisk.LossMultiplier)
	r.LimitMode = backtesting.LimitMode(env.string("LIMIT_MODE", string(r.LimitMode)))
	r.LimitOffsetPct = env.decimal("LIMIT_OFFSET_PCT", r.LimitOffsetPct)
	r.LimitATRMult = env.decimal("LIMIT_ATR_MULT", r.LimitATRMult)
	r.MaxWaitBars = env.int("MAX_WAIT_BARS", r.MaxWaitBars)
	r.StopMode = backtesting.DistanceMode(env.string("STOP_MODE", string(r.StopMode)))
	r.StopMult = env.decimal("STOP_MULT", r.StopMult)
	r.TargetMult = env.decimal("TARGET_MULT", r.TargetMult)
	r.StopPct = env.decimal("STOP_PCT", r.StopPct)
	r.TargetPct = env.decimal("TARGET_PCT", r.TargetPct)
	r.Anchor = backtesting.AnchorPolicy(env.string("ANCHOR", string(r.Anchor)))
	r.ExitPriority = backtesting.ExitPriority(env.string("EXIT_PRIORITY", string(r.ExitPriority)))
	r.ExitOnReversal = env.bool("EXIT_ON_REVERSAL", r.ExitOnReversal)
	r.MaxHoldBars = env.int("MAX_HOLD_BARS", r.MaxHoldBars)
	r.CloseAtEnd = env.bool("CLOSE_AT_END", r.CloseAtEnd)

	s := &cfg.Sweep
	s.GridPath = env.string("SWEEP_GRID", s.GridPath)
	s.Workers = env.int("SWEEP_WORKERS", s.Workers)
	s.MinTrades = env.int("SWEEP_MIN_TRADES", s.MinTrades)
	s.Objective = env.string("SWEEP_OBJECTIVE", s.Objective)
	s.Budget = env.duration("SWEEP_BUDGET", s.Budget)

	if env.err != nil {
		return nil, env.err
	}

	provider, err := indicators.NewStandard(cfg.Indicators)
	if err != nil {
		return nil, fmt.Errorf("invalid indicator configuration: %w", err)
	}
	r.WarmupBars = env.int("WARMUP_BARS", provider.WarmUp())
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the replay, strategy and sweep settings
func (c *AppConfig) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}
	if err := c.Replay.Validate(); err != nil {
		return err
	}
	if _, err := signal.New(c.Strategy, c.Signal); err != nil {
		return backtesting.NewConfigError("strategy", err)
	}
	if _, err := indicators.NewStandard(c.Indicators); err != nil {
		return fmt.Errorf("invalid indicator configuration: %w", err)
	}
	if _, err := sweep.ParseObjective(c.Sweep.Objective); err != nil {
		return err
	}
	if c.Sweep.Workers < 0 || c.Sweep.MinTrades < 0 {
		return errors.New("sweep workers and min trades must not be negative")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoggerConfig builds the logger configuration
func (c *AppConfig) LoggerConfig() *logger.Config {
	level, _ := logger.ParseLevel(c.LogLevel)
	lc := logger.DefaultConfig()
	lc.Level = level
	lc.Format = c.LogFormat
	return lc
}

// SweepOptions converts the sweep settings for the driver
func (c *AppConfig) SweepOptions() sweep.Options {
	return sweep.Options{
		Workers:   c.Sweep.Workers,
		MinTrades: c.Sweep.MinTrades,
		Objective: sweep.Objective(c.Sweep.Objective),
		Budget:    c.Sweep.Budget,
	}
}

// SweepBase is the configuration every sweep combination starts from
func (c *AppConfig) SweepBase() sweep.Base {
	return sweep.Base{
		Strategy: c.Strategy,
		Config:   c.Replay,
		Params:   c.Signal,
	}
}

// envReader parses environment overrides and keeps the first error
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (r *envReader) string(key, defaultValue string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return defaultValue
}

// int parses an integer environment variable
func (r *envReader) int(key string, defaultValue int) int {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return parsed
}

// decimal parses a decimal environment variable
func (r *envReader) decimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return parsed
}

func (r *envReader) bool(key string, defaultValue bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return parsed
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return defaultValue
	}
	return parsed
}
