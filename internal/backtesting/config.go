package backtesting

import (
	"errors"
	"fmt"

	"github.com/guyghost/replay/internal/sizing"
	"github.com/shopspring/decimal"
)

// DistanceMode selects how stop and target distances are derived
type DistanceMode string

const (
	DistanceATR     DistanceMode = "atr"     // ATR at the signal bar times StopMult/TargetMult
	DistancePercent DistanceMode = "percent" // anchor price times StopPct/TargetPct
	DistanceSwing   DistanceMode = "swing"   // stop at the prior range extreme, target at TargetMult R
)

// LimitMode selects how far the limit price sits from the signal price
type LimitMode string

const (
	LimitPercent LimitMode = "percent"
	LimitATR     LimitMode = "atr"
)

// ExitPriority resolves a bar that touches both stop and target
type ExitPriority string

const (
	StopFirst     ExitPriority = "stop_first"
	TargetFirst   ExitPriority = "target_first"
	NearestToOpen ExitPriority = "nearest_to_open" // the threshold closer to the bar open wins, ties go to the stop
)

// AnchorPolicy selects the price that stop and target are measured from
type AnchorPolicy string

const (
	AnchorFill   AnchorPolicy = "fill"   // both from the fill price
	AnchorSignal AnchorPolicy = "signal" // both from the signal reference price
	AnchorHybrid AnchorPolicy = "hybrid" // stop from the fill, target from the signal price
)

// Config is the immutable configuration of one replay. Percentages are fractions (0.01 = 1%).
type Config struct {
	// Capital
	InitialCapital decimal.Decimal
	RiskPct        decimal.Decimal // equity fraction lost by a full stop exit
	Leverage       decimal.Decimal // notional cap as a multiple of equity, zero disables
	FeePct         decimal.Decimal // charged on notional at entry and again at exit
	DynamicRisk    sizing.DynamicRisk

	// Entry
	LimitMode      LimitMode
	LimitOffsetPct decimal.Decimal
	LimitATRMult   decimal.Decimal
	MaxWaitBars    int

	// Exit
	StopMode       DistanceMode
	StopMult       decimal.Decimal
	TargetMult     decimal.Decimal
	StopPct        decimal.Decimal
	TargetPct      decimal.Decimal
	Anchor         AnchorPolicy
	ExitPriority   ExitPriority
	ExitOnReversal bool
	MaxHoldBars    int // zero disables the time exit

	// Replay
	WarmupBars int
	CloseAtEnd bool // close a position still open on the last bar with END_OF_DATA
}

// DefaultConfig returns default replay configuration
func DefaultConfig() Config {
	return Config{
		InitialCapital: decimal.NewFromInt(10000),
		RiskPct:        decimal.NewFromFloat(0.01),
		Leverage:       decimal.NewFromInt(10),
		FeePct:         decimal.NewFromFloat(0.0005),
		LimitMode:      LimitPercent,
		LimitOffsetPct: decimal.NewFromFloat(0.002),
		LimitATRMult:   decimal.NewFromFloat(0.25),
		MaxWaitBars:    3,
		StopMode:       DistanceATR,
		StopMult:       decimal.NewFromFloat(1.5),
		TargetMult:     decimal.NewFromFloat(3),
		StopPct:        decimal.NewFromFloat(0.01),
		TargetPct:      decimal.NewFromFloat(0.02),
		Anchor:         AnchorFill,
		ExitPriority:   StopFirst,
		ExitOnReversal: true,
		MaxHoldBars:    48,
	}
}

// Validate checks every field and returns a ConfigError naming the first bad one.
func (c Config) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return NewConfigError("initial_capital", fmt.Errorf("must be positive, got %s", c.InitialCapital))
	}
	if !c.RiskPct.IsPositive() || c.RiskPct.GreaterThan(decimal.NewFromInt(1)) {
		return NewConfigError("risk_pct", fmt.Errorf("%w, got %s", sizing.ErrInvalidRisk, c.RiskPct))
	}
	if c.Leverage.IsNegative() {
		return NewConfigError("leverage", fmt.Errorf("must not be negative, got %s", c.Leverage))
	}
	if c.FeePct.IsNegative() || c.FeePct.GreaterThanOrEqual(decimal.NewFromFloat(0.5)) {
		return NewConfigError("fee_pct", fmt.Errorf("must be in [0, 0.5), got %s", c.FeePct))
	}
	if err := c.DynamicRisk.Validate(c.RiskPct); err != nil {
		return NewConfigError("dynamic_risk", err)
	}

	switch c.LimitMode {
	case LimitPercent:
		if c.LimitOffsetPct.IsNegative() || c.LimitOffsetPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return NewConfigError("limit_offset_pct", fmt.Errorf("must be in [0, 1), got %s", c.LimitOffsetPct))
		}
	case LimitATR:
		if c.LimitATRMult.IsNegative() {
			return NewConfigError("limit_atr_mult", fmt.Errorf("must not be negative, got %s", c.LimitATRMult))
		}
	default:
		return NewConfigError("limit_mode", fmt.Errorf("unknown mode %q", c.LimitMode))
	}
	if c.MaxWaitBars < 1 {
		return NewConfigError("max_wait_bars", fmt.Errorf("must be at least 1, got %d", c.MaxWaitBars))
	}

	switch c.StopMode {
	case DistanceATR:
		if !c.StopMult.IsPositive() {
			return NewConfigError("stop_mult", fmt.Errorf("%w: got %s", sizing.ErrInvalidStopDistance, c.StopMult))
		}
		if !c.TargetMult.IsPositive() {
			return NewConfigError("target_mult", fmt.Errorf("must be positive, got %s", c.TargetMult))
		}
	case DistancePercent:
		if !c.StopPct.IsPositive() || c.StopPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return NewConfigError("stop_pct", fmt.Errorf("%w: got %s", sizing.ErrInvalidStopDistance, c.StopPct))
		}
		if !c.TargetPct.IsPositive() {
			return NewConfigError("target_pct", fmt.Errorf("must be positive, got %s", c.TargetPct))
		}
	case DistanceSwing:
		if !c.TargetMult.IsPositive() {
			return NewConfigError("target_mult", fmt.Errorf("must be positive, got %s", c.TargetMult))
		}
	default:
		return NewConfigError("stop_mode", fmt.Errorf("unknown mode %q", c.StopMode))
	}

	switch c.Anchor {
	case AnchorFill, AnchorSignal, AnchorHybrid:
	default:
		return NewConfigError("anchor", fmt.Errorf("unknown policy %q", c.Anchor))
	}
	// a signal-anchored percent stop must clear the percent limit offset
	if c.Anchor == AnchorSignal && c.StopMode == DistancePercent && c.LimitMode == LimitPercent &&
		c.StopPct.LessThanOrEqual(c.LimitOffsetPct) {
		return NewConfigError("stop_pct", fmt.Errorf("%w: %s does not exceed limit offset %s",
			sizing.ErrInvalidStopDistance, c.StopPct, c.LimitOffsetPct))
	}
	switch c.ExitPriority {
	case StopFirst, TargetFirst, NearestToOpen:
	default:
		return NewConfigError("exit_priority", fmt.Errorf("unknown policy %q", c.ExitPriority))
	}

	if c.MaxHoldBars < 0 {
		return NewConfigError("max_hold_bars", errors.New("must not be negative"))
	}
	if c.WarmupBars < 0 {
		return NewConfigError("warmup_bars", errors.New("must not be negative"))
	}

	return nil
}

// ParseExitPriority converts a configuration string into an ExitPriority
func ParseExitPriority(s string) (ExitPriority, error) {
	switch p := ExitPriority(s); p {
	case StopFirst, TargetFirst, NearestToOpen:
		return p, nil
	}
	return "", fmt.Errorf("unknown exit priority %q", s)
}

// ParseAnchorPolicy converts a configuration string into an AnchorPolicy
func ParseAnchorPolicy(s string) (AnchorPolicy, error) {
	switch p := AnchorPolicy(s); p {
	case AnchorFill, AnchorSignal, AnchorHybrid:
		return p, nil
	}
	return "", fmt.Errorf("unknown anchor policy %q", s)
}

// ParseDistanceMode converts a configuration string into a DistanceMode
func ParseDistanceMode(s string) (DistanceMode, error) {
	switch m := DistanceMode(s); m {
	case DistanceATR, DistancePercent, DistanceSwing:
		return m, nil
	}
	return "", fmt.Errorf("unknown stop mode %q", s)
}

// ParseLimitMode converts a configuration string into a LimitMode
func ParseLimitMode(s string) (LimitMode, error) {
	switch m := LimitMode(s); m {
	case LimitPercent, LimitATR:
		return m, nil
	}
	return "", fmt.Errorf("unknown limit mode %q", s)
}
