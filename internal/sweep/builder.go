package sweep

import (
	"errors"
	"fmt"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/signal"
)

// ErrUnknownParam is returned for a grid key the builder cannot map
var ErrUnknownParam = errors.New("unknown sweep parameter")

// Keys lists every parameter name a grid may use
func Keys() []string {
	return []string{
		"risk_pct", "leverage", "fee_pct",
		"stop_mult", "target_mult", "stop_pct", "target_pct",
		"limit_offset_pct", "limit_atr_mult", "max_wait_bars", "max_hold_bars",
		"rsi_oversold", "rsi_overbought", "min_atr_pct", "max_trend_dist_pct",
		"volume_mult", "max_zone_width_pct",
	}
}

// Base is the configuration every combination starts from
type Base struct {
	Strategy string
	Config   backtesting.Config
	Params   signal.Params
}

// Apply overlays a parameter set on the base. The result is not validated;
// the engine and the signal factory do that.
func (b Base) Apply(set ParamSet) (backtesting.Config, signal.Params, error) {
	cfg := b.Config
	params := b.Params

	for _, v := range set {
		var err error
		switch v.Name {
		case "risk_pct":
			cfg.RiskPct = v.Value
		case "leverage":
			cfg.Leverage = v.Value
		case "fee_pct":
			cfg.FeePct = v.Value
		case "stop_mult":
			cfg.StopMult = v.Value
		case "target_mult":
			cfg.TargetMult = v.Value
		case "stop_pct":
			cfg.StopPct = v.Value
		case "target_pct":
			cfg.TargetPct = v.Value
		case "limit_offset_pct":
			cfg.LimitOffsetPct = v.Value
		case "limit_atr_mult":
			cfg.LimitATRMult = v.Value
		case "max_wait_bars":
			cfg.MaxWaitBars, err = wholeBars(v)
		case "max_hold_bars":
			cfg.MaxHoldBars, err = wholeBars(v)
		case "rsi_oversold":
			params.RSIOversold = v.Value
		case "rsi_overbought":
			params.RSIOverbought = v.Value
		case "min_atr_pct":
			params.MinATRPct = v.Value
		case "max_trend_dist_pct":
			params.MaxTrendDistPct = v.Value
		case "volume_mult":
			params.VolumeMult = v.Value
		case "max_zone_width_pct":
			params.MaxZoneWidthPct = v.Value
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownParam, v.Name)
		}
		if err != nil {
			return backtesting.Config{}, signal.Params{}, err
		}
	}

	return cfg, params, nil
}

func wholeBars(v Value) (int, error) {
	if !v.Value.IsInteger() {
		return 0, backtesting.NewConfigError(v.Name, fmt.Errorf("must be a whole number of bars, got %s", v.Value))
	}
	return int(v.Value.IntPart()), nil
}
