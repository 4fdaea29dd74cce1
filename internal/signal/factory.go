package signal

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Strategy family names accepted by New
const (
	NameOscillator = "oscillator"
	NameVolatility = "volatility"
	NameVolumeZone = "volume_zone"
)

// Params carries the thresholds of every strategy family; each family reads its own fields.
type Params struct {
	RSIOversold     decimal.Decimal
	RSIOverbought   decimal.Decimal
	MinATRPct       decimal.Decimal
	MaxTrendDistPct decimal.Decimal
	VolumeMult      decimal.Decimal
	MaxZoneWidthPct decimal.Decimal
}

// DefaultParams returns thresholds that suit hourly crypto bars
func DefaultParams() Params {
	return Params{
		RSIOversold:     decimal.NewFromInt(30),
		RSIOverbought:   decimal.NewFromInt(70),
		MinATRPct:       decimal.NewFromFloat(0.5),
		MaxTrendDistPct: decimal.NewFromFloat(1.5),
		VolumeMult:      decimal.NewFromFloat(1.5),
		MaxZoneWidthPct: decimal.NewFromFloat(3),
	}
}

// Names lists the registered strategy families in sorted order
func Names() []string {
	names := []string{NameOscillator, NameVolatility, NameVolumeZone}
	sort.Strings(names)
	return names
}

// New builds the generator for a strategy family.
func New(name string, params Params) (Generator, error) {
	switch name {
	case NameOscillator:
		if !params.RSIOversold.LessThan(params.RSIOverbought) {
			return nil, fmt.Errorf("rsi oversold %s must be below overbought %s", params.RSIOversold, params.RSIOverbought)
		}
		return &OscillatorCross{Oversold: params.RSIOversold, Overbought: params.RSIOverbought}, nil
	case NameVolatility:
		if params.MinATRPct.IsNegative() || !params.MaxTrendDistPct.IsPositive() {
			return nil, fmt.Errorf("volatility thresholds out of range: min atr %s, max trend distance %s", params.MinATRPct, params.MaxTrendDistPct)
		}
		return &VolatilityExpansion{MinATRPct: params.MinATRPct, MaxTrendDistPct: params.MaxTrendDistPct}, nil
	case NameVolumeZone:
		if !params.VolumeMult.IsPositive() || !params.MaxZoneWidthPct.IsPositive() {
			return nil, fmt.Errorf("volume zone thresholds must be positive: volume mult %s, zone width %s", params.VolumeMult, params.MaxZoneWidthPct)
		}
		return &VolumeZone{VolumeMult: params.VolumeMult, MaxZoneWidthPct: params.MaxZoneWidthPct}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
}
