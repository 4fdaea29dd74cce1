package indicators

import (
	"fmt"

	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// Provider enriches bars with indicator values. Implementations must be
// deterministic and causal, and must not modify the input slice.
type Provider interface {
	Enrich(bars []market.Bar) ([]market.Bar, error)
	// WarmUp is the first bar index at which every indicator is defined.
	WarmUp() int
}

// Config holds the indicator periods used by the Standard provider
type Config struct {
	RSIPeriod     int
	ATRPeriod     int
	EMAFastPeriod int
	EMASlowPeriod int
	VolumePeriod  int
	RangeLookback int
}

// DefaultConfig returns the usual indicator periods
func DefaultConfig() Config {
	return Config{
		RSIPeriod:     14,
		ATRPeriod:     14,
		EMAFastPeriod: 9,
		EMASlowPeriod: 21,
		VolumePeriod:  20,
		RangeLookback: 20,
	}
}

// Standard computes RSI, ATR, fast/slow EMA, prior volume SMA and prior range.
type Standard struct {
	config Config
}

// NewStandard creates a Standard provider after checking the periods.
func NewStandard(config Config) (*Standard, error) {
	periods := []struct {
		name  string
		value int
	}{
		{"rsi period", config.RSIPeriod},
		{"atr period", config.ATRPeriod},
		{"fast ema period", config.EMAFastPeriod},
		{"slow ema period", config.EMASlowPeriod},
		{"volume period", config.VolumePeriod},
		{"range lookback", config.RangeLookback},
	}
	for _, p := range periods {
		if p.value <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if config.EMAFastPeriod >= config.EMASlowPeriod {
		return nil, fmt.Errorf("fast ema period %d must be below slow ema period %d", config.EMAFastPeriod, config.EMASlowPeriod)
	}
	return &Standard{config: config}, nil
}

// Config returns the provider periods
func (s *Standard) Config() Config {
	return s.config
}

// WarmUp implements Provider.
func (s *Standard) WarmUp() int {
	c := s.config
	warm := c.RSIPeriod
	for _, v := range []int{c.ATRPeriod, c.EMASlowPeriod - 1, c.VolumePeriod, c.RangeLookback} {
		if v > warm {
			warm = v
		}
	}
	return warm
}

// Enrich implements Provider. The returned bars are a copy of the input.
func (s *Standard) Enrich(bars []market.Bar) ([]market.Bar, error) {
	n := len(bars)
	if n == 0 {
		return nil, market.ErrEmptySeries
	}

	high := make([]decimal.Decimal, n)
	low := make([]decimal.Decimal, n)
	closes := make([]decimal.Decimal, n)
	volume := make([]decimal.Decimal, n)
	for i, bar := range bars {
		high[i] = bar.High
		low[i] = bar.Low
		closes[i] = bar.Close
		volume[i] = bar.Volume
	}

	rsi := RSI(closes, s.config.RSIPeriod)
	atr := ATR(high, low, closes, s.config.ATRPeriod)
	emaFast := EMA(closes, s.config.EMAFastPeriod)
	emaSlow := EMA(closes, s.config.EMASlowPeriod)
	volSMA := PriorSMA(volume, s.config.VolumePeriod)
	rangeHigh, rangeLow := PriorRange(high, low, s.config.RangeLookback)

	out := make([]market.Bar, n)
	for i, bar := range bars {
		bar.Indicators = market.Indicators{
			RSI:       rsi[i],
			ATR:       atr[i],
			EMAFast:   emaFast[i],
			EMASlow:   emaSlow[i],
			VolumeSMA: volSMA[i],
			RangeHigh: rangeHigh[i],
			RangeLow:  rangeLow[i],
		}
		out[i] = bar
	}

	return out, nil
}
