package signal

import (
	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// OscillatorCross fires when RSI crosses into an extreme zone:
// crossing below Oversold proposes LONG, crossing above Overbought proposes SHORT.
type OscillatorCross struct {
	Oversold   decimal.Decimal
	Overbought decimal.Decimal
}

// Name implements Generator.
func (o *OscillatorCross) Name() string {
	return NameOscillator
}

// Evaluate implements Generator.
func (o *OscillatorCross) Evaluate(cur, prev market.Bar) Decision {
	if !defined(cur.Indicators.RSI, prev.Indicators.RSI) {
		return InsufficientData()
	}

	now := cur.Indicators.RSI.Decimal
	before := prev.Indicators.RSI.Decimal

	if before.GreaterThanOrEqual(o.Oversold) && now.LessThan(o.Oversold) {
		return Enter(Long, cur)
	}
	if before.LessThanOrEqual(o.Overbought) && now.GreaterThan(o.Overbought) {
		return Enter(Short, cur)
	}
	return Hold()
}
