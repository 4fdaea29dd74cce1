package signal

import (
	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// VolatilityExpansion requires an expanding ATR above a minimum percentage of price
// while the close stays near the slow EMA. The EMA stack and the last close
// change pick the direction.
type VolatilityExpansion struct {
	MinATRPct       decimal.Decimal // percent of close
	MaxTrendDistPct decimal.Decimal // percent distance from slow EMA
}

// Name implements Generator.
func (v *VolatilityExpansion) Name() string {
	return NameVolatility
}

// Evaluate implements Generator.
func (v *VolatilityExpansion) Evaluate(cur, prev market.Bar) Decision {
	ind := cur.Indicators
	if !defined(ind.ATR, ind.EMAFast, ind.EMASlow, prev.Indicators.ATR) {
		return InsufficientData()
	}
	if ind.EMASlow.Decimal.IsZero() {
		return InsufficientData()
	}

	atrPct := ind.ATR.Decimal.Div(cur.Close).Mul(hundred)
	if atrPct.LessThan(v.MinATRPct) {
		return Hold()
	}
	if !ind.ATR.Decimal.GreaterThan(prev.Indicators.ATR.Decimal) {
		return Hold()
	}

	trendDist := cur.Close.Sub(ind.EMASlow.Decimal).Abs().Div(ind.EMASlow.Decimal).Mul(hundred)
	if trendDist.GreaterThan(v.MaxTrendDistPct) {
		return Hold()
	}

	switch {
	case ind.EMAFast.Decimal.GreaterThan(ind.EMASlow.Decimal) && cur.Close.GreaterThan(prev.Close):
		return Enter(Long, cur)
	case ind.EMAFast.Decimal.LessThan(ind.EMASlow.Decimal) && cur.Close.LessThan(prev.Close):
		return Enter(Short, cur)
	}
	return Hold()
}
