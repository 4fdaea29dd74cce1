package signal

import (
	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// VolumeZone detects a breakout from a tight consolidation range on heavy volume.
// The range comes from the bars before cur, so a breakout bar never widens its own zone.
type VolumeZone struct {
	VolumeMult      decimal.Decimal
	MaxZoneWidthPct decimal.Decimal
}

// Name implements Generator.
func (z *VolumeZone) Name() string {
	return NameVolumeZone
}

// Evaluate implements Generator.
func (z *VolumeZone) Evaluate(cur, prev market.Bar) Decision {
	ind := cur.Indicators
	if !defined(ind.RangeHigh, ind.RangeLow, ind.VolumeSMA) {
		return InsufficientData()
	}

	high, low := ind.RangeHigh.Decimal, ind.RangeLow.Decimal
	if !low.IsPositive() {
		return InsufficientData()
	}

	width := high.Sub(low).Div(low).Mul(hundred)
	if width.GreaterThan(z.MaxZoneWidthPct) {
		return Hold()
	}
	if cur.Volume.LessThan(ind.VolumeSMA.Decimal.Mul(z.VolumeMult)) {
		return Hold()
	}

	switch {
	case cur.Close.GreaterThan(high) && prev.Close.LessThanOrEqual(high):
		return Enter(Long, cur)
	case cur.Close.LessThan(low) && prev.Close.GreaterThanOrEqual(low):
		return Enter(Short, cur)
	}
	return Hold()
}
