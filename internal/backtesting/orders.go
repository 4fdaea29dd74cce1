package backtesting

import (
	"errors"

	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/sizing"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

var (
	// errMissingData marks a signal whose bar lacks an indicator needed to place the order.
	errMissingData = errors.New("indicator required for order placement is undefined")
	// errStopBehindLimit marks a signal whose stop would not sit on the adverse side of the fill.
	errStopBehindLimit = errors.New("stop is not on the adverse side of the limit price")
)

// newPendingOrder turns an entry decision on bar index into a limit order.
// The limit sits on the price-improving side of the reference price.
func (e *Engine) newPendingOrder(decision signal.Decision, bar market.Bar, index int) (*PendingOrder, error) {
	ind := bar.Indicators
	ref := decision.Price
	sign := decision.Direction.Sign()

	var limit decimal.Decimal
	switch e.config.LimitMode {
	case LimitATR:
		if !ind.ATR.Valid {
			return nil, errMissingData
		}
		limit = ref.Sub(sign.Mul(ind.ATR.Decimal.Mul(e.config.LimitATRMult)))
	default:
		limit = ref.Mul(one.Sub(sign.Mul(e.config.LimitOffsetPct)))
	}
	if !limit.IsPositive() {
		return nil, errMissingData
	}

	switch e.config.StopMode {
	case DistanceATR:
		if !ind.ATR.Valid || !ind.ATR.Decimal.IsPositive() {
			return nil, errMissingData
		}
	case DistanceSwing:
		if !ind.RangeHigh.Valid || !ind.RangeLow.Valid {
			return nil, errMissingData
		}
	}

	order := &PendingOrder{
		Direction:       decision.Direction,
		LimitPrice:      limit,
		SignalIndex:     index,
		SignalPrice:     ref,
		ExpiresAt:       index + e.config.MaxWaitBars,
		SignalATR:       ind.ATR,
		SignalRangeHigh: ind.RangeHigh,
		SignalRangeLow:  ind.RangeLow,
	}

	// fills happen at the limit, so the levels are known now
	stop, _ := e.levels(order, limit)
	if _, err := sizing.StopDistance(limit, stop, decision.Direction == signal.Long); err != nil {
		return nil, errStopBehindLimit
	}
	return order, nil
}

// limitTouched reports whether the bar trades through the limit price
func limitTouched(order *PendingOrder, bar market.Bar) bool {
	if order.Direction == signal.Long {
		return bar.Low.LessThanOrEqual(order.LimitPrice)
	}
	return bar.High.GreaterThanOrEqual(order.LimitPrice)
}

// levels computes stop and target for a fill at entry, honouring the anchor policy.
func (e *Engine) levels(order *PendingOrder, entry decimal.Decimal) (stop, target decimal.Decimal) {
	stopAnchor, targetAnchor := entry, entry
	switch e.config.Anchor {
	case AnchorSignal:
		stopAnchor, targetAnchor = order.SignalPrice, order.SignalPrice
	case AnchorHybrid:
		targetAnchor = order.SignalPrice
	}

	sign := order.Direction.Sign()

	switch e.config.StopMode {
	case DistancePercent:
		stop = stopAnchor.Mul(one.Sub(sign.Mul(e.config.StopPct)))
		target = targetAnchor.Mul(one.Add(sign.Mul(e.config.TargetPct)))
	case DistanceSwing:
		stop = order.SignalRangeLow.Decimal
		if order.Direction == signal.Short {
			stop = order.SignalRangeHigh.Decimal
		}
		distance := stopAnchor.Sub(stop).Abs()
		target = targetAnchor.Add(sign.Mul(distance.Mul(e.config.TargetMult)))
	default:
		atr := order.SignalATR.Decimal
		stop = stopAnchor.Sub(sign.Mul(atr.Mul(e.config.StopMult)))
		target = targetAnchor.Add(sign.Mul(atr.Mul(e.config.TargetMult)))
	}

	return stop, target
}
