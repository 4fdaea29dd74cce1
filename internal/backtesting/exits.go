package backtesting

import (
	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/signal"
	"github.com/shopspring/decimal"
)

// exitDecision is a terminal event found on one bar
type exitDecision struct {
	reason ExitReason
	price  decimal.Decimal
}

// thresholdsTouched reports whether the bar's extremes reach the stop and the target
func thresholdsTouched(pos *Position, bar market.Bar) (stopHit, targetHit bool) {
	if pos.Direction == signal.Long {
		return bar.Low.LessThanOrEqual(pos.StopPrice), bar.High.GreaterThanOrEqual(pos.TargetPrice)
	}
	return bar.High.GreaterThanOrEqual(pos.StopPrice), bar.Low.LessThanOrEqual(pos.TargetPrice)
}

// tieBreak picks the exit when one bar touches both thresholds
func (e *Engine) tieBreak(pos *Position, bar market.Bar) ExitReason {
	switch e.config.ExitPriority {
	case TargetFirst:
		return ExitTarget
	case NearestToOpen:
		toStop := bar.Open.Sub(pos.StopPrice).Abs()
		toTarget := bar.Open.Sub(pos.TargetPrice).Abs()
		if toTarget.LessThan(toStop) {
			return ExitTarget
		}
		return ExitStop
	default:
		return ExitStop
	}
}

// resolveExit applies the exit priority STOP, TP, SIGNAL_REVERSAL, TIME to bar index.
// STOP and TP fill at the exact threshold; the other exits fill at the close.
func (e *Engine) resolveExit(pos *Position, bar market.Bar, index int, decide func() signal.Decision) (exitDecision, bool) {
	stopHit, targetHit := thresholdsTouched(pos, bar)

	reason := ExitReason("")
	switch {
	case stopHit && targetHit:
		reason = e.tieBreak(pos, bar)
	case stopHit:
		reason = ExitStop
	case targetHit:
		reason = ExitTarget
	}

	switch reason {
	case ExitStop:
		return exitDecision{reason: ExitStop, price: pos.StopPrice}, true
	case ExitTarget:
		return exitDecision{reason: ExitTarget, price: pos.TargetPrice}, true
	}

	if e.config.ExitOnReversal {
		if d := decide(); d.IsEntry() && d.Direction == pos.Direction.Opposite() {
			return exitDecision{reason: ExitReversal, price: bar.Close}, true
		}
	}

	if e.config.MaxHoldBars > 0 && index-pos.EntryIndex >= e.config.MaxHoldBars {
		return exitDecision{reason: ExitTime, price: bar.Close}, true
	}

	return exitDecision{}, false
}
