// Package portfolio tracks realized equity and drawdown over a replay.
package portfolio

import (
	"fmt"
	"time"

	"github.com/guyghost/replay/pkg/utils"
	"github.com/shopspring/decimal"
)

// EquityPoint is the account state right after one closed trade
type EquityPoint struct {
	Index       int // bar index of the exit
	Time        time.Time
	Equity      decimal.Decimal
	Peak        decimal.Decimal
	DrawdownPct decimal.Decimal // (equity - peak) / peak * 100, never positive
}

// Tracker accumulates realized P&L. It is owned by a single replay and is not
// safe for concurrent use.
type Tracker struct {
	initial        decimal.Decimal
	equity         decimal.Decimal
	peak           decimal.Decimal
	maxDrawdownPct decimal.Decimal
	curve          []EquityPoint
}

// NewTracker creates a tracker starting at the given equity
func NewTracker(initial decimal.Decimal) (*Tracker, error) {
	if !initial.IsPositive() {
		return nil, fmt.Errorf("initial equity must be positive, got %s", initial)
	}
	return &Tracker{
		initial: initial,
		equity:  initial,
		peak:    initial,
		curve:   make([]EquityPoint, 0),
	}, nil
}

// Apply books the realized P&L of one closed trade and records a curve point.
func (t *Tracker) Apply(index int, at time.Time, pnl decimal.Decimal) EquityPoint {
	t.equity = t.equity.Add(pnl)
	if t.equity.GreaterThan(t.peak) {
		t.peak = t.equity
	}

	drawdown := utils.PercentChange(t.peak, t.equity)
	if drawdown.IsPositive() {
		drawdown = decimal.Zero
	}
	if drawdown.LessThan(t.maxDrawdownPct) {
		t.maxDrawdownPct = drawdown
	}

	point := EquityPoint{
		Index:       index,
		Time:        at,
		Equity:      t.equity,
		Peak:        t.peak,
		DrawdownPct: drawdown,
	}
	t.curve = append(t.curve, point)
	return point
}

// Initial returns the starting equity
func (t *Tracker) Initial() decimal.Decimal {
	return t.initial
}

// Equity returns the current realized equity
func (t *Tracker) Equity() decimal.Decimal {
	return t.equity
}

// Peak returns the highest equity seen so far, including the start
func (t *Tracker) Peak() decimal.Decimal {
	return t.peak
}

// MaxDrawdownPct returns the most negative drawdown of the run, zero when equity never fell
func (t *Tracker) MaxDrawdownPct() decimal.Decimal {
	return t.maxDrawdownPct
}

// TotalReturnPct returns the change from initial to current equity in percent
func (t *Tracker) TotalReturnPct() decimal.Decimal {
	return utils.PercentChange(t.initial, t.equity)
}

// Curve returns a copy of the equity curve
func (t *Tracker) Curve() []EquityPoint {
	dst := make([]EquityPoint, len(t.curve))
	copy(dst, t.curve)
	return dst
}
