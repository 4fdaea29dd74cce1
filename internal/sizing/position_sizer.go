// Package sizing computes risk-scaled trade notionals.
package sizing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidStopDistance is returned when the stop is on the wrong side of, or equal to, the entry
	ErrInvalidStopDistance = errors.New("stop distance must be positive")
	// ErrInvalidRisk is returned for a risk fraction outside (0, 1]
	ErrInvalidRisk = errors.New("risk fraction must be in (0, 1]")
	// ErrInvalidEquity is returned when there is no equity left to risk
	ErrInvalidEquity = errors.New("equity must be positive")
	// ErrInvalidPrice is returned for a non-positive entry price
	ErrInvalidPrice = errors.New("entry price must be positive")
)

// Size is the result of sizing one entry
type Size struct {
	Notional        decimal.Decimal // quote currency exposure at entry
	Quantity        decimal.Decimal // base units, Notional / entry
	RiskAmount      decimal.Decimal // equity lost by a full stop exit, before fees
	StopDistancePct decimal.Decimal // |entry - stop| / entry as a fraction
	Capped          bool            // notional was limited by leverage
}

// Sizer turns equity, risk and stop distance into a position size.
// A full stop exit loses exactly equity * risk unless leverage caps the notional.
type Sizer struct {
	// Leverage caps notional at equity * Leverage; zero disables the cap.
	Leverage decimal.Decimal
}

// NewSizer creates a sizer with an optional leverage cap
func NewSizer(leverage decimal.Decimal) (*Sizer, error) {
	if leverage.IsNegative() {
		return nil, fmt.Errorf("leverage must not be negative, got %s", leverage)
	}
	return &Sizer{Leverage: leverage}, nil
}

// StopDistance returns |entry - stop| / entry for a stop on the adverse side of entry.
// long selects the side; a stop on the favourable side yields ErrInvalidStopDistance.
func StopDistance(entry, stop decimal.Decimal, long bool) (decimal.Decimal, error) {
	if !entry.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	distance := entry.Sub(stop)
	if !long {
		distance = stop.Sub(entry)
	}
	if !distance.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: entry %s, stop %s", ErrInvalidStopDistance, entry, stop)
	}
	return distance.Div(entry), nil
}

// Size computes the notional for an entry. It fails fast instead of returning
// an unusable size.
func (s *Sizer) Size(equity, riskPct, entry, stop decimal.Decimal, long bool) (Size, error) {
	if !equity.IsPositive() {
		return Size{}, fmt.Errorf("%w, got %s", ErrInvalidEquity, equity)
	}
	if !riskPct.IsPositive() || riskPct.GreaterThan(decimal.NewFromInt(1)) {
		return Size{}, fmt.Errorf("%w, got %s", ErrInvalidRisk, riskPct)
	}

	distance, err := StopDistance(entry, stop, long)
	if err != nil {
		return Size{}, err
	}

	riskAmount := equity.Mul(riskPct)
	notional := riskAmount.Div(distance)

	capped := false
	if s.Leverage.IsPositive() {
		limit := equity.Mul(s.Leverage)
		if notional.GreaterThan(limit) {
			notional = limit
			riskAmount = notional.Mul(distance)
			capped = true
		}
	}

	return Size{
		Notional:        notional,
		Quantity:        notional.Div(entry),
		RiskAmount:      riskAmount,
		StopDistancePct: distance,
		Capped:          capped,
	}, nil
}
