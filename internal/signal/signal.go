// Package signal turns enriched bars into directional trade proposals.
package signal

import (
	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// Direction is the side of a proposed trade
type Direction int

const (
	None Direction = iota
	Long
	Short
)

// String returns the direction label used in trade logs
func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "NONE"
	}
}

// Opposite returns the reverse direction; None stays None.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return None
	}
}

// Sign is +1 for Long, -1 for Short and 0 otherwise.
func (d Direction) Sign() decimal.Decimal {
	switch d {
	case Long:
		return decimal.NewFromInt(1)
	case Short:
		return decimal.NewFromInt(-1)
	default:
		return decimal.Zero
	}
}

// Decision is the outcome of evaluating one bar.
// Insufficient marks a bar whose indicators are not defined yet; it is never a trade.
type Decision struct {
	Direction    Direction
	Price        decimal.Decimal
	Insufficient bool
}

// Hold is a decision with no trade proposal
func Hold() Decision {
	return Decision{Direction: None}
}

// InsufficientData marks a bar that cannot be evaluated
func InsufficientData() Decision {
	return Decision{Direction: None, Insufficient: true}
}

// Enter proposes a trade at the bar close
func Enter(direction Direction, bar market.Bar) Decision {
	return Decision{Direction: direction, Price: bar.Close}
}

// IsEntry reports whether the decision proposes a trade
func (d Decision) IsEntry() bool {
	return !d.Insufficient && (d.Direction == Long || d.Direction == Short)
}

// Generator is a pure signal rule. Evaluate must only read cur and prev.
type Generator interface {
	Name() string
	Evaluate(cur, prev market.Bar) Decision
}

func defined(values ...decimal.NullDecimal) bool {
	for _, v := range values {
		if !v.Valid {
			return false
		}
	}
	return true
}
