package sizing

import (
	"fmt"

	"github.com/guyghost/replay/pkg/utils"
	"github.com/shopspring/decimal"
)

// DynamicRisk scales the risk fraction after each closed trade: up after a win,
// down after a loss, always within [Min, Max].
type DynamicRisk struct {
	Enabled        bool
	Min            decimal.Decimal
	Max            decimal.Decimal
	WinMultiplier  decimal.Decimal
	LossMultiplier decimal.Decimal
}

// RiskState is the risk carried from one trade to the next. It is a value;
// callers thread it explicitly.
type RiskState struct {
	Current           decimal.Decimal
	ConsecutiveWins   int
	ConsecutiveLosses int
}

// Validate checks the bounds against the base risk
func (d DynamicRisk) Validate(base decimal.Decimal) error {
	if !d.Enabled {
		return nil
	}
	if !d.Min.IsPositive() || d.Max.LessThan(d.Min) {
		return fmt.Errorf("dynamic risk bounds invalid: min %s, max %s", d.Min, d.Max)
	}
	if d.Max.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("dynamic risk max %s above 1", d.Max)
	}
	if !utils.IsWithinRange(base, d.Min, d.Max) {
		return fmt.Errorf("base risk %s outside dynamic bounds [%s, %s]", base, d.Min, d.Max)
	}
	if !d.WinMultiplier.IsPositive() || !d.LossMultiplier.IsPositive() {
		return fmt.Errorf("dynamic risk multipliers must be positive: win %s, loss %s", d.WinMultiplier, d.LossMultiplier)
	}
	return nil
}

// Start returns the state used for the first trade
func (d DynamicRisk) Start(base decimal.Decimal) RiskState {
	return RiskState{Current: base}
}

// Next returns the state for the trade after one that won (or lost).
func (d DynamicRisk) Next(state RiskState, won bool) RiskState {
	next := state
	if won {
		next.ConsecutiveWins++
		next.ConsecutiveLosses = 0
	} else {
		next.ConsecutiveLosses++
		next.ConsecutiveWins = 0
	}
	if !d.Enabled {
		return next
	}

	multiplier := d.LossMultiplier
	if won {
		multiplier = d.WinMultiplier
	}
	next.Current = utils.ClampDecimal(state.Current.Mul(multiplier), d.Min, d.Max)
	return next
}
