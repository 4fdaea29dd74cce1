package sweep

import (
	"fmt"
	"sort"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/shopspring/decimal"
)

// Objective names the metric combinations are ranked by
type Objective string

const (
	ObjectiveReturnDrawdown Objective = "return_drawdown"
	ObjectiveTotalReturn    Objective = "total_return"
	ObjectiveProfitFactor   Objective = "profit_factor"
	ObjectiveWinRate        Objective = "win_rate"
)

// ParseObjective converts a configuration string into an Objective; empty selects return_drawdown.
func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case "":
		return ObjectiveReturnDrawdown, nil
	case ObjectiveReturnDrawdown, ObjectiveTotalReturn, ObjectiveProfitFactor, ObjectiveWinRate:
		return o, nil
	}
	return "", fmt.Errorf("unknown objective %q", s)
}

// Notes flag scores that rest on a degenerate metric
const (
	NoteZeroDrawdown = "zero drawdown"
	NoteNoLosses     = "no losing trades"
)

// Score is a ranking value. Note is set when the value is the defined
// fallback for a ratio whose denominator is zero.
type Score struct {
	Value decimal.Decimal
	Note  string
}

// Less reports whether s ranks below other
func (s Score) Less(other Score) bool {
	return s.Value.LessThan(other.Value)
}

// String renders the score for tables
func (s Score) String() string {
	return s.Value.StringFixed(4)
}

// Score evaluates the objective on one run's metrics.
// return_drawdown keeps the sign of the return so losing runs rank last and is 0
// without drawdown; profit_factor is 0 without losing trades.
func (o Objective) Score(m *backtesting.Metrics) Score {
	switch o {
	case ObjectiveTotalReturn:
		return Score{Value: m.TotalReturnPct}
	case ObjectiveWinRate:
		return Score{Value: m.WinRate}
	case ObjectiveProfitFactor:
		if !m.ProfitFactor.Valid {
			return Score{Value: decimal.Zero, Note: NoteNoLosses}
		}
		return Score{Value: m.ProfitFactor.Decimal}
	default:
		if m.MaxDrawdownPct.IsZero() {
			return Score{Value: decimal.Zero, Note: NoteZeroDrawdown}
		}
		ratio := m.ReturnDrawdownRatio
		if m.TotalReturnPct.IsNegative() {
			ratio = ratio.Neg()
		}
		return Score{Value: ratio}
	}
}

// rank orders ok outcomes best first; equal scores keep combination order.
func rank(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Score.Less(b.Score) != b.Score.Less(a.Score) {
			return b.Score.Less(a.Score)
		}
		return a.Index < b.Index
	})
}
