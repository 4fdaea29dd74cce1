package backtesting

import (
	"time"

	"github.com/guyghost/replay/internal/portfolio"
	"github.com/guyghost/replay/internal/signal"
	"github.com/shopspring/decimal"
)

// ExitReason is the terminal event that closed a position
type ExitReason string

const (
	ExitStop      ExitReason = "STOP"
	ExitTarget    ExitReason = "TP"
	ExitReversal  ExitReason = "SIGNAL_REVERSAL"
	ExitTime      ExitReason = "TIME"
	ExitEndOfData ExitReason = "END_OF_DATA"
)

// ExitReasons lists every reason in report order
func ExitReasons() []ExitReason {
	return []ExitReason{ExitStop, ExitTarget, ExitReversal, ExitTime, ExitEndOfData}
}

// PendingOrder is a limit order waiting for a fill
type PendingOrder struct {
	Direction   signal.Direction
	LimitPrice  decimal.Decimal
	SignalIndex int
	SignalPrice decimal.Decimal
	ExpiresAt   int // last bar index on which the order may fill

	// Indicator values captured at the signal bar for stop/target placement
	SignalATR       decimal.NullDecimal
	SignalRangeHigh decimal.NullDecimal
	SignalRangeLow  decimal.NullDecimal
}

// Position represents an open position during a replay
type Position struct {
	Direction   signal.Direction
	EntryPrice  decimal.Decimal
	EntryIndex  int
	EntryTime   time.Time
	SignalIndex int
	StopPrice   decimal.Decimal
	TargetPrice decimal.Decimal
	Notional    decimal.Decimal
	Quantity    decimal.Decimal
	RiskPct     decimal.Decimal
	RiskAmount  decimal.Decimal
}

// Trade is a closed position. Trades are append-only.
type Trade struct {
	ID          string
	Symbol      string
	Direction   signal.Direction
	SignalIndex int
	EntryIndex  int
	ExitIndex   int
	EntryTime   time.Time
	ExitTime    time.Time
	EntryPrice  decimal.Decimal
	ExitPrice   decimal.Decimal
	StopPrice   decimal.Decimal
	TargetPrice decimal.Decimal
	Notional    decimal.Decimal
	Quantity    decimal.Decimal
	RiskPct     decimal.Decimal
	Fees        decimal.Decimal
	PnLPct      decimal.Decimal // percent of notional, net of fees
	PnLAmount   decimal.Decimal // quote currency, net of fees
	HoldBars    int
	ExitReason  ExitReason
}

// IsWin reports whether the trade made money after fees
func (t Trade) IsWin() bool {
	return t.PnLAmount.IsPositive()
}

// RunStats counts engine events that do not produce trades
type RunStats struct {
	Bars             int
	Signals          int // directional decisions turned into orders or dropped
	InsufficientBars int // bars skipped because indicators were undefined
	DroppedSignals   int // signals lacking the data needed to place the order
	OrdersPlaced     int
	OrdersFilled     int
	OrdersExpired    int
	Halted           bool // equity exhausted, no further entries
}

// Result is the output of one replay
type Result struct {
	Symbol      string
	Trades      []Trade
	EquityCurve []portfolio.EquityPoint
	FinalEquity decimal.Decimal
	Stats       RunStats

	// Metrics is nil when the run produced no trades; NoResult then holds ErrNoTrades.
	Metrics  *Metrics
	NoResult error
}

// HasMetrics reports whether the run produced a usable metrics summary
func (r *Result) HasMetrics() bool {
	return r != nil && r.Metrics != nil
}
