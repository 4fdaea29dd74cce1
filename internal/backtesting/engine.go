package backtesting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guyghost/replay/internal/logger"
	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/portfolio"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/sizing"
	"github.com/guyghost/replay/internal/telemetry"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Engine replays a bar series through one signal generator under one configuration.
// An Engine holds no per-run state and may be reused for sequential runs.
type Engine struct {
	config    Config
	generator signal.Generator
	sizer     *sizing.Sizer
	log       *logger.Logger

	// Callbacks
	onTrade        func(*Trade)
	onEquityUpdate func(portfolio.EquityPoint)
}

// runState is everything that changes during one Run
type runState struct {
	series   *market.Series
	tracker  *portfolio.Tracker
	risk     sizing.RiskState
	pending  *PendingOrder
	position *Position
	trades   []Trade
	stats    RunStats
}

// NewEngine creates a new backtesting engine
func NewEngine(config Config, generator signal.Generator) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if generator == nil {
		return nil, NewConfigError("strategy", errors.New("signal generator is required"))
	}
	sizer, err := sizing.NewSizer(config.Leverage)
	if err != nil {
		return nil, NewConfigError("leverage", err)
	}

	return &Engine{
		config:    config,
		generator: generator,
		sizer:     sizer,
		log:       logger.Component("backtesting").Strategy(generator.Name()),
	}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// SetOnTrade sets the callback for closed trades
func (e *Engine) SetOnTrade(callback func(*Trade)) {
	e.onTrade = callback
}

// SetOnEquityUpdate sets the callback for equity updates
func (e *Engine) SetOnEquityUpdate(callback func(portfolio.EquityPoint)) {
	e.onEquityUpdate = callback
}

// Run replays an indicator-enriched series. A run without trades is not an error:
// the Result carries ErrNoTrades in NoResult and nil Metrics.
func (e *Engine) Run(series *market.Series) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, market.ErrEmptySeries
	}

	started := time.Now()
	tracker, err := portfolio.NewTracker(e.config.InitialCapital)
	if err != nil {
		return nil, NewConfigError("initial_capital", err)
	}

	st := &runState{
		series:  series,
		tracker: tracker,
		risk:    e.config.DynamicRisk.Start(e.config.RiskPct),
		trades:  make([]Trade, 0),
	}
	st.stats.Bars = series.Len()

	log := e.log.Symbol(series.Symbol)
	log.Debug("replay started", "bars", series.Len(), "warmup", e.config.WarmupBars)

	for i := 1; i < series.Len(); i++ {
		if err := e.step(st, i); err != nil {
			telemetry.RecordReplay("failed", time.Since(started))
			return nil, err
		}
	}

	last := series.Len() - 1
	if st.position != nil && e.config.CloseAtEnd {
		bar := series.Bars[last]
		e.closePosition(st, last, bar, exitDecision{reason: ExitEndOfData, price: bar.Close})
	}

	result := &Result{
		Symbol:      series.Symbol,
		Trades:      st.trades,
		EquityCurve: tracker.Curve(),
		FinalEquity: tracker.Equity(),
		Stats:       st.stats,
	}

	metrics, err := ComputeMetrics(st.trades, result.EquityCurve, st.tracker.Initial())
	switch {
	case errors.Is(err, ErrNoTrades):
		result.NoResult = err
		telemetry.RecordReplay("no_trades", time.Since(started))
	case err != nil:
		return nil, fmt.Errorf("failed to compute metrics: %w", err)
	default:
		result.Metrics = metrics
		telemetry.RecordReplay("ok", time.Since(started))
	}

	log.Debug("replay finished",
		"trades", len(st.trades),
		"final_equity", result.FinalEquity.String(),
		"orders_expired", st.stats.OrdersExpired,
	)

	return result, nil
}

// step advances the state machine by bar i: exits, then the pending order, then new signals.
func (e *Engine) step(st *runState, i int) error {
	bars := st.series.Bars
	bar := bars[i]

	var (
		decision  signal.Decision
		evaluated bool
	)
	decide := func() signal.Decision {
		if !evaluated {
			decision = e.generator.Evaluate(bar, bars[i-1])
			evaluated = true
		}
		return decision
	}

	if pos := st.position; pos != nil && pos.EntryIndex < i {
		if exit, ok := e.resolveExit(pos, bar, i, decide); ok {
			e.closePosition(st, i, bar, exit)
		}
	}

	if order := st.pending; order != nil {
		switch {
		case limitTouched(order, bar):
			if err := e.fill(st, order, i, bar); err != nil {
				return err
			}
		case i >= order.ExpiresAt:
			st.pending = nil
			st.stats.OrdersExpired++
			telemetry.RecordOrder("expired")
			e.log.Order(map[string]any{
				"event":        "expired",
				"signal_index": order.SignalIndex,
				"bar_index":    i,
			})
		}
	}

	if st.stats.Halted || st.position != nil || st.pending != nil || i < e.config.WarmupBars {
		return nil
	}

	d := decide()
	if d.Insufficient {
		st.stats.InsufficientBars++
		return nil
	}
	if !d.IsEntry() {
		return nil
	}

	st.stats.Signals++
	order, err := e.newPendingOrder(d, bar, i)
	if err != nil {
		st.stats.DroppedSignals++
		e.log.Order(map[string]any{
			"event":     "dropped",
			"reason":    err.Error(),
			"bar_index": i,
		})
		return nil
	}
	st.pending = order
	st.stats.OrdersPlaced++
	telemetry.RecordOrder("placed")
	e.log.Order(map[string]any{
		"event":       "placed",
		"direction":   order.Direction.String(),
		"limit_price": order.LimitPrice.String(),
		"bar_index":   i,
	})

	return nil
}

// fill opens a position from the pending order at its limit price
func (e *Engine) fill(st *runState, order *PendingOrder, i int, bar market.Bar) error {
	st.pending = nil
	entry := order.LimitPrice
	stop, target := e.levels(order, entry)

	size, err := e.sizer.Size(st.tracker.Equity(), st.risk.Current, entry, stop, order.Direction == signal.Long)
	switch {
	case errors.Is(err, sizing.ErrInvalidEquity):
		st.stats.Halted = true
		e.log.Risk(map[string]any{
			"event":     "halted",
			"equity":    st.tracker.Equity().String(),
			"bar_index": i,
		})
		return nil
	case errors.Is(err, sizing.ErrInvalidRisk):
		return NewConfigError("risk_pct", err)
	case err != nil:
		return NewConfigError("stop_distance", err)
	}

	st.position = &Position{
		Direction:   order.Direction,
		EntryPrice:  entry,
		EntryIndex:  i,
		EntryTime:   bar.Timestamp,
		SignalIndex: order.SignalIndex,
		StopPrice:   stop,
		TargetPrice: target,
		Notional:    size.Notional,
		Quantity:    size.Quantity,
		RiskPct:     st.risk.Current,
		RiskAmount:  size.RiskAmount,
	}
	st.stats.OrdersFilled++
	telemetry.RecordOrder("filled")
	e.log.Order(map[string]any{
		"event":       "filled",
		"direction":   order.Direction.String(),
		"entry_price": entry.String(),
		"stop":        stop.String(),
		"target":      target.String(),
		"bar_index":   i,
	})

	return nil
}

// closePosition books the exit as a Trade and clears the position
func (e *Engine) closePosition(st *runState, i int, bar market.Bar, exit exitDecision) {
	pos := st.position
	st.position = nil

	move := exit.price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(pos.Direction.Sign())
	roundTrip := e.config.FeePct.Mul(two)
	fees := pos.Notional.Mul(roundTrip)

	trade := Trade{
		ID:          tradeID(st.series.Symbol, pos, i),
		Symbol:      st.series.Symbol,
		Direction:   pos.Direction,
		SignalIndex: pos.SignalIndex,
		EntryIndex:  pos.EntryIndex,
		ExitIndex:   i,
		EntryTime:   pos.EntryTime,
		ExitTime:    bar.Timestamp,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exit.price,
		StopPrice:   pos.StopPrice,
		TargetPrice: pos.TargetPrice,
		Notional:    pos.Notional,
		Quantity:    pos.Quantity,
		RiskPct:     pos.RiskPct,
		Fees:        fees,
		PnLPct:      move.Sub(roundTrip).Mul(hundred),
		PnLAmount:   pos.Notional.Mul(move).Sub(fees),
		HoldBars:    i - pos.EntryIndex,
		ExitReason:  exit.reason,
	}
	st.trades = append(st.trades, trade)

	point := st.tracker.Apply(i, bar.Timestamp, trade.PnLAmount)
	st.risk = e.config.DynamicRisk.Next(st.risk, trade.IsWin())
	if !st.tracker.Equity().IsPositive() {
		st.stats.Halted = true
	}

	telemetry.RecordTrade(string(trade.ExitReason))
	e.log.Debug("trade closed",
		"id", trade.ID,
		"direction", trade.Direction.String(),
		"exit_reason", string(trade.ExitReason),
		"pnl_pct", trade.PnLPct.StringFixed(4),
		"equity", point.Equity.String(),
	)

	if e.onTrade != nil {
		e.onTrade(&st.trades[len(st.trades)-1])
	}
	if e.onEquityUpdate != nil {
		e.onEquityUpdate(point)
	}
}

// tradeID derives a stable identifier so identical runs produce identical logs
func tradeID(symbol string, pos *Position, exitIndex int) string {
	name := fmt.Sprintf("%s|%d|%d|%s", symbol, pos.EntryIndex, exitIndex, pos.Direction)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
