package backtesting

import (
	"github.com/guyghost/replay/internal/portfolio"
	"github.com/guyghost/replay/pkg/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Metrics summarizes one replay. Percent fields are in percent units (1.5 = 1.5%).
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal

	AverageWin     decimal.Decimal
	AverageLoss    decimal.Decimal // negative or zero
	AverageWinPct  decimal.Decimal
	AverageLossPct decimal.Decimal
	LargestWin     decimal.Decimal
	LargestLoss    decimal.Decimal

	TotalReturn         decimal.Decimal
	TotalReturnPct      decimal.Decimal
	MaxDrawdownPct      decimal.Decimal // most negative drawdown, zero when equity never fell
	ReturnDrawdownRatio decimal.Decimal // |return / drawdown|, zero when drawdown is zero
	ProfitFactor        decimal.NullDecimal

	ExitReasons  map[ExitReason]int
	AvgHoldBars  decimal.Decimal
	PnLStdDevPct decimal.Decimal
	FinalEquity  decimal.Decimal
}

// ComputeMetrics aggregates closed trades and the equity curve.
// It returns ErrNoTrades for an empty trade list. Breakeven trades count as losses.
func ComputeMetrics(trades []Trade, curve []portfolio.EquityPoint, initial decimal.Decimal) (*Metrics, error) {
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	m := &Metrics{
		TotalTrades: len(trades),
		ExitReasons: make(map[ExitReason]int),
	}

	var (
		grossProfit, grossLoss decimal.Decimal
		winPctSum, lossPctSum  decimal.Decimal
		netPnL                 decimal.Decimal
		holdBars               int
	)
	pnlPcts := make([]decimal.Decimal, 0, len(trades))

	for _, t := range trades {
		m.ExitReasons[t.ExitReason]++
		netPnL = netPnL.Add(t.PnLAmount)
		holdBars += t.HoldBars
		pnlPcts = append(pnlPcts, t.PnLPct)

		if t.IsWin() {
			m.WinningTrades++
			grossProfit = grossProfit.Add(t.PnLAmount)
			winPctSum = winPctSum.Add(t.PnLPct)
			if t.PnLAmount.GreaterThan(m.LargestWin) {
				m.LargestWin = t.PnLAmount
			}
			continue
		}

		m.LosingTrades++
		grossLoss = grossLoss.Add(t.PnLAmount.Abs())
		lossPctSum = lossPctSum.Add(t.PnLPct)
		if t.PnLAmount.LessThan(m.LargestLoss) {
			m.LargestLoss = t.PnLAmount
		}
	}

	total := decimal.NewFromInt(int64(m.TotalTrades))
	m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).Div(total).Mul(hundred)

	if m.WinningTrades > 0 {
		wins := decimal.NewFromInt(int64(m.WinningTrades))
		m.AverageWin = grossProfit.Div(wins)
		m.AverageWinPct = winPctSum.Div(wins)
	}
	if m.LosingTrades > 0 {
		losses := decimal.NewFromInt(int64(m.LosingTrades))
		m.AverageLoss = grossLoss.Neg().Div(losses)
		m.AverageLossPct = lossPctSum.Div(losses)
	}
	if grossLoss.IsPositive() {
		m.ProfitFactor = decimal.NewNullDecimal(grossProfit.Div(grossLoss))
	}

	m.FinalEquity = initial.Add(netPnL)
	m.TotalReturn = netPnL
	m.TotalReturnPct = utils.PercentChange(initial, m.FinalEquity)

	for _, p := range curve {
		if p.DrawdownPct.LessThan(m.MaxDrawdownPct) {
			m.MaxDrawdownPct = p.DrawdownPct
		}
	}
	m.ReturnDrawdownRatio = utils.SafeDiv(m.TotalReturnPct, m.MaxDrawdownPct).Abs()

	m.AvgHoldBars = decimal.NewFromInt(int64(holdBars)).Div(total)
	m.PnLStdDevPct = utils.StandardDeviation(pnlPcts)

	return m, nil
}
