package backtesting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	mutedColor = lipgloss.Color("#6272A4")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF87")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	rule = strings.Repeat("─", 55)
)

// TradeLogHeader is the column order of WriteTradeLog
var TradeLogHeader = []string{
	"id", "symbol", "direction", "signal_index", "entry_index", "exit_index",
	"entry_time", "exit_time", "entry_price", "exit_price", "stop_price", "target_price",
	"notional", "quantity", "risk_pct", "fees", "pnl_pct", "pnl_amount", "hold_bars", "exit_reason",
}

// Reporter generates reports from replay results
type Reporter struct{}

// NewReporter creates a new reporter
func NewReporter() *Reporter {
	return &Reporter{}
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(sectionStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(rule))
	sb.WriteString("\n")
}

// GenerateReport generates a formatted text report
func (r *Reporter) GenerateReport(result *Result) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("REPLAY REPORT  %s", result.Symbol)))
	sb.WriteString("\n\n")

	section(&sb, "RUN")
	sb.WriteString(fmt.Sprintf("Bars:                 %d\n", result.Stats.Bars))
	sb.WriteString(fmt.Sprintf("Signals:              %d (dropped %d)\n", result.Stats.Signals, result.Stats.DroppedSignals))
	sb.WriteString(fmt.Sprintf("Insufficient Bars:    %d\n", result.Stats.InsufficientBars))
	sb.WriteString(fmt.Sprintf("Orders:               %d placed, %d filled, %d expired\n",
		result.Stats.OrdersPlaced, result.Stats.OrdersFilled, result.Stats.OrdersExpired))
	if result.Stats.Halted {
		sb.WriteString("Halted:               equity exhausted\n")
	}
	sb.WriteString("\n")

	if !result.HasMetrics() {
		section(&sb, "NO RESULT")
		reason := "no trades"
		if result.NoResult != nil {
			reason = result.NoResult.Error()
		}
		sb.WriteString(fmt.Sprintf("%s\n", reason))
		return sb.String()
	}

	m := result.Metrics

	section(&sb, "PERFORMANCE")
	sb.WriteString(fmt.Sprintf("Total Return:         $%s (%s%%)\n", m.TotalReturn.StringFixed(2), m.TotalReturnPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Final Equity:         $%s\n", m.FinalEquity.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Max Drawdown:         %s%%\n", m.MaxDrawdownPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Return/Drawdown:      %s\n\n", m.ReturnDrawdownRatio.StringFixed(2)))

	section(&sb, "TRADES")
	sb.WriteString(fmt.Sprintf("Total Trades:         %d\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("Winning Trades:       %d\n", m.WinningTrades))
	sb.WriteString(fmt.Sprintf("Losing Trades:        %d\n", m.LosingTrades))
	sb.WriteString(fmt.Sprintf("Win Rate:             %s%%\n", m.WinRate.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Avg Hold:             %s bars\n", m.AvgHoldBars.StringFixed(1)))
	for _, reason := range ExitReasons() {
		if n := m.ExitReasons[reason]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %-20s%d\n", reason, n))
		}
	}
	sb.WriteString("\n")

	section(&sb, "PROFIT/LOSS")
	sb.WriteString(fmt.Sprintf("Profit Factor:        %s\n", formatProfitFactor(m.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("Avg Win:              $%s (%s%%)\n", m.AverageWin.StringFixed(2), m.AverageWinPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Avg Loss:             $%s (%s%%)\n", m.AverageLoss.StringFixed(2), m.AverageLossPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Largest Win:          $%s\n", m.LargestWin.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Largest Loss:         $%s\n", m.LargestLoss.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Trade Std Dev:        %s%%\n\n", m.PnLStdDevPct.StringFixed(2)))

	section(&sb, "RECENT TRADES (Last 10)")
	start := len(result.Trades) - 10
	if start < 0 {
		start = 0
	}
	for _, trade := range result.Trades[start:] {
		sb.WriteString(fmt.Sprintf("%s %-5s entry=%s exit=%s pnl=%s%% %s (%s)\n",
			trade.EntryTime.Format("01-02 15:04"),
			trade.Direction,
			trade.EntryPrice.StringFixed(2),
			trade.ExitPrice.StringFixed(2),
			trade.PnLPct.StringFixed(2),
			trade.ExitReason,
			formatDuration(trade.ExitTime.Sub(trade.EntryTime)),
		))
	}

	return sb.String()
}

// GenerateSummary generates a short summary
func (r *Reporter) GenerateSummary(result *Result) string {
	if !result.HasMetrics() {
		return fmt.Sprintf("%s: no result (%d signals, %d orders expired)",
			result.Symbol, result.Stats.Signals, result.Stats.OrdersExpired)
	}
	m := result.Metrics
	return fmt.Sprintf(
		"Return: %s%% | Trades: %d | Win Rate: %s%% | Max DD: %s%% | Profit Factor: %s",
		m.TotalReturnPct.StringFixed(2),
		m.TotalTrades,
		m.WinRate.StringFixed(2),
		m.MaxDrawdownPct.StringFixed(2),
		formatProfitFactor(m.ProfitFactor),
	)
}

// WriteTradeLog writes one CSV row per trade, preceded by TradeLogHeader.
func (r *Reporter) WriteTradeLog(w io.Writer, trades []Trade) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TradeLogHeader); err != nil {
		return fmt.Errorf("failed to write trade log header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.ID,
			t.Symbol,
			t.Direction.String(),
			strconv.Itoa(t.SignalIndex),
			strconv.Itoa(t.EntryIndex),
			strconv.Itoa(t.ExitIndex),
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.StopPrice.String(),
			t.TargetPrice.String(),
			t.Notional.StringFixed(8),
			t.Quantity.StringFixed(8),
			t.RiskPct.String(),
			t.Fees.StringFixed(8),
			t.PnLPct.StringFixed(6),
			t.PnLAmount.StringFixed(8),
			strconv.Itoa(t.HoldBars),
			string(t.ExitReason),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write trade %s: %w", t.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatProfitFactor(pf decimal.NullDecimal) string {
	if !pf.Valid {
		return "n/a"
	}
	return pf.Decimal.StringFixed(2)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd%dh", days, hours)
}
