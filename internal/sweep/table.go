package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guyghost/replay/internal/backtesting"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))
)

// TableHeader is the column order of WriteTable
var TableHeader = []string{
	"rank", "index", "status", "score", "trades", "win_rate", "total_return_pct",
	"max_drawdown_pct", "profit_factor", "params", "reason",
}

// WriteTable writes every outcome as CSV: ranked first, then skipped, failed and cancelled.
func WriteTable(w io.Writer, report *Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TableHeader); err != nil {
		return fmt.Errorf("failed to write table header: %w", err)
	}

	rows := make([][]string, 0, report.Total)
	for i, o := range report.Ranked {
		rows = append(rows, tableRow(strconv.Itoa(i+1), o))
	}
	for _, group := range [][]Outcome{report.Skipped, report.Failed, report.Cancelled} {
		for _, o := range group {
			rows = append(rows, tableRow("", o))
		}
	}

	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func tableRow(rank string, o Outcome) []string {
	row := []string{rank, strconv.Itoa(o.Index), string(o.Status), "", "", "", "", "", "", o.Params.String(), reason(o)}
	if o.Status == StatusOK {
		row[3] = o.Score.String()
	}
	if m := o.Metrics; m != nil {
		row[4] = strconv.Itoa(m.TotalTrades)
		row[5] = m.WinRate.StringFixed(2)
		row[6] = m.TotalReturnPct.StringFixed(4)
		row[7] = m.MaxDrawdownPct.StringFixed(4)
		row[8] = profitFactor(m)
	}
	return row
}

func reason(o Outcome) string {
	switch {
	case o.SkipReason != "":
		return o.SkipReason
	case o.Err != nil:
		return o.Err.Error()
	}
	return o.Score.Note
}

func profitFactor(m *backtesting.Metrics) string {
	if !m.ProfitFactor.Valid {
		return "n/a"
	}
	return m.ProfitFactor.Decimal.StringFixed(2)
}

// RenderTable renders the top ranked outcomes as aligned text; limit <= 0 shows all.
func RenderTable(report *Report, limit int) string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("SWEEP RESULTS  objective=%s", report.Objective)))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d combinations: %d ranked, %d skipped, %d failed, %d cancelled in %s",
		report.Total, len(report.Ranked), len(report.Skipped), len(report.Failed), len(report.Cancelled), report.Elapsed.Round(time.Millisecond))))
	sb.WriteString("\n\n")

	ranked := report.Ranked
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	sb.WriteString(fmt.Sprintf("%-5s %-10s %-7s %-9s %-10s %-9s %s\n", "RANK", "SCORE", "TRADES", "WIN%", "RETURN%", "MAXDD%", "PARAMS"))
	for i, o := range ranked {
		params := o.Params.String()
		if o.Score.Note != "" {
			params += " (" + o.Score.Note + ")"
		}
		sb.WriteString(fmt.Sprintf("%-5d %-10s %-7d %-9s %-10s %-9s %s\n",
			i+1,
			o.Score.String(),
			o.Metrics.TotalTrades,
			o.Metrics.WinRate.StringFixed(2),
			o.Metrics.TotalReturnPct.StringFixed(2),
			o.Metrics.MaxDrawdownPct.StringFixed(2),
			params,
		))
	}

	for _, o := range report.Failed {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("failed #%d %s: %s", o.Index, o.Params.String(), reason(o))))
		sb.WriteString("\n")
	}

	return sb.String()
}
