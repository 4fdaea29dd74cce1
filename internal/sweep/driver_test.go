package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/indicators"
	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichedSeries(t *testing.T, bars []market.Bar) *market.Series {
	t.Helper()
	icfg := indicators.DefaultConfig()
	icfg.RSIPeriod = 7
	provider, err := indicators.NewStandard(icfg)
	require.NoError(t, err)

	enriched, err := provider.Enrich(bars)
	require.NoError(t, err)
	return testutils.NewSeries(t, enriched)
}

func sampleSeries(t *testing.T) *market.Series {
	t.Helper()
	raw := backtesting.NewDataLoader().GenerateSampleData(testutils.Symbol, testutils.BaseTime, time.Hour, 30*24, 30000)
	return enrichedSeries(t, raw.Bars)
}

func sweepBase() Base {
	base := testBase()
	base.Config.WarmupBars = 21
	return base
}

func testGrid() Grid {
	return Grid{Params: []Param{
		{Name: "stop_mult", Values: values(1, 2)},
		{Name: "risk_pct", Values: values(0.01, 0.02)},
	}}
}

func outcomeIndexes(outcomes []Outcome) []int {
	out := make([]int, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Index
	}
	return out
}

func TestDriver_RanksEveryCombination(t *testing.T) {
	driver, err := NewDriver(sweepBase(), Options{Workers: 2})
	require.NoError(t, err)

	ctx, cancel := testutils.CreateTestContext()
	defer cancel()
	report, err := driver.Run(ctx, sampleSeries(t), testGrid())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Ranked, 4)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Cancelled)

	for i := 1; i < len(report.Ranked); i++ {
		prev, cur := report.Ranked[i-1], report.Ranked[i]
		assert.False(t, prev.Score.Less(cur.Score), "ranked best first")
		if !cur.Score.Less(prev.Score) {
			assert.Less(t, prev.Index, cur.Index, "ties keep combination order")
		}
	}

	best, ok := report.Best()
	require.True(t, ok)
	assert.Equal(t, report.Ranked[0].Index, best.Index)
}

func TestDriver_DeterministicAcrossWorkerCounts(t *testing.T) {
	series := sampleSeries(t)

	run := func(workers int) *Report {
		driver, err := NewDriver(sweepBase(), Options{Workers: workers})
		require.NoError(t, err)
		report, err := driver.Run(context.Background(), series, testGrid())
		require.NoError(t, err)
		return report
	}

	serial, parallel := run(1), run(4)
	require.Equal(t, outcomeIndexes(serial.Ranked), outcomeIndexes(parallel.Ranked))
	for i := range serial.Ranked {
		assert.Equal(t, serial.Ranked[i].Metrics, parallel.Ranked[i].Metrics)
		assert.Equal(t, serial.Ranked[i].Score, parallel.Ranked[i].Score)
	}
}

func TestDriver_FailuresDoNotAbort(t *testing.T) {
	grid := Grid{Params: []Param{
		{Name: "risk_pct", Values: values(0, 0.01)},
	}}
	driver, err := NewDriver(sweepBase(), Options{Workers: 2})
	require.NoError(t, err)

	report, err := driver.Run(context.Background(), sampleSeries(t), grid)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, 0, report.Failed[0].Index)
	assert.True(t, backtesting.IsConfigError(report.Failed[0].Err))
	require.Len(t, report.Ranked, 1)
	assert.Equal(t, 1, report.Ranked[0].Index)
}

func TestDriver_UnknownParamFails(t *testing.T) {
	grid := Grid{Params: []Param{{Name: "kelly_fraction", Values: values(0.5)}}}
	driver, err := NewDriver(sweepBase(), Options{})
	require.NoError(t, err)

	report, err := driver.Run(context.Background(), sampleSeries(t), grid)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, ErrUnknownParam)
}

func TestDriver_SkipReasons(t *testing.T) {
	t.Run("below min trades", func(t *testing.T) {
		driver, err := NewDriver(sweepBase(), Options{MinTrades: 100000})
		require.NoError(t, err)
		report, err := driver.Run(context.Background(), sampleSeries(t), testGrid())
		require.NoError(t, err)

		assert.Empty(t, report.Ranked)
		require.Len(t, report.Skipped, 4)
		assert.Contains(t, report.Skipped[0].SkipReason, "below minimum")
		assert.NotNil(t, report.Skipped[0].Metrics)
	})

	t.Run("no trades", func(t *testing.T) {
		flat := enrichedSeries(t, testutils.FlatBars(200, 100))
		driver, err := NewDriver(sweepBase(), Options{})
		require.NoError(t, err)
		report, err := driver.Run(context.Background(), flat, testGrid())
		require.NoError(t, err)

		require.Len(t, report.Skipped, 4)
		assert.Equal(t, "no trades", report.Skipped[0].SkipReason)
		assert.Nil(t, report.Skipped[0].Metrics)
	})
}

func TestDriver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver, err := NewDriver(sweepBase(), Options{Workers: 2})
	require.NoError(t, err)
	report, err := driver.Run(ctx, sampleSeries(t), testGrid())
	require.NoError(t, err)

	assert.Empty(t, report.Ranked)
	require.Len(t, report.Cancelled, 4)
	for _, o := range report.Cancelled {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestDriver_InvalidInput(t *testing.T) {
	driver, err := NewDriver(sweepBase(), Options{})
	require.NoError(t, err)

	_, err = driver.Run(context.Background(), sampleSeries(t), Grid{})
	assert.Error(t, err)

	_, err = driver.Run(context.Background(), &market.Series{}, testGrid())
	assert.ErrorIs(t, err, market.ErrEmptySeries)

	_, err = NewDriver(sweepBase(), Options{Objective: "sharpe"})
	assert.Error(t, err)

	d, err := NewDriver(sweepBase(), Options{})
	require.NoError(t, err)
	assert.Positive(t, d.Options().Workers)
	assert.Equal(t, ObjectiveReturnDrawdown, d.Options().Objective)
}

func TestWriteAndRenderTable(t *testing.T) {
	driver, err := NewDriver(sweepBase(), Options{Workers: 2})
	require.NoError(t, err)
	grid := Grid{Params: []Param{{Name: "risk_pct", Values: values(0, 0.01, 0.02)}}}
	report, err := driver.Run(context.Background(), sampleSeries(t), grid)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, report))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, TableHeader, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "ok", records[1][2])
	assert.Equal(t, "failed", records[3][2])
	assert.Equal(t, "risk_pct=0", records[3][9])
	assert.NotEmpty(t, records[3][10])

	text := RenderTable(report, 1)
	assert.Contains(t, text, "SWEEP RESULTS")
	assert.Contains(t, text, "3 combinations: 2 ranked, 0 skipped, 1 failed, 0 cancelled")
	assert.Contains(t, text, "failed #0")
}

// flawlessBase trades once on winningBars: fill at 99, target 102.96 hit two bars later.
func flawlessBase() Base {
	base := testBase()
	cfg := &base.Config
	cfg.LimitMode = backtesting.LimitPercent
	cfg.LimitOffsetPct = decimal.NewFromFloat(0.01)
	cfg.StopMode = backtesting.DistancePercent
	cfg.StopPct = decimal.NewFromFloat(0.02)
	cfg.TargetPct = decimal.NewFromFloat(0.04)
	cfg.MaxWaitBars = 3
	cfg.MaxHoldBars = 0
	cfg.WarmupBars = 0
	return base
}

func winningBars() []market.Bar {
	bars := testutils.FlatBars(20, 100)
	bars[7] = testutils.Bar(7, 99.5, 99.8, 98.9, 99.2)
	bars[9] = testutils.Bar(9, 100, 103.5, 99.8, 103)
	testutils.SetRSI(bars, 40, map[int]float64{5: 25})
	return bars
}

func TestDriver_ZeroDrawdownRunsScoreZero(t *testing.T) {
	for _, objective := range []Objective{ObjectiveReturnDrawdown, ObjectiveProfitFactor} {
		t.Run(string(objective), func(t *testing.T) {
			driver, err := NewDriver(flawlessBase(), Options{Workers: 2, Objective: objective})
			require.NoError(t, err)
			grid := Grid{Params: []Param{{Name: "risk_pct", Values: values(0.01, 0.02)}}}
			ctx, cancel := testutils.CreateTestContext()
			defer cancel()
			report, err := driver.Run(ctx, testutils.NewSeries(t, winningBars()), grid)
			require.NoError(t, err)

			require.Len(t, report.Ranked, 2)
			assert.Equal(t, []int{0, 1}, outcomeIndexes(report.Ranked))
			for _, o := range report.Ranked {
				require.NotNil(t, o.Metrics)
				assert.Equal(t, 1, o.Metrics.TotalTrades)
				assert.True(t, o.Metrics.MaxDrawdownPct.IsZero())
				assert.True(t, o.Metrics.TotalReturnPct.IsPositive())
				assert.True(t, o.Score.Value.IsZero(), "score %s", o.Score)
				assert.NotEmpty(t, o.Score.Note)
			}

			var buf bytes.Buffer
			require.NoError(t, WriteTable(&buf, report))
			assert.NotContains(t, buf.String(), "inf")
			records, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "0.0000", records[1][3])
			assert.Equal(t, report.Ranked[0].Score.Note, records[1][10])

			text := RenderTable(report, 0)
			assert.NotContains(t, text, "inf")
			assert.Contains(t, text, report.Ranked[0].Score.Note)
		})
	}
}
