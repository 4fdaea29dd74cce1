package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracker_RejectsNonPositiveEquity(t *testing.T) {
	_, err := NewTracker(decimal.Zero)
	assert.Error(t, err)

	_, err = NewTracker(decimal.NewFromInt(-5))
	assert.Error(t, err)
}

func TestTracker_Apply(t *testing.T) {
	tracker, err := NewTracker(decimal.NewFromInt(10000))
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, tracker.Peak().Equal(tracker.Initial()), "peak starts at the initial equity")

	p1 := tracker.Apply(5, start, decimal.NewFromInt(1000))
	assert.True(t, p1.Equity.Equal(decimal.NewFromInt(11000)))
	assert.True(t, p1.Peak.Equal(decimal.NewFromInt(11000)))
	assert.True(t, p1.DrawdownPct.IsZero())

	p2 := tracker.Apply(9, start.Add(time.Hour), decimal.NewFromInt(-2200))
	assert.True(t, p2.Equity.Equal(decimal.NewFromInt(8800)))
	assert.True(t, p2.Peak.Equal(decimal.NewFromInt(11000)))
	assert.True(t, p2.DrawdownPct.Equal(decimal.NewFromInt(-20)), "got %s", p2.DrawdownPct)

	p3 := tracker.Apply(12, start.Add(2*time.Hour), decimal.NewFromInt(1100))
	assert.True(t, p3.DrawdownPct.Equal(decimal.NewFromInt(-10)), "got %s", p3.DrawdownPct)

	assert.True(t, tracker.MaxDrawdownPct().Equal(decimal.NewFromInt(-20)))
	assert.True(t, tracker.Equity().Equal(decimal.NewFromInt(9900)))
	assert.True(t, tracker.TotalReturnPct().Equal(decimal.NewFromInt(-1)))
	assert.True(t, tracker.Peak().Equal(decimal.NewFromInt(11000)))
	assert.True(t, tracker.Initial().Equal(decimal.NewFromInt(10000)))
	assert.Len(t, tracker.Curve(), 3)
}

func TestTracker_DrawdownNeverPositive(t *testing.T) {
	tracker, err := NewTracker(decimal.NewFromInt(1000))
	require.NoError(t, err)

	pnls := []int64{50, -20, 70, -300, 10, 400, -5}
	for i, pnl := range pnls {
		point := tracker.Apply(i, time.Time{}, decimal.NewFromInt(pnl))
		assert.False(t, point.DrawdownPct.IsPositive(), "drawdown at %d is %s", i, point.DrawdownPct)
		assert.True(t, point.Peak.GreaterThanOrEqual(point.Equity))
	}
	assert.False(t, tracker.MaxDrawdownPct().IsPositive())
}

func TestTracker_FirstLossMeasuredFromInitialPeak(t *testing.T) {
	tracker, err := NewTracker(decimal.NewFromInt(1000))
	require.NoError(t, err)

	point := tracker.Apply(3, time.Time{}, decimal.NewFromInt(-100))
	assert.True(t, point.DrawdownPct.Equal(decimal.NewFromInt(-10)))
}

func TestTracker_CurveIsCopy(t *testing.T) {
	tracker, err := NewTracker(decimal.NewFromInt(1000))
	require.NoError(t, err)
	tracker.Apply(1, time.Time{}, decimal.NewFromInt(10))

	curve := tracker.Curve()
	curve[0].Equity = decimal.Zero

	assert.True(t, tracker.Curve()[0].Equity.Equal(decimal.NewFromInt(1010)))
}
