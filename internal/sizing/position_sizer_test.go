package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func TestSizer_FullStopLosesExactlyRisk(t *testing.T) {
	sizer, err := NewSizer(decimal.Zero)
	require.NoError(t, err)

	size, err := sizer.Size(d(10000), d(0.01), d(100), d(98), true)
	require.NoError(t, err)

	assert.True(t, size.StopDistancePct.Equal(d(0.02)))
	assert.True(t, size.Notional.Equal(d(5000)), "notional %s", size.Notional)
	assert.True(t, size.Quantity.Equal(d(50)))
	assert.True(t, size.RiskAmount.Equal(d(100)))
	assert.False(t, size.Capped)

	loss := size.Notional.Mul(size.StopDistancePct)
	assert.True(t, loss.Equal(d(100)))
}

func TestSizer_Short(t *testing.T) {
	sizer, err := NewSizer(decimal.Zero)
	require.NoError(t, err)

	size, err := sizer.Size(d(10000), d(0.02), d(200), d(205), false)
	require.NoError(t, err)

	assert.True(t, size.StopDistancePct.Equal(d(0.025)))
	assert.True(t, size.Notional.Equal(d(8000)))
}

func TestSizer_FailsFast(t *testing.T) {
	sizer, err := NewSizer(decimal.Zero)
	require.NoError(t, err)

	tests := []struct {
		name    string
		equity  decimal.Decimal
		risk    decimal.Decimal
		entry   decimal.Decimal
		stop    decimal.Decimal
		long    bool
		wantErr error
	}{
		{"zero stop distance", d(10000), d(0.01), d(100), d(100), true, ErrInvalidStopDistance},
		{"long stop above entry", d(10000), d(0.01), d(100), d(101), true, ErrInvalidStopDistance},
		{"short stop below entry", d(10000), d(0.01), d(100), d(99), false, ErrInvalidStopDistance},
		{"zero risk", d(10000), decimal.Zero, d(100), d(99), true, ErrInvalidRisk},
		{"negative risk", d(10000), d(-0.01), d(100), d(99), true, ErrInvalidRisk},
		{"risk above one", d(10000), d(1.5), d(100), d(99), true, ErrInvalidRisk},
		{"no equity", decimal.Zero, d(0.01), d(100), d(99), true, ErrInvalidEquity},
		{"zero entry", d(10000), d(0.01), decimal.Zero, d(-1), true, ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sizer.Size(tt.equity, tt.risk, tt.entry, tt.stop, tt.long)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSizer_LeverageCap(t *testing.T) {
	sizer, err := NewSizer(d(2))
	require.NoError(t, err)

	// 1% risk on a 0.1% stop wants 10x equity
	size, err := sizer.Size(d(10000), d(0.01), d(1000), d(999), true)
	require.NoError(t, err)

	assert.True(t, size.Capped)
	assert.True(t, size.Notional.Equal(d(20000)))
	assert.True(t, size.RiskAmount.LessThan(d(100)))
}

func TestNewSizer_RejectsNegativeLeverage(t *testing.T) {
	_, err := NewSizer(d(-1))
	assert.Error(t, err)
}
