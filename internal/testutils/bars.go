// Package testutils provides shared utilities for testing
package testutils

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Symbol is the instrument used by test series
const Symbol = "BTC-USD"

// BaseTime is the timestamp of bar 0 in every builder
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Bar builds bar i, one hour after bar i-1, with a fixed volume of 1000.
func Bar(i int, open, high, low, close float64) market.Bar {
	return market.Bar{
		Symbol:    Symbol,
		Timestamp: BaseTime.Add(time.Duration(i) * time.Hour),
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromInt(1000),
	}
}

// FlatBars returns n bars that open and close at price with a ±0.5% range.
func FlatBars(n int, price float64) []market.Bar {
	p := decimal.NewFromFloat(price)
	high := p.Mul(decimal.RequireFromString("1.005"))
	low := p.Mul(decimal.RequireFromString("0.995"))

	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = Bar(i, price, price, price, price)
		bars[i].High = high
		bars[i].Low = low
	}
	return bars
}

// SetRSI sets every bar's RSI to base, then applies the per-index overrides.
func SetRSI(bars []market.Bar, base float64, overrides map[int]float64) {
	for i := range bars {
		v := base
		if o, ok := overrides[i]; ok {
			v = o
		}
		bars[i].Indicators.RSI = market.Value(decimal.NewFromFloat(v))
	}
}

// SetATR sets the same ATR on every bar
func SetATR(bars []market.Bar, atr float64) {
	for i := range bars {
		bars[i].Indicators.ATR = market.Value(decimal.NewFromFloat(atr))
	}
}

// SetRange sets the prior-range extremes on every bar
func SetRange(bars []market.Bar, high, low float64) {
	for i := range bars {
		bars[i].Indicators.RangeHigh = market.Value(decimal.NewFromFloat(high))
		bars[i].Indicators.RangeLow = market.Value(decimal.NewFromFloat(low))
	}
}

// SampleBars returns n deterministic bars oscillating around 50000 with a slight uptrend.
func SampleBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		x := float64(i)
		open := 50000 * (1 + 0.03*math.Sin(x/4) + 0.0005*x)
		closePrice := 50000 * (1 + 0.03*math.Sin((x+1)/4) + 0.0005*(x+1))
		high := math.Max(open, closePrice) + 100
		low := math.Min(open, closePrice) - 100
		bars[i] = Bar(i, round(open), round(high), round(low), round(closePrice))
		bars[i].Volume = decimal.NewFromFloat(100 + float64(i%7)*25)
	}
	return bars
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewSeries wraps bars in a validated series or fails the test
func NewSeries(t *testing.T, bars []market.Bar) *market.Series {
	t.Helper()
	series, err := market.NewSeries(Symbol, bars)
	require.NoError(t, err)
	return series
}

// CreateTestContext creates a context for testing with timeout
func CreateTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
