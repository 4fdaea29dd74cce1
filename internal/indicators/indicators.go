// Package indicators enriches raw bars with derived indicator fields before replay.
// Every series is causal: the value at index i only depends on bars 0..i.
package indicators

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// EMA calculates the Exponential Moving Average, seeded with the SMA of the first period values.
// The result is aligned with the input; indices before period-1 are undefined.
func EMA(values []decimal.Decimal, period int) []decimal.NullDecimal {
	result := make([]decimal.NullDecimal, len(values))
	if period <= 0 || len(values) < period {
		return result
	}

	multiplier := decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1)))

	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(values[i])
	}
	prev := sum.Div(decimal.NewFromInt(int64(period)))
	result[period-1] = decimal.NullDecimal{Decimal: prev, Valid: true}

	for i := period; i < len(values); i++ {
		prev = values[i].Sub(prev).Mul(multiplier).Add(prev)
		result[i] = decimal.NullDecimal{Decimal: prev, Valid: true}
	}

	return result
}

// PriorSMA is the simple moving average of the period values preceding index i.
// Index i is defined once i >= period.
func PriorSMA(values []decimal.Decimal, period int) []decimal.NullDecimal {
	result := make([]decimal.NullDecimal, len(values))
	if period <= 0 {
		return result
	}

	divisor := decimal.NewFromInt(int64(period))
	sum := decimal.Zero
	for i := 0; i < len(values); i++ {
		if i >= period {
			result[i] = decimal.NullDecimal{Decimal: sum.Div(divisor), Valid: true}
			sum = sum.Sub(values[i-period])
		}
		sum = sum.Add(values[i])
	}

	return result
}

// RSI calculates Wilder's Relative Strength Index. Index period is the first defined value.
func RSI(closes []decimal.Decimal, period int) []decimal.NullDecimal {
	result := make([]decimal.NullDecimal, len(closes))
	if period <= 0 || len(closes) < period+1 {
		return result
	}

	p := decimal.NewFromInt(int64(period))
	pMinus := decimal.NewFromInt(int64(period - 1))

	avgGain, avgLoss := decimal.Zero, decimal.Zero
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i].Sub(closes[i-1]))
		avgGain = avgGain.Add(gain)
		avgLoss = avgLoss.Add(loss)
	}
	avgGain = avgGain.Div(p)
	avgLoss = avgLoss.Div(p)
	result[period] = decimal.NullDecimal{Decimal: rsiValue(avgGain, avgLoss), Valid: true}

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i].Sub(closes[i-1]))
		avgGain = avgGain.Mul(pMinus).Add(gain).Div(p)
		avgLoss = avgLoss.Mul(pMinus).Add(loss).Div(p)
		result[i] = decimal.NullDecimal{Decimal: rsiValue(avgGain, avgLoss), Valid: true}
	}

	return result
}

func split(change decimal.Decimal) (gain, loss decimal.Decimal) {
	if change.IsPositive() {
		return change, decimal.Zero
	}
	return decimal.Zero, change.Abs()
}

func rsiValue(avgGain, avgLoss decimal.Decimal) decimal.Decimal {
	if avgLoss.IsZero() {
		if avgGain.IsZero() {
			return decimal.NewFromInt(50)
		}
		return hundred
	}
	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(one.Add(rs)))
}

// TrueRange returns the true range of each bar; index 0 uses high-low.
func TrueRange(high, low, close []decimal.Decimal) []decimal.Decimal {
	tr := make([]decimal.Decimal, len(high))
	for i := range high {
		hl := high[i].Sub(low[i])
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := high[i].Sub(close[i-1]).Abs()
		lc := low[i].Sub(close[i-1]).Abs()
		tr[i] = decimal.Max(hl, hc, lc)
	}
	return tr
}

// ATR calculates Wilder's Average True Range over true ranges 1..period.
// Index period is the first defined value.
func ATR(high, low, close []decimal.Decimal, period int) []decimal.NullDecimal {
	result := make([]decimal.NullDecimal, len(high))
	if period <= 0 || len(high) < period+1 || len(low) != len(high) || len(close) != len(high) {
		return result
	}

	tr := TrueRange(high, low, close)
	p := decimal.NewFromInt(int64(period))
	pMinus := decimal.NewFromInt(int64(period - 1))

	atr := decimal.Zero
	for i := 1; i <= period; i++ {
		atr = atr.Add(tr[i])
	}
	atr = atr.Div(p)
	result[period] = decimal.NullDecimal{Decimal: atr, Valid: true}

	for i := period + 1; i < len(high); i++ {
		atr = atr.Mul(pMinus).Add(tr[i]).Div(p)
		result[i] = decimal.NullDecimal{Decimal: atr, Valid: true}
	}

	return result
}

// PriorRange returns the highest high and lowest low of the lookback bars preceding index i.
func PriorRange(high, low []decimal.Decimal, lookback int) (highs, lows []decimal.NullDecimal) {
	highs = make([]decimal.NullDecimal, len(high))
	lows = make([]decimal.NullDecimal, len(low))
	if lookback <= 0 {
		return highs, lows
	}

	for i := lookback; i < len(high); i++ {
		hi, lo := high[i-lookback], low[i-lookback]
		for j := i - lookback + 1; j < i; j++ {
			hi = decimal.Max(hi, high[j])
			lo = decimal.Min(lo, low[j])
		}
		highs[i] = decimal.NullDecimal{Decimal: hi, Valid: true}
		lows[i] = decimal.NullDecimal{Decimal: lo, Valid: true}
	}

	return highs, lows
}
