// Package market holds the strongly typed bar model shared by the replay engine.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicators are the derived fields attached to a bar by an indicator provider.
// A value with Valid=false is undefined (warm-up or missing input).
type Indicators struct {
	RSI       decimal.NullDecimal
	ATR       decimal.NullDecimal
	EMAFast   decimal.NullDecimal
	EMASlow   decimal.NullDecimal
	VolumeSMA decimal.NullDecimal

	// RangeHigh and RangeLow span the lookback window that ends on the previous bar.
	RangeHigh decimal.NullDecimal
	RangeLow  decimal.NullDecimal
}

// Bar is one OHLCV observation plus its indicator values
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
	Indicators Indicators
}

// Value wraps a decimal as a defined indicator value.
func Value(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Undefined is an indicator value that has not been computed.
func Undefined() decimal.NullDecimal {
	return decimal.NullDecimal{}
}
