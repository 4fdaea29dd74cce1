package market

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrEmptySeries is returned when a series holds no bars
var ErrEmptySeries = errors.New("series has no bars")

// DataError reports a malformed bar at the ingestion boundary.
type DataError struct {
	Row    int
	Reason string
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("bar %d: %s", e.Row, e.Reason)
}

// Series is an ordered, read-only sequence of bars for one instrument.
type Series struct {
	Symbol string
	Bars   []Bar
}

// NewSeries validates bars and wraps them in a Series.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	s := &Series{Symbol: symbol, Bars: bars}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of bars
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// WithBars returns a series sharing the symbol but holding different bars.
func (s *Series) WithBars(bars []Bar) *Series {
	return &Series{Symbol: s.Symbol, Bars: bars}
}

// Validate checks price sanity and strict time ordering.
func (s *Series) Validate() error {
	if s.Len() == 0 {
		return ErrEmptySeries
	}

	for i, bar := range s.Bars {
		if err := validateBar(bar); err != nil {
			return &DataError{Row: i, Reason: err.Error()}
		}
		if i > 0 && !bar.Timestamp.After(s.Bars[i-1].Timestamp) {
			return &DataError{Row: i, Reason: "timestamp is not after previous bar"}
		}
	}

	return nil
}

func validateBar(bar Bar) error {
	if bar.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	prices := []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", bar.Open},
		{"high", bar.High},
		{"low", bar.Low},
		{"close", bar.Close},
	}
	for _, p := range prices {
		if !p.value.IsPositive() {
			return fmt.Errorf("%s price must be positive, got %s", p.name, p.value)
		}
	}
	if bar.Volume.IsNegative() {
		return fmt.Errorf("volume must not be negative, got %s", bar.Volume)
	}
	if bar.Low.GreaterThan(bar.High) {
		return fmt.Errorf("low %s above high %s", bar.Low, bar.High)
	}
	if bar.Open.GreaterThan(bar.High) || bar.Close.GreaterThan(bar.High) {
		return fmt.Errorf("open/close above high %s", bar.High)
	}
	if bar.Open.LessThan(bar.Low) || bar.Close.LessThan(bar.Low) {
		return fmt.Errorf("open/close below low %s", bar.Low)
	}
	return nil
}
