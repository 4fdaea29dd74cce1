package backtesting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guyghost/replay/internal/market"
	"github.com/shopspring/decimal"
)

// DataLoader loads historical bars for a replay
type DataLoader struct{}

// NewDataLoader creates a new data loader
func NewDataLoader() *DataLoader {
	return &DataLoader{}
}

// LoadFromCSV loads a bar series from a CSV file.
// Expected columns: timestamp,open,high,low,close,volume with an optional header row.
// timestamp can be a Unix timestamp (seconds or milliseconds) or RFC3339.
func (dl *DataLoader) LoadFromCSV(filename string, symbol string) (*market.Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	series, err := dl.Load(file, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return series, nil
}

// Load reads CSV bars from r. Every row must parse; the first failure is returned
// as a market.DataError naming the 1-based line.
func (dl *DataLoader) Load(r io.Reader, symbol string) (*market.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	bars := make([]market.Bar, 0)
	lines := make([]int, 0)

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &market.DataError{Row: line, Reason: err.Error()}
		}

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 6 {
			return nil, &market.DataError{Row: line, Reason: fmt.Sprintf("expected 6 columns, got %d", len(record))}
		}

		bar, err := dl.parseCSVRecord(record, symbol)
		if err != nil {
			return nil, &market.DataError{Row: line, Reason: err.Error()}
		}
		bars = append(bars, bar)
		lines = append(lines, line)
	}

	series, err := market.NewSeries(symbol, bars)
	if err != nil {
		var dataErr *market.DataError
		if errors.As(err, &dataErr) {
			return nil, &market.DataError{Row: lines[dataErr.Row], Reason: dataErr.Reason}
		}
		return nil, err
	}
	return series, nil
}

func isHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	return err != nil
}

// parseCSVRecord parses a single CSV record into a Bar
func (dl *DataLoader) parseCSVRecord(record []string, symbol string) (market.Bar, error) {
	timestamp, err := dl.parseTimestamp(strings.TrimSpace(record[0]))
	if err != nil {
		return market.Bar{}, err
	}

	names := [5]string{"open", "high", "low", "close", "volume"}
	var values [5]decimal.Decimal
	for i, name := range names {
		v, err := decimal.NewFromString(strings.TrimSpace(record[i+1]))
		if err != nil {
			return market.Bar{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		values[i] = v
	}

	return market.Bar{
		Symbol:    symbol,
		Timestamp: timestamp,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

// parseTimestamp parses timestamp from string
// Supports Unix timestamp (seconds or milliseconds) and RFC3339 format
func (dl *DataLoader) parseTimestamp(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		// 13 digits are milliseconds
		if ts > 10000000000 {
			return time.UnixMilli(ts).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %q", s)
}

// GenerateSampleData generates a deterministic oscillating series for demos and tests.
// The same arguments always produce the same bars.
func (dl *DataLoader) GenerateSampleData(symbol string, startTime time.Time, interval time.Duration, count int, basePrice float64) *market.Series {
	bars := make([]market.Bar, 0, count)

	price := func(i int) float64 {
		x := float64(i)
		return basePrice * (1 + 0.08*math.Sin(x/5) + 0.02*math.Sin(x/1.7) + 0.0001*x)
	}

	for i := 0; i < count; i++ {
		open := price(i)
		closePrice := price(i + 1)
		wick := 0.002 + 0.003*math.Abs(math.Sin(float64(i)*0.7))

		high := math.Max(open, closePrice) * (1 + wick)
		low := math.Min(open, closePrice) * (1 - wick)
		volume := 1000 + 800*math.Abs(math.Sin(float64(i)/3))

		bars = append(bars, market.Bar{
			Symbol:    symbol,
			Timestamp: startTime.Add(time.Duration(i) * interval),
			Open:      decimal.NewFromFloat(open).Round(4),
			High:      decimal.NewFromFloat(high).Round(4),
			Low:       decimal.NewFromFloat(low).Round(4),
			Close:     decimal.NewFromFloat(closePrice).Round(4),
			Volume:    decimal.NewFromFloat(volume).Round(2),
		})
	}

	return &market.Series{Symbol: symbol, Bars: bars}
}
