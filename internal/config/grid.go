package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/guyghost/replay/internal/sweep"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// GridFile is the YAML layout of a sweep definition:
//
//	strategy: oscillator
//	objective: return_drawdown
//	min_trades: 5
//	workers: 4
//	budget: 10m
//	params:
//	  - name: stop_mult
//	    values: [1, 1.5, 2]
//
// Every field except params is optional and overrides the environment.
type GridFile struct {
	Strategy  string      `yaml:"strategy"`
	Objective string      `yaml:"objective"`
	MinTrades *int        `yaml:"min_trades"`
	Workers   *int        `yaml:"workers"`
	Budget    string      `yaml:"budget"`
	Params    []GridParam `yaml:"params"`
}

// GridParam is one axis of a GridFile. Values stay as YAML scalars so
// they are parsed as decimals without a float round trip.
type GridParam struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// LoadGrid reads and validates a sweep definition
func LoadGrid(path string) (*GridFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file: %w", err)
	}
	return ParseGrid(data)
}

// ParseGrid decodes a sweep definition. Unknown keys are rejected.
func ParseGrid(data []byte) (*GridFile, error) {
	var file GridFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse grid file: %w", err)
	}
	if _, err := file.Grid(); err != nil {
		return nil, err
	}
	if file.Objective != "" {
		if _, err := sweep.ParseObjective(file.Objective); err != nil {
			return nil, err
		}
	}
	if file.Budget != "" {
		if _, err := time.ParseDuration(file.Budget); err != nil {
			return nil, fmt.Errorf("invalid budget %q: %w", file.Budget, err)
		}
	}
	return &file, nil
}

// Grid converts the parameter axes into a validated sweep grid
func (f *GridFile) Grid() (sweep.Grid, error) {
	grid := sweep.Grid{Params: make([]sweep.Param, 0, len(f.Params))}
	for _, p := range f.Params {
		param := sweep.Param{Name: p.Name, Values: make([]decimal.Decimal, 0, len(p.Values))}
		for _, raw := range p.Values {
			value, err := decimal.NewFromString(raw)
			if err != nil {
				return sweep.Grid{}, fmt.Errorf("param %s: invalid value %q: %w", p.Name, raw, err)
			}
			param.Values = append(param.Values, value)
		}
		grid.Params = append(grid.Params, param)
	}
	if err := grid.Validate(); err != nil {
		return sweep.Grid{}, err
	}
	return grid, nil
}

// Apply copies the optional overrides of the grid file into c
func (f *GridFile) Apply(c *AppConfig) {
	if f.Strategy != "" {
		c.Strategy = f.Strategy
	}
	if f.Objective != "" {
		c.Sweep.Objective = f.Objective
	}
	if f.MinTrades != nil {
		c.Sweep.MinTrades = *f.MinTrades
	}
	if f.Workers != nil {
		c.Sweep.Workers = *f.Workers
	}
	if f.Budget != "" {
		// validated by ParseGrid
		c.Sweep.Budget, _ = time.ParseDuration(f.Budget)
	}
}
