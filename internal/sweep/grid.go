// Package sweep replays one series under many configurations on a bounded worker pool.
package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Param is one axis of a grid
type Param struct {
	Name   string
	Values []decimal.Decimal
}

// Grid is an ordered list of axes. Combinations vary the last axis fastest.
type Grid struct {
	Params []Param
}

// Value is one named parameter assignment
type Value struct {
	Name  string
	Value decimal.Decimal
}

// ParamSet is one combination of a grid, in grid axis order
type ParamSet []Value

// Get returns the value assigned to name
func (p ParamSet) Get(name string) (decimal.Decimal, bool) {
	for _, v := range p {
		if v.Name == name {
			return v.Value, true
		}
	}
	return decimal.Zero, false
}

// String renders the set as name=value pairs sorted by name
func (p ParamSet) String() string {
	sorted := make([]Value, len(p))
	copy(sorted, p)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = v.Name + "=" + v.Value.String()
	}
	return strings.Join(parts, ",")
}

// Validate rejects empty axes and duplicate names
func (g Grid) Validate() error {
	if len(g.Params) == 0 {
		return errors.New("grid has no parameters")
	}
	seen := make(map[string]bool, len(g.Params))
	for _, p := range g.Params {
		if p.Name == "" {
			return errors.New("grid parameter without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("grid parameter %q listed twice", p.Name)
		}
		if len(p.Values) == 0 {
			return fmt.Errorf("grid parameter %q has no values", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Size is the number of combinations
func (g Grid) Size() int {
	if len(g.Params) == 0 {
		return 0
	}
	n := 1
	for _, p := range g.Params {
		n *= len(p.Values)
	}
	return n
}

// Combinations returns the cartesian product in deterministic order
func (g Grid) Combinations() []ParamSet {
	if g.Size() == 0 {
		return nil
	}

	result := make([]ParamSet, 0, g.Size())
	var walk func(idx int, current ParamSet)
	walk = func(idx int, current ParamSet) {
		if idx == len(g.Params) {
			set := make(ParamSet, len(current))
			copy(set, current)
			result = append(result, set)
			return
		}
		p := g.Params[idx]
		for _, v := range p.Values {
			walk(idx+1, append(current, Value{Name: p.Name, Value: v}))
		}
	}
	walk(0, make(ParamSet, 0, len(g.Params)))

	return result
}
