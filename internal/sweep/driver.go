package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/logger"
	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// Status is the fate of one combination
type Status string

const (
	StatusOK        Status = "ok"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Options configures a sweep
type Options struct {
	Workers   int           // concurrent replays, defaults to runtime.NumCPU()
	MinTrades int           // runs with fewer trades are skipped
	Objective Objective     // ranking metric, defaults to return_drawdown
	Budget    time.Duration // wall-clock limit, zero means none
}

// Outcome is the result of one combination
type Outcome struct {
	Index      int
	Params     ParamSet
	Status     Status
	Metrics    *backtesting.Metrics
	Score      Score
	SkipReason string
	Err        error
}

// Report groups outcomes by status. Ranked is best first.
type Report struct {
	Objective Objective
	Total     int
	Ranked    []Outcome
	Skipped   []Outcome
	Failed    []Outcome
	Cancelled []Outcome
	Elapsed   time.Duration
}

// Best returns the top ranked outcome, if any
func (r *Report) Best() (Outcome, bool) {
	if r == nil || len(r.Ranked) == 0 {
		return Outcome{}, false
	}
	return r.Ranked[0], true
}

// Driver runs a grid of configurations against one series
type Driver struct {
	base    Base
	options Options
	log     *logger.Logger
}

// NewDriver creates a sweep driver
func NewDriver(base Base, options Options) (*Driver, error) {
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if options.MinTrades < 0 {
		return nil, fmt.Errorf("min trades must not be negative, got %d", options.MinTrades)
	}
	objective, err := ParseObjective(string(options.Objective))
	if err != nil {
		return nil, err
	}
	options.Objective = objective

	return &Driver{
		base:    base,
		options: options,
		log:     logger.Component("sweep").Strategy(base.Strategy),
	}, nil
}

// Options returns the effective options
func (d *Driver) Options() Options {
	return d.options
}

// Run evaluates every combination of grid. The series must already carry indicators
// and is shared read-only by all workers. Cancelling ctx or exceeding the budget stops
// new combinations from starting; running replays finish and the rest are reported as
// cancelled. Run only returns an error for an invalid grid.
func (d *Driver) Run(ctx context.Context, series *market.Series, grid Grid) (*Report, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, market.ErrEmptySeries
	}

	started := time.Now()
	if d.options.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.options.Budget)
		defer cancel()
	}

	combos := grid.Combinations()
	outcomes := make([]Outcome, len(combos))
	for i, set := range combos {
		outcomes[i] = Outcome{Index: i, Params: set, Status: StatusCancelled, Err: context.Canceled}
	}

	d.log.Info("sweep started",
		"combinations", len(combos),
		"workers", d.options.Workers,
		"objective", string(d.options.Objective),
	)

	var g errgroup.Group
	g.SetLimit(d.options.Workers)

	for i := range combos {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i] = d.evaluate(series, i, combos[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Objective: d.options.Objective,
		Total:     len(combos),
	}
	for _, o := range outcomes {
		if o.Status == StatusCancelled && ctx.Err() != nil {
			o.Err = ctx.Err()
		}
		telemetry.RecordCombination(string(o.Status))
		switch o.Status {
		case StatusOK:
			report.Ranked = append(report.Ranked, o)
		case StatusSkipped:
			report.Skipped = append(report.Skipped, o)
		case StatusFailed:
			report.Failed = append(report.Failed, o)
		default:
			report.Cancelled = append(report.Cancelled, o)
		}
	}
	rank(report.Ranked)
	report.Elapsed = time.Since(started)

	d.log.Info("sweep finished",
		"ranked", len(report.Ranked),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
		"cancelled", len(report.Cancelled),
		"elapsed", report.Elapsed.String(),
	)

	return report, nil
}

// evaluate replays one combination on its own engine
func (d *Driver) evaluate(series *market.Series, index int, set ParamSet) Outcome {
	outcome := Outcome{Index: index, Params: set}

	fail := func(err error) Outcome {
		outcome.Status = StatusFailed
		outcome.Err = err
		d.log.WithError(err).Debug("combination failed", "index", index, "params", set.String())
		return outcome
	}

	cfg, params, err := d.base.Apply(set)
	if err != nil {
		return fail(err)
	}
	generator, err := signal.New(d.base.Strategy, params)
	if err != nil {
		return fail(backtesting.NewConfigError("strategy", err))
	}
	engine, err := backtesting.NewEngine(cfg, generator)
	if err != nil {
		return fail(err)
	}
	result, err := engine.Run(series)
	if err != nil {
		return fail(err)
	}

	if !result.HasMetrics() {
		outcome.Status = StatusSkipped
		outcome.SkipReason = "no trades"
		if result.NoResult != nil && !errors.Is(result.NoResult, backtesting.ErrNoTrades) {
			outcome.SkipReason = result.NoResult.Error()
		}
		return outcome
	}

	outcome.Metrics = result.Metrics
	if result.Metrics.TotalTrades < d.options.MinTrades {
		outcome.Status = StatusSkipped
		outcome.SkipReason = fmt.Sprintf("%d trades below minimum %d", result.Metrics.TotalTrades, d.options.MinTrades)
		return outcome
	}

	outcome.Status = StatusOK
	outcome.Score = d.options.Objective.Score(result.Metrics)
	return outcome
}
