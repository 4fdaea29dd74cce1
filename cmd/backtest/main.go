package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/guyghost/replay/internal/backtesting"
	"github.com/guyghost/replay/internal/config"
	"github.com/guyghost/replay/internal/indicators"
	"github.com/guyghost/replay/internal/logger"
	"github.com/guyghost/replay/internal/market"
	"github.com/guyghost/replay/internal/signal"
	"github.com/guyghost/replay/internal/sweep"
	"github.com/guyghost/replay/internal/telemetry"
)

var (
	envFile  = flag.String("env", "", "Path to a .env file (default: ./.env when present)")
	dataFile = flag.String("data", "", "Path to CSV file with historical bars")
	symbol   = flag.String("symbol", "", "Trading symbol (overrides REPLAY_SYMBOL)")
	strategy = flag.String("strategy", "", "Strategy family: oscillator, volatility or volume_zone")
	gridFile = flag.String("grid", "", "YAML sweep definition; runs a parameter sweep instead of a single replay")

	// Output options
	tradesOut      = flag.String("trades-out", "", "Write the trade log of a single replay as CSV")
	tableOut       = flag.String("table-out", "", "Write the sweep results table as CSV")
	top            = flag.Int("top", 20, "Ranked sweep rows to print")
	verbose        = flag.Bool("verbose", false, "Log every closed trade")
	generateSample = flag.Bool("generate-sample", false, "Generate sample data instead of loading from file")
	sampleBars     = flag.Int("sample-bars", 2000, "Number of hourly bars to generate for sample data")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logger.Fatal("backtest failed", "error", err)
	}
}

func run() error {
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *dataFile != "" {
		cfg.DataPath = *dataFile
	}
	if *gridFile != "" {
		cfg.Sweep.GridPath = *gridFile
	}

	var grid *config.GridFile
	if cfg.Sweep.GridPath != "" {
		grid, err = config.LoadGrid(cfg.Sweep.GridPath)
		if err != nil {
			return err
		}
		grid.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.SetDefault(logger.New(cfg.LoggerConfig()))
	log := logger.Component("cli")

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelemetryAddr != "" {
		server := telemetry.NewServer(cfg.TelemetryAddr)
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start telemetry server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		server.SetReady(true)
		log.Info("telemetry server listening", "addr", cfg.TelemetryAddr)
	}

	series, err := loadSeries(cfg)
	if err != nil {
		return err
	}
	if series.Len() == 0 {
		return market.ErrEmptySeries
	}
	first, last := series.Bars[0].Timestamp, series.Bars[series.Len()-1].Timestamp
	log.Info("bars loaded",
		"symbol", series.Symbol,
		"bars", series.Len(),
		"from", first.Format(time.RFC3339),
		"to", last.Format(time.RFC3339),
	)

	provider, err := indicators.NewStandard(cfg.Indicators)
	if err != nil {
		return err
	}
	enriched, err := provider.Enrich(series.Bars)
	if err != nil {
		return fmt.Errorf("failed to compute indicators: %w", err)
	}
	series = series.WithBars(enriched)

	if grid != nil {
		return runSweep(ctx, cfg, grid, series)
	}
	return runReplay(cfg, series)
}

func loadSeries(cfg *config.AppConfig) (*market.Series, error) {
	loader := backtesting.NewDataLoader()
	if *generateSample {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		return loader.GenerateSampleData(cfg.Symbol, start, time.Hour, *sampleBars, 50000), nil
	}
	if cfg.DataPath == "" {
		return nil, errors.New("either -data (REPLAY_DATA) or -generate-sample is required")
	}
	series, err := loader.LoadFromCSV(cfg.DataPath, cfg.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return series, nil
}

func runReplay(cfg *config.AppConfig, series *market.Series) error {
	generator, err := signal.New(cfg.Strategy, cfg.Signal)
	if err != nil {
		return backtesting.NewConfigError("strategy", err)
	}
	engine, err := backtesting.NewEngine(cfg.Replay, generator)
	if err != nil {
		return err
	}
	if *verbose {
		tradeLog := logger.Component("trades")
		engine.SetOnTrade(func(trade *backtesting.Trade) {
			tradeLog.Trade(map[string]any{
				"id":          trade.ID,
				"direction":   trade.Direction.String(),
				"entry_price": trade.EntryPrice.StringFixed(4),
				"exit_price":  trade.ExitPrice.StringFixed(4),
				"pnl":         trade.PnLAmount.StringFixed(2),
				"pnl_pct":     trade.PnLPct.StringFixed(2),
				"exit_reason": string(trade.ExitReason),
			})
		})
	}

	started := time.Now()
	result, err := engine.Run(series)
	if err != nil {
		return err
	}
	logger.Info("replay completed", "elapsed", time.Since(started).Round(time.Millisecond))

	reporter := backtesting.NewReporter()
	fmt.Println(reporter.GenerateReport(result))

	if *tradesOut != "" {
		return writeFile(*tradesOut, func(w io.Writer) error {
			return reporter.WriteTradeLog(w, result.Trades)
		})
	}
	return nil
}

func runSweep(ctx context.Context, cfg *config.AppConfig, file *config.GridFile, series *market.Series) error {
	grid, err := file.Grid()
	if err != nil {
		return err
	}
	driver, err := sweep.NewDriver(cfg.SweepBase(), cfg.SweepOptions())
	if err != nil {
		return err
	}

	report, err := driver.Run(ctx, series, grid)
	if err != nil {
		return err
	}

	fmt.Println(sweep.RenderTable(report, *top))

	if *tableOut != "" {
		return writeFile(*tableOut, func(w io.Writer) error {
			return sweep.WriteTable(w, report)
		})
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
