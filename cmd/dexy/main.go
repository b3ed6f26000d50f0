package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benodiwal/dexy/internal/amm"
	"github.com/benodiwal/dexy/internal/config"
	"github.com/benodiwal/dexy/internal/ledger"
	"github.com/benodiwal/dexy/internal/metrics"
	"github.com/benodiwal/dexy/internal/storage"
	"github.com/benodiwal/dexy/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dexy",
		Short:        "Constant-product pool ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("backend", config.BackendFile, "pool store backend (file, postgres)")
	flags.String("state-dir", "./data/pools", "pool snapshot directory for the file backend")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("journal", "./data/journal.jsonl", "operation journal JSONL path, empty to disable")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Uint16("ratio-tolerance-bps", 0, "unmatched share of an unbalanced deposit allowed, in bps")
	flags.Int("max-retries", 3, "retries for conflicting commits")
	flags.Duration("retry-backoff", 50*time.Millisecond, "initial retry backoff")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newInitCmd(),
		newShowCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newStatsCmd(),
	)
	return root
}

// app wires the pool service for a single command run.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	svc      *ledger.Service
	registry *prometheus.Registry
	closers  []func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}

	engine, err := amm.NewEngine(
		amm.WithLogger(logger.Named("amm")),
		amm.WithRatioTolerance(cfg.RatioToleranceBps),
	)
	if err != nil {
		return nil, err
	}

	var (
		store    storage.PoolStore
		journals storage.MultiJournal
	)
	if cfg.Journal != "" {
		journals = append(journals, storage.NewJsonlJournal(cfg.Journal))
	}

	switch cfg.Backend {
	case config.BackendPostgres:
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		store = pg
		journals = append(journals, pg)
	default:
		store = storage.NewFileStore(cfg.StateDir)
	}

	var journal storage.Journal
	if len(journals) > 0 {
		journal = journals
	}

	a.svc = ledger.NewService(ledger.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Observer:     metrics.New(a.registry),
	}, engine, store, journal, logger.Named("ledger"))

	logger.Debug("dexy start",
		zap.String("backend", cfg.Backend),
		zap.String("state_dir", cfg.StateDir),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("journal", cfg.Journal),
		zap.Uint16("ratio_tolerance_bps", cfg.RatioToleranceBps),
	)
	return a, nil
}

func (a *app) Close() {
	if a.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsFile, a.registry); err != nil {
			a.logger.Warn("write metrics", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// runWithApp builds the app under a signal-aware context and hands it to fn.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addressFlag(cmd *cobra.Command, name string, required bool) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		if required {
			return common.Address{}, fmt.Errorf("--%s is required", name)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func poolFlag(cmd *cobra.Command) (string, error) {
	name, _ := cmd.Flags().GetString("pool")
	if name == "" {
		return "", fmt.Errorf("--pool is required")
	}
	return name, nil
}
