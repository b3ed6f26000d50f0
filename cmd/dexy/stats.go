package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benodiwal/dexy/internal/config"
	"github.com/benodiwal/dexy/internal/stats"
	"github.com/benodiwal/dexy/internal/storage/postgres"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the operation journal into window stats",
		RunE:  runStats,
	}
	cmd.Flags().String("in", "./data/journal.jsonl", "input journal JSONL")
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	cmd.Flags().String("from", "", "skip entries before this time (unix seconds or RFC3339)")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	from, err := config.ParseTimestamp(cfg.From)
	if err != nil {
		return fmt.Errorf("parse from: %w", err)
	}
	windowSeconds := uint64(cfg.Window.Seconds())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	logger.Info("stats start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Uint64("from", from),
	)

	agg := stats.NewAggregator(stats.Config{WindowSeconds: windowSeconds, From: from}, logger)
	windows, err := agg.Run(ctx, file)
	if err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.UpsertWindowStats(ctx, windows); err != nil {
			return fmt.Errorf("upsert window stats: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, w := range windows {
		if err := enc.Encode(w); err != nil {
			return err
		}
	}
	return nil
}
