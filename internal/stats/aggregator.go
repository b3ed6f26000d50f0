package stats

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/benodiwal/dexy/internal/model"
)

// Config controls aggregation.
type Config struct {
	WindowSeconds uint64
	// From skips entries with an earlier timestamp (unix seconds).
	From uint64
}

// Aggregator folds journal entries into per-pool window stats.
type Aggregator struct {
	cfg          Config
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run reads a JSONL journal from r. Entries of a pool must appear in commit
// order; an entry that falls before its pool's open window is skipped.
func (a *Aggregator) Run(ctx context.Context, r io.Reader) ([]model.PoolWindowStats, error) {
	if a.cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var out []model.PoolWindowStats
	var total, applied, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var entry model.JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			failed++
			a.logger.Warn("decode journal entry", zap.Error(err))
			continue
		}
		if entry.Timestamp < a.cfg.From {
			skipped++
			continue
		}

		start := windowStart(entry.Timestamp, a.cfg.WindowSeconds)
		acc := a.accumulators[entry.Pool]
		switch {
		case acc == nil:
			acc = NewAccumulator(entry.Pool, start, start+a.cfg.WindowSeconds)
			a.accumulators[entry.Pool] = acc
		case start < acc.WindowStart:
			skipped++
			a.logger.Warn("journal entry out of order", zap.String("pool", entry.Pool), zap.Uint64("version", entry.Version))
			continue
		case start > acc.WindowStart:
			out = append(out, acc.Stats())
			acc = NewAccumulator(entry.Pool, start, start+a.cfg.WindowSeconds)
			a.accumulators[entry.Pool] = acc
		}

		if err := acc.AddEntry(entry); err != nil {
			failed++
			a.logger.Warn("aggregate entry", zap.Error(err), zap.String("pool", entry.Pool), zap.String("op", entry.Op))
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}

	for _, acc := range a.accumulators {
		out = append(out, acc.Stats())
	}
	a.accumulators = make(map[string]*Accumulator)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Pool != out[j].Pool {
			return out[i].Pool < out[j].Pool
		}
		return out[i].WindowStart.Before(out[j].WindowStart)
	})

	a.logger.Info("stats complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int("windows", len(out)),
	)
	return out, nil
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func unixUTC(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}
