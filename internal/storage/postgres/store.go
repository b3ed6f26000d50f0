package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benodiwal/dexy/internal/model"
	"github.com/benodiwal/dexy/internal/storage"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS amm_pools (
	name       TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	version    BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE TABLE IF NOT EXISTS amm_journal (
	id          BIGSERIAL PRIMARY KEY,
	pool        TEXT NOT NULL,
	op          TEXT NOT NULL,
	version     BIGINT NOT NULL,
	entry       JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE INDEX IF NOT EXISTS amm_journal_pool_idx ON amm_journal (pool, version)`,

	`CREATE TABLE IF NOT EXISTS amm_pool_window_stats (
	pool                TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts     TIMESTAMPTZ NOT NULL,
	window_end_ts       TIMESTAMPTZ NOT NULL,
	swap_count          BIGINT NOT NULL,
	deposit_count       BIGINT NOT NULL,
	withdraw_count      BIGINT NOT NULL,
	volume_in_a         NUMERIC NOT NULL,
	volume_in_b         NUMERIC NOT NULL,
	volume_out_a        NUMERIC NOT NULL,
	volume_out_b        NUMERIC NOT NULL,
	fee_a               NUMERIC NOT NULL,
	fee_b               NUMERIC NOT NULL,
	reserve_a           NUMERIC NOT NULL,
	reserve_b           NUMERIC NOT NULL,
	lp_supply           NUMERIC NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pool, window_size_seconds, window_start_ts)
)`,
}

// Store keeps pool snapshots, the operation journal and window stats in
// Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ storage.PoolStore = (*Store)(nil)
	_ storage.Journal   = (*Store)(nil)
)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store uses if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Load(ctx context.Context, name string) (model.PoolSnapshot, error) {
	if err := model.ValidatePoolName(name); err != nil {
		return model.PoolSnapshot{}, err
	}
	snap, found, err := scanSnapshot(name, s.pool.QueryRow(ctx, `SELECT state, version FROM amm_pools WHERE name=$1`, name))
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if !found {
		return model.PoolSnapshot{}, storage.ErrNotFound
	}
	return snap, nil
}

// Update locks the pool row for the length of one transaction. Creating a
// pool that another writer created first returns storage.ErrConflict.
func (s *Store) Update(ctx context.Context, name string, fn storage.UpdateFunc) (model.PoolSnapshot, error) {
	if err := model.ValidatePoolName(name); err != nil {
		return model.PoolSnapshot{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	current, found, err := scanSnapshot(name, tx.QueryRow(ctx, `SELECT state, version FROM amm_pools WHERE name=$1 FOR UPDATE`, name))
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if !found {
		current = model.NewPoolSnapshot(name)
	}

	work := current.Clone()
	if err := fn(&work); err != nil {
		return model.PoolSnapshot{}, err
	}
	work.Name = name
	work.Version = current.Version + 1
	work.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(work)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("marshal pool: %w", err)
	}

	if found {
		_, err = tx.Exec(ctx, `
			UPDATE amm_pools SET state = $2, version = $3, updated_at = now()
			WHERE name = $1
		`, name, payload, int64(work.Version))
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("update pool: %w", err)
		}
	} else {
		tag, err := tx.Exec(ctx, `
			INSERT INTO amm_pools (name, state, version, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (name) DO NOTHING
		`, name, payload, int64(work.Version))
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("insert pool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.PoolSnapshot{}, storage.ErrConflict
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("commit: %w", err)
	}
	return work, nil
}

func scanSnapshot(name string, row pgx.Row) (model.PoolSnapshot, bool, error) {
	var (
		data    []byte
		version int64
	)
	if err := row.Scan(&data, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, fmt.Errorf("load pool %s: %w", name, err)
	}

	var snap model.PoolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("parse pool %s: %w", name, err)
	}
	snap.Name = name
	snap.Version = uint64(version)
	if err := snap.Reconcile(); err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("corrupt pool row: %w", err)
	}
	return snap, true, nil
}

// Append inserts journal entries in one batch.
func (s *Store) Append(ctx context.Context, entries ...model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal journal entry: %w", err)
		}
		batch.Queue(`
			INSERT INTO amm_journal (pool, op, version, entry, recorded_at)
			VALUES ($1, $2, $3, $4, now())
		`, entry.Pool, entry.Op, int64(entry.Version), payload)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowStats inserts or replaces aggregated window stats.
func (s *Store) UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range stats {
		batch.Queue(`
			INSERT INTO amm_pool_window_stats (
				pool, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count,
				volume_in_a, volume_in_b, volume_out_a, volume_out_b, fee_a, fee_b,
				reserve_a, reserve_b, lp_supply, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (pool, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume_in_a = EXCLUDED.volume_in_a,
				volume_in_b = EXCLUDED.volume_in_b,
				volume_out_a = EXCLUDED.volume_out_a,
				volume_out_b = EXCLUDED.volume_out_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				lp_supply = EXCLUDED.lp_supply,
				updated_at = now()
		`,
			m.Pool,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.VolumeInA,
			m.VolumeInB,
			m.VolumeOutA,
			m.VolumeOutB,
			m.FeeA,
			m.FeeB,
			strconv.FormatUint(m.ReserveA, 10),
			strconv.FormatUint(m.ReserveB, 10),
			strconv.FormatUint(m.LPSupply, 10),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
