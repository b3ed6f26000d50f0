package storage

import (
	"context"
	"errors"

	"github.com/benodiwal/dexy/internal/model"
)

var (
	// ErrNotFound is returned by Load for a pool that was never stored.
	ErrNotFound = errors.New("pool not found")
	// ErrConflict is returned when a concurrent writer committed first. The
	// update can be retried against the new state.
	ErrConflict = errors.New("concurrent pool update")
)

// UpdateFunc mutates a working copy of a pool snapshot. Returning an error
// discards the copy.
type UpdateFunc func(snap *model.PoolSnapshot) error

// PoolStore persists pool snapshots with all-or-nothing updates.
type PoolStore interface {
	Load(ctx context.Context, name string) (model.PoolSnapshot, error)
	// Update hands fn a copy of the named snapshot, or a fresh one when the
	// pool does not exist yet, and persists the copy only if fn returns nil.
	// The stored version is incremented on every commit.
	Update(ctx context.Context, name string, fn UpdateFunc) (model.PoolSnapshot, error)
}

// Journal is a sink for committed operations.
type Journal interface {
	Append(ctx context.Context, entries ...model.JournalEntry) error
}

// MultiJournal appends to every journal in order and stops at the first
// failure.
type MultiJournal []Journal

func (m MultiJournal) Append(ctx context.Context, entries ...model.JournalEntry) error {
	for _, j := range m {
		if err := j.Append(ctx, entries...); err != nil {
			return err
		}
	}
	return nil
}
