package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benodiwal/dexy/internal/amm"
	"github.com/benodiwal/dexy/internal/model"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func seed(snap *model.PoolSnapshot) error {
	snap.Pool = amm.PoolState{ReserveA: 1, ReserveB: 1, LPSupply: 1, Authority: owner, Initialized: true}
	snap.SetPosition(amm.LiquidityPosition{Owner: owner, Shares: 1})
	return nil
}

func TestFileStoreUpdateAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "pools"))

	_, err := store.Load(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)

	created, err := store.Update(ctx, "p1", seed)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), created.Version)
	assert.Equal(t, "p1", created.Name)
	assert.NotEmpty(t, created.UpdatedAt)

	loaded, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, created, loaded)
}

func TestFileStoreAbortKeepsState(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	_, err := store.Update(ctx, "p1", seed)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "p1", func(snap *model.PoolSnapshot) error {
		snap.Pool.ReserveA = 99
		snap.SetPosition(amm.LiquidityPosition{Owner: owner, Shares: 0})
		return boom
	})
	require.ErrorIs(t, err, boom)

	loaded, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loaded.Pool.ReserveA)
	assert.Equal(t, uint64(1), loaded.Positions[owner])
	assert.Equal(t, uint64(1), loaded.Version)

	_, err = store.Update(ctx, "p2", func(*model.PoolSnapshot) error { return boom })
	require.ErrorIs(t, err, boom)
	_, err = store.Load(ctx, "p2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSerializesUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	_, err := store.Update(ctx, "p1", seed)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "p1", func(snap *model.PoolSnapshot) error {
				snap.Pool.ReserveA++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, uint64(21), loaded.Pool.ReserveA)
	assert.Equal(t, uint64(21), loaded.Version)
}

func TestFileStoreRejectsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	_, err := store.Load(ctx, "bad")
	require.Error(t, err)

	inconsistent := `{"name":"skew","pool":{"reserve_a":1,"reserve_b":1,"lp_supply":5,"initialized":true},"positions":{},"version":1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skew.json"), []byte(inconsistent), 0o644))
	_, err = store.Load(ctx, "skew")
	require.ErrorContains(t, err, "corrupt pool file")

	_, err = store.Load(ctx, "../escape")
	require.ErrorIs(t, err, amm.ErrInvalidInput)
}
