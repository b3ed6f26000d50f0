package stats

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benodiwal/dexy/internal/amm"
	"github.com/benodiwal/dexy/internal/model"
)

func journalLines(t *testing.T, entries ...model.JournalEntry) string {
	t.Helper()
	var sb strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(e)
		require.NoError(t, err)
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func swapEntry(pool string, dir amm.Direction, in, out, fee, version, ts uint64) model.JournalEntry {
	return model.JournalEntry{
		Pool:      pool,
		Op:        amm.OpSwap,
		Direction: &dir,
		AmountIn:  in,
		AmountOut: out,
		Fee:       fee,
		ReserveA:  version * 10,
		ReserveB:  version * 20,
		LPSupply:  100,
		Version:   version,
		Timestamp: ts,
	}
}

func TestAggregatorWindows(t *testing.T) {
	const base = 1_700_000_100 // aligned to 300s
	input := journalLines(t,
		model.JournalEntry{Pool: "p1", Op: amm.OpInitialize, ReserveA: 1000, ReserveB: 1000, LPSupply: 1000, Version: 1, Timestamp: base},
		swapEntry("p1", amm.AToB, 100, 90, 1, 2, base+10),
		swapEntry("p1", amm.BToA, 50, 40, 2, 3, base+20),
		model.JournalEntry{Pool: "p1", Op: amm.OpAddLiquidity, Version: 4, Timestamp: base + 30, ReserveA: 7, ReserveB: 8, LPSupply: 9},
		swapEntry("p2", amm.AToB, 5, 4, 0, 2, base+40),
		swapEntry("p1", amm.AToB, 10, 9, 0, 5, base+400),
		model.JournalEntry{Pool: "p1", Op: amm.OpRemoveLiquidity, Version: 6, Timestamp: base + 410},
	)
	input += "not json\n\n"

	agg := NewAggregator(Config{WindowSeconds: 300}, nil)
	out, err := agg.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, out, 3)

	first := out[0]
	assert.Equal(t, "p1", first.Pool)
	assert.Equal(t, int64(300), first.WindowSizeSecs)
	assert.Equal(t, time.Unix(base-base%300, 0).UTC(), first.WindowStart)
	assert.Equal(t, uint64(2), first.SwapCount)
	assert.Equal(t, uint64(1), first.DepositCount)
	assert.Equal(t, "100", first.VolumeInA)
	assert.Equal(t, "50", first.VolumeInB)
	assert.Equal(t, "40", first.VolumeOutA)
	assert.Equal(t, "90", first.VolumeOutB)
	assert.Equal(t, "1", first.FeeA)
	assert.Equal(t, "2", first.FeeB)
	assert.Equal(t, uint64(7), first.ReserveA)
	assert.Equal(t, uint64(9), first.LPSupply)

	second := out[1]
	assert.Equal(t, "p1", second.Pool)
	assert.True(t, second.WindowStart.After(first.WindowStart))
	assert.Equal(t, uint64(1), second.SwapCount)
	assert.Equal(t, uint64(1), second.WithdrawCount)

	assert.Equal(t, "p2", out[2].Pool)
	assert.Equal(t, "5", out[2].VolumeInA)
}

func TestAggregatorSkipsEarlyAndOutOfOrder(t *testing.T) {
	input := journalLines(t,
		swapEntry("p1", amm.AToB, 1, 1, 0, 1, 100),
		swapEntry("p1", amm.AToB, 2, 1, 0, 2, 1000),
		swapEntry("p1", amm.AToB, 4, 1, 0, 3, 700),
		model.JournalEntry{Pool: "p1", Op: amm.OpSwap, Version: 4, Timestamp: 1001},
	)

	agg := NewAggregator(Config{WindowSeconds: 60, From: 500}, nil)
	out, err := agg.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].VolumeInA)
	assert.Equal(t, uint64(1), out[0].SwapCount)
}

func TestAggregatorRequiresWindow(t *testing.T) {
	_, err := NewAggregator(Config{}, nil).Run(context.Background(), strings.NewReader(""))
	require.Error(t, err)
}
