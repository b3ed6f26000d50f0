package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/benodiwal/dexy/internal/amm"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testSnapshot() PoolSnapshot {
	snap := NewPoolSnapshot("usdc-eth")
	snap.Pool = amm.PoolState{ReserveA: 550, ReserveB: 2200, LPSupply: 1100, FeeBps: 30, Authority: alice, Initialized: true}
	snap.SetPosition(amm.LiquidityPosition{Owner: alice, Shares: 1000})
	snap.SetPosition(amm.LiquidityPosition{Owner: bob, Shares: 100})
	snap.Version = 3
	return snap
}

func TestPoolSnapshotJSONRoundTrip(t *testing.T) {
	original := testSnapshot()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"0x2222222222222222222222222222222222222222":100`) {
		t.Fatalf("positions should be keyed by hex address: %s", data)
	}

	var decoded PoolSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestPoolSnapshotCloneIsDeep(t *testing.T) {
	original := testSnapshot()
	clone := original.Clone()
	clone.SetPosition(amm.LiquidityPosition{Owner: bob, Shares: 0})
	clone.Pool.ReserveA = 1

	if original.Positions[bob] != 100 {
		t.Fatalf("clone shares position map with original")
	}
	if original.Pool.ReserveA != 550 {
		t.Fatalf("clone shares pool with original")
	}
	if _, ok := clone.Positions[bob]; ok {
		t.Fatalf("zero position should be dropped")
	}
}

func TestPoolSnapshotReconcile(t *testing.T) {
	snap := testSnapshot()
	if err := snap.Reconcile(); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	snap.SetPosition(amm.LiquidityPosition{Owner: bob, Shares: 99})
	if err := snap.Reconcile(); err == nil {
		t.Fatalf("expected share mismatch")
	}

	broken := testSnapshot()
	broken.Pool.ReserveB = 0
	if err := broken.Reconcile(); err == nil {
		t.Fatalf("expected invalid pool")
	}
}

func TestSortedPositions(t *testing.T) {
	got := testSnapshot().SortedPositions()
	want := []amm.LiquidityPosition{{Owner: alice, Shares: 1000}, {Owner: bob, Shares: 100}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestValidatePoolName(t *testing.T) {
	for _, name := range []string{"usdc-eth", "p1", "a_b"} {
		if err := ValidatePoolName(name); err != nil {
			t.Fatalf("name %q rejected: %v", name, err)
		}
	}
	for _, name := range []string{"", "UPPER", "../etc", "-lead", strings.Repeat("x", 65)} {
		if err := ValidatePoolName(name); err == nil {
			t.Fatalf("name %q accepted", name)
		}
	}
}

func TestJournalEntryJSON(t *testing.T) {
	dir := amm.BToA
	entry := JournalEntry{Op: amm.OpSwap, Caller: bob, Direction: &dir, AmountIn: 100, AmountOut: 90, Fee: 1}.
		WithState(testSnapshot())

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["direction"] != "b_to_a" {
		t.Fatalf("direction should encode as text, got %v", decoded["direction"])
	}
	if decoded["pool"] != "usdc-eth" {
		t.Fatalf("pool not copied from snapshot: %v", decoded["pool"])
	}
	if _, ok := decoded["shares"]; ok {
		t.Fatalf("zero shares should be omitted")
	}
	if decoded["lp_supply"].(float64) != 1100 {
		t.Fatalf("lp_supply = %v", decoded["lp_supply"])
	}
}
