package model

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/benodiwal/dexy/internal/amm"
)

// JournalEntry records one committed pool operation and the state it left.
type JournalEntry struct {
	Pool       string         `json:"pool"`
	Op         string         `json:"op"`
	Caller     common.Address `json:"caller"`
	Direction  *amm.Direction `json:"direction,omitempty"`
	AmountIn   uint64         `json:"amount_in,omitempty"`
	AmountOut  uint64         `json:"amount_out,omitempty"`
	Fee        uint64         `json:"fee,omitempty"`
	AmountA    uint64         `json:"amount_a,omitempty"`
	AmountB    uint64         `json:"amount_b,omitempty"`
	Shares     uint64         `json:"shares,omitempty"`
	ReserveA   uint64         `json:"reserve_a"`
	ReserveB   uint64         `json:"reserve_b"`
	LPSupply   uint64         `json:"lp_supply"`
	Version    uint64         `json:"version"`
	Timestamp  uint64         `json:"timestamp"`
	RecordedAt string         `json:"recorded_at"`
}

// WithState copies the resulting pool fields into the entry.
func (e JournalEntry) WithState(snap PoolSnapshot) JournalEntry {
	e.Pool = snap.Name
	e.ReserveA = snap.Pool.ReserveA
	e.ReserveB = snap.Pool.ReserveB
	e.LPSupply = snap.Pool.LPSupply
	e.Version = snap.Version
	return e
}
