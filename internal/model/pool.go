package model

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/benodiwal/dexy/internal/amm"
)

var poolNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidatePoolName accepts lowercase names usable as file names.
func ValidatePoolName(name string) error {
	if !poolNamePattern.MatchString(name) {
		return amm.ErrInvalidInput.Wrapf("invalid pool name %q", name)
	}
	return nil
}

// PoolSnapshot is the persisted record of one named pool and its liquidity
// positions.
type PoolSnapshot struct {
	Name      string                    `json:"name"`
	Pool      amm.PoolState             `json:"pool"`
	Positions map[common.Address]uint64 `json:"positions"`
	Version   uint64                    `json:"version"`
	UpdatedAt string                    `json:"updated_at"`
}

func NewPoolSnapshot(name string) PoolSnapshot {
	return PoolSnapshot{Name: name, Positions: make(map[common.Address]uint64)}
}

// Clone returns a deep copy.
func (s PoolSnapshot) Clone() PoolSnapshot {
	positions := make(map[common.Address]uint64, len(s.Positions))
	for owner, shares := range s.Positions {
		positions[owner] = shares
	}
	s.Positions = positions
	return s
}

func (s PoolSnapshot) Position(owner common.Address) amm.LiquidityPosition {
	return amm.LiquidityPosition{Owner: owner, Shares: s.Positions[owner]}
}

// SetPosition stores pos, dropping it when it holds no shares.
func (s *PoolSnapshot) SetPosition(pos amm.LiquidityPosition) {
	if s.Positions == nil {
		s.Positions = make(map[common.Address]uint64)
	}
	if pos.Shares == 0 {
		delete(s.Positions, pos.Owner)
		return
	}
	s.Positions[pos.Owner] = pos.Shares
}

// SortedPositions lists positions by owner address.
func (s PoolSnapshot) SortedPositions() []amm.LiquidityPosition {
	out := make([]amm.LiquidityPosition, 0, len(s.Positions))
	for owner, shares := range s.Positions {
		out = append(out, amm.LiquidityPosition{Owner: owner, Shares: shares})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Owner.Bytes(), out[j].Owner.Bytes()) < 0
	})
	return out
}

// Reconcile checks the pool fields and that positions add up to the share
// supply.
func (s PoolSnapshot) Reconcile() error {
	if err := s.Pool.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", s.Name, err)
	}
	var total uint64
	for owner, shares := range s.Positions {
		next, err := amm.CheckedAdd(total, shares)
		if err != nil {
			return fmt.Errorf("pool %s: position %s: %w", s.Name, owner.Hex(), err)
		}
		total = next
	}
	if total != s.Pool.LPSupply {
		return fmt.Errorf("pool %s: positions hold %d shares, supply is %d", s.Name, total, s.Pool.LPSupply)
	}
	return nil
}
