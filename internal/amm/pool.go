package amm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Direction selects which reserve receives the input of a swap.
type Direction uint8

const (
	AToB Direction = iota
	BToA
)

func (d Direction) Valid() bool {
	return d == AToB || d == BToA
}

func (d Direction) String() string {
	switch d {
	case AToB:
		return "a_to_b"
	case BToA:
		return "b_to_a"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection accepts a_to_b, a-to-b, atob and ab (and the B forms),
// case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s))) {
	case "atob", "ab":
		return AToB, nil
	case "btoa", "ba":
		return BToA, nil
	default:
		return 0, ErrInvalidInput.Wrapf("unknown direction %q", s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrInvalidInput.Wrapf("unknown direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PoolState is the persisted state of one two-asset pool.
type PoolState struct {
	ReserveA    uint64         `json:"reserve_a"`
	ReserveB    uint64         `json:"reserve_b"`
	LPSupply    uint64         `json:"lp_supply"`
	FeeBps      uint16         `json:"fee_bps"`
	Authority   common.Address `json:"authority"`
	Initialized bool           `json:"initialized"`
}

// Initialize creates an active pool seeded with the given reserves. The
// initial share supply is floor(sqrt(reserveA*reserveB)).
func Initialize(authority common.Address, reserveA, reserveB uint64, feeBps uint16) (*PoolState, error) {
	if reserveA == 0 || reserveB == 0 {
		return nil, ErrInvalidInput.Wrapf("initial reserves must be positive, got (%d, %d)", reserveA, reserveB)
	}
	if err := ValidateFeeBps(feeBps); err != nil {
		return nil, err
	}
	supply, err := SqrtProduct(reserveA, reserveB)
	if err != nil {
		return nil, err
	}

	return &PoolState{
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		LPSupply:    supply,
		FeeBps:      feeBps,
		Authority:   authority,
		Initialized: true,
	}, nil
}

// K returns ReserveA*ReserveB at full width.
func (p PoolState) K() *uint256.Int {
	return Product(p.ReserveA, p.ReserveB)
}

// Validate checks that the stored fields are mutually consistent.
func (p PoolState) Validate() error {
	if !p.Initialized {
		if p.ReserveA != 0 || p.ReserveB != 0 || p.LPSupply != 0 {
			return ErrInvalidInput.Wrap("uninitialized pool holds reserves")
		}
		return nil
	}
	if err := ValidateFeeBps(p.FeeBps); err != nil {
		return err
	}
	funded := p.ReserveA > 0 && p.ReserveB > 0
	empty := p.ReserveA == 0 && p.ReserveB == 0
	switch {
	case !funded && !empty:
		return ErrInvalidInput.Wrapf("one-sided reserves (%d, %d)", p.ReserveA, p.ReserveB)
	case funded != (p.LPSupply > 0):
		return ErrInvalidInput.Wrapf("reserves (%d, %d) inconsistent with supply %d", p.ReserveA, p.ReserveB, p.LPSupply)
	}
	return nil
}

func (p PoolState) requireActive() error {
	if !p.Initialized {
		return ErrInvalidInput.Wrap("pool not initialized")
	}
	return nil
}

func (p PoolState) reservesFor(dir Direction) (in, out uint64) {
	if dir == BToA {
		return p.ReserveB, p.ReserveA
	}
	return p.ReserveA, p.ReserveB
}

func (p PoolState) withReserves(dir Direction, in, out uint64) PoolState {
	if dir == BToA {
		p.ReserveB, p.ReserveA = in, out
	} else {
		p.ReserveA, p.ReserveB = in, out
	}
	return p
}

// SwapResult describes an executed or simulated swap.
type SwapResult struct {
	Direction        Direction `json:"direction"`
	AmountIn         uint64    `json:"amount_in"`
	AmountInAfterFee uint64    `json:"amount_in_after_fee"`
	FeeAmount        uint64    `json:"fee_amount"`
	AmountOut        uint64    `json:"amount_out"`
}

// SimulateSwap computes a swap of amountIn against pool without a slippage
// bound and returns the state the pool would move to. pool is not modified.
func SimulateSwap(pool PoolState, dir Direction, amountIn uint64) (SwapResult, PoolState, error) {
	if err := pool.requireActive(); err != nil {
		return SwapResult{}, pool, err
	}
	if !dir.Valid() {
		return SwapResult{}, pool, ErrInvalidInput.Wrapf("unknown direction %d", uint8(dir))
	}
	if amountIn == 0 {
		return SwapResult{}, pool, ErrInvalidInput.Wrap("amount in must be positive")
	}

	reserveIn, reserveOut := pool.reservesFor(dir)
	if reserveIn == 0 || reserveOut == 0 {
		return SwapResult{}, pool, ErrInsufficientLiquidity.Wrap("pool has no reserves")
	}

	afterFee, err := ApplyFee(amountIn, pool.FeeBps)
	if err != nil {
		return SwapResult{}, pool, err
	}
	if afterFee == 0 {
		return SwapResult{}, pool, ErrInvalidInput.Wrapf("amount in %d is consumed by the fee", amountIn)
	}

	out, err := ComputeSwapOutput(reserveIn, reserveOut, afterFee)
	if err != nil {
		return SwapResult{}, pool, err
	}
	if out == 0 {
		return SwapResult{}, pool, ErrInvalidInput.Wrapf("amount in %d yields no output", amountIn)
	}

	newIn, err := CheckedAdd(reserveIn, afterFee)
	if err != nil {
		return SwapResult{}, pool, err
	}

	res := SwapResult{
		Direction:        dir,
		AmountIn:         amountIn,
		AmountInAfterFee: afterFee,
		FeeAmount:        amountIn - afterFee,
		AmountOut:        out,
	}
	return res, pool.withReserves(dir, newIn, reserveOut-out), nil
}

// QuoteExactOut returns the smallest gross input that buys at least
// amountOut from pool in direction dir.
func QuoteExactOut(pool PoolState, dir Direction, amountOut uint64) (uint64, error) {
	if err := pool.requireActive(); err != nil {
		return 0, err
	}
	if !dir.Valid() {
		return 0, ErrInvalidInput.Wrapf("unknown direction %d", uint8(dir))
	}
	reserveIn, reserveOut := pool.reservesFor(dir)
	net, err := ComputeSwapInput(reserveIn, reserveOut, amountOut)
	if err != nil {
		return 0, err
	}
	return GrossUpForFee(net, pool.FeeBps)
}
