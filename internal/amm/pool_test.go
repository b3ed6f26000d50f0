package amm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthority = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func mustPool(t *testing.T, reserveA, reserveB uint64, feeBps uint16) *PoolState {
	t.Helper()
	pool, err := Initialize(testAuthority, reserveA, reserveB, feeBps)
	require.NoError(t, err)
	return pool
}

func TestSwapBalancedPoolWithFee(t *testing.T) {
	e := newTestEngine(t)
	pool := mustPool(t, 1000, 1000, 30)
	require.Equal(t, uint64(1000), pool.LPSupply)

	res, err := e.Swap(pool, AToB, 100, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(99), res.AmountInAfterFee)
	assert.Equal(t, uint64(1), res.FeeAmount)
	assert.Equal(t, uint64(90), res.AmountOut)
	assert.Equal(t, uint64(1099), pool.ReserveA)
	assert.Equal(t, uint64(910), pool.ReserveB)
	assert.Equal(t, uint64(1000), pool.LPSupply)
	assert.Equal(t, uint256.NewInt(1_000_090), pool.K())
}

func TestSwapBToA(t *testing.T) {
	e := newTestEngine(t)
	pool := mustPool(t, 1000, 1000, 30)

	res, err := e.Swap(pool, BToA, 100, 90)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), res.AmountOut)
	assert.Equal(t, uint64(910), pool.ReserveA)
	assert.Equal(t, uint64(1099), pool.ReserveB)
}

func TestSwapRejectionsLeavePoolUntouched(t *testing.T) {
	wide := uint64(math.MaxUint64 - 10)

	cases := []struct {
		name     string
		pool     PoolState
		dir      Direction
		amountIn uint64
		minOut   uint64
		wantErr  error
	}{
		{name: "zero input", pool: *mustPool(t, 1000, 1000, 30), dir: AToB, amountIn: 0, wantErr: ErrInvalidInput},
		{name: "slippage", pool: *mustPool(t, 1000, 1000, 30), dir: AToB, amountIn: 100, minOut: 91, wantErr: ErrSlippageExceeded},
		{name: "consumed by fee", pool: *mustPool(t, 1000, 1000, 30), dir: AToB, amountIn: 1, wantErr: ErrInvalidInput},
		{name: "output rounds to zero", pool: *mustPool(t, 1_000_000, 10, 0), dir: AToB, amountIn: 1, wantErr: ErrInvalidInput},
		{name: "unknown direction", pool: *mustPool(t, 1000, 1000, 30), dir: Direction(7), amountIn: 10, wantErr: ErrInvalidInput},
		{name: "uninitialized", pool: PoolState{}, dir: AToB, amountIn: 10, wantErr: ErrInvalidInput},
		{name: "emptied pool", pool: PoolState{Initialized: true}, dir: AToB, amountIn: 10, wantErr: ErrInsufficientLiquidity},
		{name: "reserve overflow", pool: *mustPool(t, wide, wide, 0), dir: AToB, amountIn: 100, wantErr: ErrArithmeticOverflow},
	}

	e := newTestEngine(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pool := tc.pool
			before := pool

			_, err := e.Swap(&pool, tc.dir, tc.amountIn, tc.minOut)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, pool)
		})
	}
}

func TestInitializeRejections(t *testing.T) {
	cases := []struct {
		name               string
		reserveA, reserveB uint64
		fee                uint16
	}{
		{name: "zero a", reserveA: 0, reserveB: 1, fee: 0},
		{name: "zero b", reserveA: 1, reserveB: 0, fee: 0},
		{name: "full fee", reserveA: 1, reserveB: 1, fee: BasisPoints},
		{name: "fee above range", reserveA: 1, reserveB: 1, fee: math.MaxUint16},
	}

	e := newTestEngine(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := e.Initialize(testAuthority, tc.reserveA, tc.reserveB, tc.fee)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, pool)
		})
	}
}

func TestInitialize(t *testing.T) {
	e := newTestEngine(t)
	pool, err := e.Initialize(testAuthority, 500, 2000, 0)
	require.NoError(t, err)

	assert.Equal(t, PoolState{
		ReserveA:    500,
		ReserveB:    2000,
		LPSupply:    1000,
		FeeBps:      0,
		Authority:   testAuthority,
		Initialized: true,
	}, *pool)
	require.NoError(t, pool.Validate())
}

func TestPoolStateValidate(t *testing.T) {
	cases := []struct {
		name  string
		pool  PoolState
		valid bool
	}{
		{name: "zero value", pool: PoolState{}, valid: true},
		{name: "active", pool: PoolState{ReserveA: 1, ReserveB: 1, LPSupply: 1, Initialized: true}, valid: true},
		{name: "emptied", pool: PoolState{Initialized: true, FeeBps: 30}, valid: true},
		{name: "reserves without init", pool: PoolState{ReserveA: 1, ReserveB: 1, LPSupply: 1}},
		{name: "one sided", pool: PoolState{ReserveA: 1, LPSupply: 1, Initialized: true}},
		{name: "reserves without supply", pool: PoolState{ReserveA: 1, ReserveB: 1, Initialized: true}},
		{name: "supply without reserves", pool: PoolState{LPSupply: 1, Initialized: true}},
		{name: "bad fee", pool: PoolState{ReserveA: 1, ReserveB: 1, LPSupply: 1, FeeBps: BasisPoints, Initialized: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pool.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSimulateSwapDoesNotMutate(t *testing.T) {
	pool := mustPool(t, 1000, 1000, 30)
	before := *pool

	res, next, err := SimulateSwap(*pool, AToB, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), res.AmountOut)
	assert.Equal(t, uint64(1099), next.ReserveA)
	assert.Equal(t, before, *pool)
}

func TestQuoteExactOut(t *testing.T) {
	pool := mustPool(t, 1000, 1000, 30)

	gross, err := QuoteExactOut(*pool, AToB, 90)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), gross)

	res, _, err := SimulateSwap(*pool, AToB, gross)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.AmountOut, uint64(90))

	_, err = QuoteExactOut(*pool, AToB, 1000)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestDirectionText(t *testing.T) {
	for _, in := range []string{"a_to_b", "A-TO-B", "atob", "ab"} {
		d, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, AToB, d)
	}
	d, err := ParseDirection("b-to-a")
	require.NoError(t, err)
	assert.Equal(t, BToA, d)

	_, err = ParseDirection("sideways")
	require.ErrorIs(t, err, ErrInvalidInput)

	b, err := json.Marshal(SwapResult{Direction: BToA})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"direction":"b_to_a"`)

	_, err = json.Marshal(SwapResult{Direction: Direction(9)})
	require.Error(t, err)
}

func TestNewEngineRejectsTolerance(t *testing.T) {
	_, err := NewEngine(WithRatioTolerance(BasisPoints + 1))
	require.ErrorIs(t, err, ErrInvalidInput)
}
