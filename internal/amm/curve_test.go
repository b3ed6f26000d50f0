package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSwapOutput(t *testing.T) {
	cases := []struct {
		name                  string
		reserveIn, reserveOut uint64
		amountIn              uint64
		want                  uint64
		wantErr               error
	}{
		{name: "balanced", reserveIn: 1000, reserveOut: 1000, amountIn: 99, want: 90},
		{name: "zero input", reserveIn: 1000, reserveOut: 1000, amountIn: 0, want: 0},
		{name: "huge input never drains", reserveIn: 1, reserveOut: 1_000, amountIn: math.MaxUint64, want: 999},
		{name: "wide reserves", reserveIn: math.MaxUint64, reserveOut: math.MaxUint64, amountIn: math.MaxUint64, want: math.MaxUint64 / 2},
		{name: "empty in", reserveIn: 0, reserveOut: 1, amountIn: 1, wantErr: ErrInsufficientLiquidity},
		{name: "empty out", reserveIn: 1, reserveOut: 0, amountIn: 1, wantErr: ErrInsufficientLiquidity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSwapOutput(tc.reserveIn, tc.reserveOut, tc.amountIn)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeSwapOutputMonotone(t *testing.T) {
	var prev uint64
	for in := uint64(0); in <= 5_000; in += 7 {
		out, err := ComputeSwapOutput(1_000, 3_000, in)
		require.NoError(t, err)
		require.GreaterOrEqual(t, out, prev, "input %d", in)
		prev = out
	}
}

func TestComputeSwapInput(t *testing.T) {
	in, err := ComputeSwapInput(1_000, 1_000, 90)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), in)

	out, err := ComputeSwapOutput(1_000, 1_000, in)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out, uint64(90))

	_, err = ComputeSwapInput(1_000, 1_000, 1_000)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = ComputeSwapInput(1_000, 1_000, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckInvariant(t *testing.T) {
	require.NoError(t, CheckInvariant(1000, 1000, 1099, 910))
	require.NoError(t, CheckInvariant(1000, 1000, 1000, 1000))
	require.ErrorIs(t, CheckInvariant(1000, 1000, 1099, 909), ErrArithmeticOverflow)
}
