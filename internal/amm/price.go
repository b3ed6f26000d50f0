package amm

import (
	"cosmossdk.io/math"
)

// SpotPrice returns how many units of the output asset one unit of the input
// asset buys at the margin, ignoring fees.
func SpotPrice(pool PoolState, dir Direction) (math.LegacyDec, error) {
	if err := pool.requireActive(); err != nil {
		return math.LegacyDec{}, err
	}
	if !dir.Valid() {
		return math.LegacyDec{}, ErrInvalidInput.Wrapf("unknown direction %d", uint8(dir))
	}
	reserveIn, reserveOut := pool.reservesFor(dir)
	if reserveIn == 0 || reserveOut == 0 {
		return math.LegacyDec{}, ErrInsufficientLiquidity.Wrap("empty reserves")
	}
	return ratio(reserveOut, reserveIn), nil
}

// PriceImpact returns 1 - executionPrice/spotPrice for a swap of amountIn,
// fees included.
func PriceImpact(pool PoolState, dir Direction, amountIn uint64) (math.LegacyDec, error) {
	spot, err := SpotPrice(pool, dir)
	if err != nil {
		return math.LegacyDec{}, err
	}
	res, _, err := SimulateSwap(pool, dir, amountIn)
	if err != nil {
		return math.LegacyDec{}, err
	}
	execution := ratio(res.AmountOut, res.AmountIn)
	impact := math.LegacyOneDec().Sub(execution.Quo(spot))
	if impact.IsNegative() {
		return math.LegacyZeroDec(), nil
	}
	return impact, nil
}

func ratio(num, den uint64) math.LegacyDec {
	return math.LegacyNewDecFromInt(math.NewIntFromUint64(num)).
		Quo(math.LegacyNewDecFromInt(math.NewIntFromUint64(den)))
}
