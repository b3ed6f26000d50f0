package amm

import (
	"github.com/holiman/uint256"
)

// ComputeSwapOutput returns floor(reserveOut*amountInAfterFee/(reserveIn+amountInAfterFee)).
//
// The result is always strictly below reserveOut, and the product of the
// reserves after the trade is at least the product before it.
func ComputeSwapOutput(reserveIn, reserveOut, amountInAfterFee uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInsufficientLiquidity.Wrap("empty reserves")
	}

	newIn := new(uint256.Int).Add(wide(reserveIn), wide(amountInAfterFee))
	out, err := mulDivWide(wide(reserveOut), wide(amountInAfterFee), newIn)
	if err != nil {
		return 0, err
	}
	if out >= reserveOut {
		return 0, ErrInsufficientLiquidity.Wrapf("output %d would drain reserve %d", out, reserveOut)
	}

	newOut := wide(reserveOut - out)
	if err := checkInvariant(wide(reserveIn), wide(reserveOut), newIn, newOut); err != nil {
		return 0, err
	}
	return out, nil
}

// ComputeSwapInput returns the smallest fee-adjusted input for which
// ComputeSwapOutput yields at least amountOut.
func ComputeSwapInput(reserveIn, reserveOut, amountOut uint64) (uint64, error) {
	if amountOut == 0 {
		return 0, ErrInvalidInput.Wrap("amount out must be positive")
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInsufficientLiquidity.Wrap("empty reserves")
	}
	if amountOut >= reserveOut {
		return 0, ErrInsufficientLiquidity.Wrapf("output %d would drain reserve %d", amountOut, reserveOut)
	}
	return MulDivCeil(reserveIn, amountOut, reserveOut-amountOut)
}

// CheckInvariant fails unless newIn*newOut >= oldIn*oldOut.
func CheckInvariant(oldIn, oldOut, newIn, newOut uint64) error {
	return checkInvariant(wide(oldIn), wide(oldOut), wide(newIn), wide(newOut))
}

func checkInvariant(oldIn, oldOut, newIn, newOut *uint256.Int) error {
	before := new(uint256.Int).Mul(oldIn, oldOut)
	after := new(uint256.Int).Mul(newIn, newOut)
	if after.Lt(before) {
		return ErrArithmeticOverflow.Wrapf("constant product decreased from %s to %s", before.Dec(), after.Dec())
	}
	return nil
}
