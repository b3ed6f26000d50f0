package amm

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace for pool operations.
const Codespace = "amm"

var (
	ErrInvalidInput          = errorsmod.Register(Codespace, 2, "invalid input")
	ErrArithmeticOverflow    = errorsmod.Register(Codespace, 3, "arithmetic overflow")
	ErrInsufficientLiquidity = errorsmod.Register(Codespace, 4, "insufficient liquidity")
	ErrSlippageExceeded      = errorsmod.Register(Codespace, 5, "slippage exceeded")
	ErrUnauthorized          = errorsmod.Register(Codespace, 6, "unauthorized")
)

var kinds = []struct {
	err   *errorsmod.Error
	label string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrArithmeticOverflow, "arithmetic_overflow"},
	{ErrInsufficientLiquidity, "insufficient_liquidity"},
	{ErrSlippageExceeded, "slippage_exceeded"},
	{ErrUnauthorized, "unauthorized"},
}

// Kind returns a stable label for err: "ok" for nil, one of the taxonomy
// labels for pool errors, and "internal" for anything else.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errorsmod.IsOf(err, k.err) {
			return k.label
		}
	}
	return "internal"
}
