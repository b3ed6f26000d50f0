package amm

import (
	"github.com/ethereum/go-ethereum/common"
)

// LiquidityPosition is one provider's claim on a pool.
type LiquidityPosition struct {
	Owner  common.Address `json:"owner"`
	Shares uint64         `json:"shares"`
}

// DepositResult reports the amounts taken into the reserves and the shares
// minted for them. UnusedA and UnusedB are what the caller offered but the
// pool did not take.
type DepositResult struct {
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
	UnusedA uint64 `json:"unused_a"`
	UnusedB uint64 `json:"unused_b"`
	Shares  uint64 `json:"shares"`
}

// WithdrawResult reports the shares burned and the reserves paid out.
type WithdrawResult struct {
	Shares  uint64 `json:"shares"`
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}

// ComputeDeposit prices a deposit of up to (amountA, amountB) against pool.
//
// The asset that is short relative to the current reserve ratio is taken in
// full and the other is matched to it. The unmatched remainder may be at most
// toleranceBps of what was offered on that side. A pool with no outstanding
// shares is seeded the same way Initialize seeds it.
func ComputeDeposit(pool PoolState, amountA, amountB uint64, toleranceBps uint16) (DepositResult, PoolState, error) {
	if err := pool.requireActive(); err != nil {
		return DepositResult{}, pool, err
	}
	if amountA == 0 || amountB == 0 {
		return DepositResult{}, pool, ErrInvalidInput.Wrapf("deposit amounts must be positive, got (%d, %d)", amountA, amountB)
	}

	var res DepositResult
	if pool.LPSupply == 0 {
		shares, err := SqrtProduct(amountA, amountB)
		if err != nil {
			return DepositResult{}, pool, err
		}
		res = DepositResult{AmountA: amountA, AmountB: amountB, Shares: shares}
	} else {
		var err error
		res, err = proportionalDeposit(pool, amountA, amountB, toleranceBps)
		if err != nil {
			return DepositResult{}, pool, err
		}
	}
	if res.Shares == 0 {
		return DepositResult{}, pool, ErrInvalidInput.Wrap("deposit too small to mint shares")
	}

	next := pool
	var err error
	if next.ReserveA, err = CheckedAdd(pool.ReserveA, res.AmountA); err != nil {
		return DepositResult{}, pool, err
	}
	if next.ReserveB, err = CheckedAdd(pool.ReserveB, res.AmountB); err != nil {
		return DepositResult{}, pool, err
	}
	if next.LPSupply, err = CheckedAdd(pool.LPSupply, res.Shares); err != nil {
		return DepositResult{}, pool, err
	}
	return res, next, nil
}

func proportionalDeposit(pool PoolState, amountA, amountB uint64, toleranceBps uint16) (DepositResult, error) {
	if pool.ReserveA == 0 || pool.ReserveB == 0 {
		return DepositResult{}, ErrInsufficientLiquidity.Wrap("pool has shares but no reserves")
	}

	res := DepositResult{AmountA: amountA, AmountB: amountB}
	optimalB, err := MulDiv(amountA, pool.ReserveB, pool.ReserveA)
	if err != nil {
		return DepositResult{}, err
	}
	if optimalB <= amountB {
		// A is limiting.
		res.AmountB = optimalB
		res.UnusedB = amountB - optimalB
		if exceedsBps(res.UnusedB, amountB, toleranceBps) {
			return DepositResult{}, ErrInvalidInput.Wrapf("amount b %d exceeds the pool ratio, %d would be used", amountB, optimalB)
		}
	} else {
		optimalA, err := MulDiv(amountB, pool.ReserveA, pool.ReserveB)
		if err != nil {
			return DepositResult{}, err
		}
		res.AmountA = optimalA
		res.UnusedA = amountA - optimalA
		if exceedsBps(res.UnusedA, amountA, toleranceBps) {
			return DepositResult{}, ErrInvalidInput.Wrapf("amount a %d exceeds the pool ratio, %d would be used", amountA, optimalA)
		}
	}
	if res.AmountA == 0 || res.AmountB == 0 {
		return DepositResult{}, ErrInvalidInput.Wrap("deposit too small for the pool ratio")
	}

	sharesA, err := MulDiv(pool.LPSupply, res.AmountA, pool.ReserveA)
	if err != nil {
		return DepositResult{}, err
	}
	sharesB, err := MulDiv(pool.LPSupply, res.AmountB, pool.ReserveB)
	if err != nil {
		return DepositResult{}, err
	}
	res.Shares = min(sharesA, sharesB)
	return res, nil
}

// ComputeWithdrawal prices burning shares against pool. Each side pays out
// floor(reserve*shares/lpSupply).
func ComputeWithdrawal(pool PoolState, shares uint64) (WithdrawResult, PoolState, error) {
	if err := pool.requireActive(); err != nil {
		return WithdrawResult{}, pool, err
	}
	if shares == 0 {
		return WithdrawResult{}, pool, ErrInvalidInput.Wrap("shares must be positive")
	}
	if shares > pool.LPSupply {
		return WithdrawResult{}, pool, ErrInvalidInput.Wrapf("shares %d exceed supply %d", shares, pool.LPSupply)
	}

	amountA, err := MulDiv(pool.ReserveA, shares, pool.LPSupply)
	if err != nil {
		return WithdrawResult{}, pool, err
	}
	amountB, err := MulDiv(pool.ReserveB, shares, pool.LPSupply)
	if err != nil {
		return WithdrawResult{}, pool, err
	}
	if amountA == 0 && amountB == 0 {
		return WithdrawResult{}, pool, ErrInvalidInput.Wrapf("burning %d shares returns nothing", shares)
	}

	next := pool
	if next.ReserveA, err = CheckedSub(pool.ReserveA, amountA); err != nil {
		return WithdrawResult{}, pool, err
	}
	if next.ReserveB, err = CheckedSub(pool.ReserveB, amountB); err != nil {
		return WithdrawResult{}, pool, err
	}
	next.LPSupply = pool.LPSupply - shares

	return WithdrawResult{Shares: shares, AmountA: amountA, AmountB: amountB}, next, nil
}
