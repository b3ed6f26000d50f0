package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	OpInitialize      = "initialize"
	OpSwap            = "swap"
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
)

// Observer receives the outcome of pool operations once they are final:
// OperationDone after the commit succeeds or the operation is rejected,
// SwapDone only for committed swaps. The engine itself never calls it.
type Observer interface {
	OperationDone(op string, err error)
	SwapDone(res SwapResult)
}

// Engine applies pool operations. Every operation evaluates against a copy of
// the pool and writes it back only when all checks pass, so a failed call
// leaves the pool and position untouched. Engine holds no pool state and is
// safe for concurrent use; callers serialize operations on the same pool.
type Engine struct {
	logger       *zap.Logger
	toleranceBps uint16
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRatioTolerance sets how much of an unbalanced deposit, in basis points
// of the offered amount, may be left unused. Zero requires the exact ratio.
func WithRatioTolerance(bps uint16) Option {
	return func(e *Engine) {
		e.toleranceBps = bps
	}
}

func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.toleranceBps > BasisPoints {
		return nil, ErrInvalidInput.Wrapf("ratio tolerance %d bps exceeds %d", e.toleranceBps, BasisPoints)
	}
	return e, nil
}

func (e *Engine) RatioTolerance() uint16 {
	return e.toleranceBps
}

// Initialize creates a pool. See the package-level Initialize.
func (e *Engine) Initialize(authority common.Address, reserveA, reserveB uint64, feeBps uint16) (*PoolState, error) {
	pool, err := Initialize(authority, reserveA, reserveB, feeBps)
	e.finish(OpInitialize, err,
		zap.Uint64("reserve_a", reserveA),
		zap.Uint64("reserve_b", reserveB),
		zap.Uint16("fee_bps", feeBps),
	)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Swap trades amountIn of the input asset for at least minOut of the other.
func (e *Engine) Swap(pool *PoolState, dir Direction, amountIn, minOut uint64) (SwapResult, error) {
	if pool == nil {
		err := ErrInvalidInput.Wrap("nil pool")
		e.finish(OpSwap, err)
		return SwapResult{}, err
	}

	res, next, err := SimulateSwap(*pool, dir, amountIn)
	if err == nil && res.AmountOut < minOut {
		err = ErrSlippageExceeded.Wrapf("output %d below minimum %d", res.AmountOut, minOut)
	}
	e.finish(OpSwap, err,
		zap.Stringer("direction", dir),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("min_out", minOut),
		zap.Uint64("amount_out", res.AmountOut),
	)
	if err != nil {
		return SwapResult{}, err
	}

	*pool = next
	return res, nil
}

// AddLiquidity deposits into pool and credits the minted shares to pos.
func (e *Engine) AddLiquidity(pool *PoolState, pos *LiquidityPosition, amountA, amountB uint64) (DepositResult, error) {
	res, next, credited, err := e.deposit(pool, pos, amountA, amountB)
	e.finish(OpAddLiquidity, err,
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("shares", res.Shares),
	)
	if err != nil {
		return DepositResult{}, err
	}

	*pool = next
	pos.Shares = credited
	return res, nil
}

func (e *Engine) deposit(pool *PoolState, pos *LiquidityPosition, amountA, amountB uint64) (DepositResult, PoolState, uint64, error) {
	if pool == nil || pos == nil {
		return DepositResult{}, PoolState{}, 0, ErrInvalidInput.Wrap("nil pool or position")
	}
	res, next, err := ComputeDeposit(*pool, amountA, amountB, e.toleranceBps)
	if err != nil {
		return DepositResult{}, PoolState{}, 0, err
	}
	credited, err := CheckedAdd(pos.Shares, res.Shares)
	if err != nil {
		return DepositResult{}, PoolState{}, 0, err
	}
	return res, next, credited, nil
}

// RemoveLiquidity burns shares from pos and pays out the matching reserves.
// It fails with ErrSlippageExceeded when either payout is below its minimum.
func (e *Engine) RemoveLiquidity(pool *PoolState, pos *LiquidityPosition, shares, minA, minB uint64) (WithdrawResult, error) {
	res, next, err := e.withdraw(pool, pos, shares)
	if err == nil && (res.AmountA < minA || res.AmountB < minB) {
		err = ErrSlippageExceeded.Wrapf("payout (%d, %d) below minimum (%d, %d)", res.AmountA, res.AmountB, minA, minB)
	}
	e.finish(OpRemoveLiquidity, err,
		zap.Uint64("shares", shares),
		zap.Uint64("min_a", minA),
		zap.Uint64("min_b", minB),
		zap.Uint64("amount_a", res.AmountA),
		zap.Uint64("amount_b", res.AmountB),
	)
	if err != nil {
		return WithdrawResult{}, err
	}

	*pool = next
	pos.Shares -= shares
	return res, nil
}

func (e *Engine) withdraw(pool *PoolState, pos *LiquidityPosition, shares uint64) (WithdrawResult, PoolState, error) {
	if pool == nil || pos == nil {
		return WithdrawResult{}, PoolState{}, ErrInvalidInput.Wrap("nil pool or position")
	}
	if shares > pos.Shares {
		return WithdrawResult{}, PoolState{}, ErrInvalidInput.Wrapf("shares %d exceed position %d", shares, pos.Shares)
	}
	return ComputeWithdrawal(*pool, shares)
}

func (e *Engine) finish(op string, err error, fields ...zap.Field) {
	if err != nil {
		e.logger.Debug("pool operation rejected",
			append(fields, zap.String("op", op), zap.String("kind", Kind(err)), zap.Error(err))...)
		return
	}
	e.logger.Debug("pool operation applied", append(fields, zap.String("op", op))...)
}
