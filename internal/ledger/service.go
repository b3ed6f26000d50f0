package ledger

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/benodiwal/dexy/internal/amm"
	"github.com/benodiwal/dexy/internal/model"
	"github.com/benodiwal/dexy/internal/storage"
)

// Config controls how the service retries conflicting commits and where it
// reports finished operations.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Observer     amm.Observer
}

type nopObserver struct{}

func (nopObserver) OperationDone(string, error) {}
func (nopObserver) SwapDone(amm.SwapResult)     {}

// Service runs pool operations against a PoolStore. Each operation is
// evaluated inside a single store update, so it commits completely or not at
// all, and committed operations are appended to the journal.
type Service struct {
	cfg      Config
	engine   *amm.Engine
	store    storage.PoolStore
	journal  storage.Journal
	observer amm.Observer
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(cfg Config, engine *amm.Engine, store storage.PoolStore, journal storage.Journal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		journal:  journal,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreatePool initializes a named pool. The caller receives the initial
// shares; authority defaults to the caller when zero.
func (s *Service) CreatePool(ctx context.Context, name string, caller, authority common.Address, reserveA, reserveB uint64, feeBps uint16) (model.PoolSnapshot, error) {
	if authority == (common.Address{}) {
		authority = caller
	}
	return s.apply(ctx, name, amm.OpInitialize, caller, func(snap *model.PoolSnapshot) (model.JournalEntry, error) {
		if snap.Pool.Initialized {
			return model.JournalEntry{}, amm.ErrInvalidInput.Wrapf("pool %s already initialized", name)
		}
		pool, err := s.engine.Initialize(authority, reserveA, reserveB, feeBps)
		if err != nil {
			return model.JournalEntry{}, err
		}
		snap.Pool = *pool
		snap.Positions = nil
		snap.SetPosition(amm.LiquidityPosition{Owner: caller, Shares: pool.LPSupply})
		return model.JournalEntry{AmountA: reserveA, AmountB: reserveB, Shares: pool.LPSupply}, nil
	})
}

func (s *Service) Swap(ctx context.Context, name string, caller common.Address, dir amm.Direction, amountIn, minOut uint64) (amm.SwapResult, error) {
	var res amm.SwapResult
	_, err := s.apply(ctx, name, amm.OpSwap, caller, func(snap *model.PoolSnapshot) (model.JournalEntry, error) {
		if err := requireExisting(snap); err != nil {
			return model.JournalEntry{}, err
		}
		r, err := s.engine.Swap(&snap.Pool, dir, amountIn, minOut)
		if err != nil {
			return model.JournalEntry{}, err
		}
		res = r
		return model.JournalEntry{
			Direction: &r.Direction,
			AmountIn:  r.AmountIn,
			AmountOut: r.AmountOut,
			Fee:       r.FeeAmount,
		}, nil
	})
	if err != nil {
		return amm.SwapResult{}, err
	}
	s.observer.SwapDone(res)
	return res, nil
}

// AddLiquidity deposits into the pool and credits the caller's position.
func (s *Service) AddLiquidity(ctx context.Context, name string, caller common.Address, amountA, amountB uint64) (amm.DepositResult, error) {
	var res amm.DepositResult
	_, err := s.apply(ctx, name, amm.OpAddLiquidity, caller, func(snap *model.PoolSnapshot) (model.JournalEntry, error) {
		if err := requireExisting(snap); err != nil {
			return model.JournalEntry{}, err
		}
		pos := snap.Position(caller)
		r, err := s.engine.AddLiquidity(&snap.Pool, &pos, amountA, amountB)
		if err != nil {
			return model.JournalEntry{}, err
		}
		snap.SetPosition(pos)
		res = r
		return model.JournalEntry{AmountA: r.AmountA, AmountB: r.AmountB, Shares: r.Shares}, nil
	})
	if err != nil {
		return amm.DepositResult{}, err
	}
	return res, nil
}

// RemoveLiquidity burns shares from the caller's own position. Zero minimums
// accept any payout.
func (s *Service) RemoveLiquidity(ctx context.Context, name string, caller common.Address, shares, minA, minB uint64) (amm.WithdrawResult, error) {
	var res amm.WithdrawResult
	_, err := s.apply(ctx, name, amm.OpRemoveLiquidity, caller, func(snap *model.PoolSnapshot) (model.JournalEntry, error) {
		if err := requireExisting(snap); err != nil {
			return model.JournalEntry{}, err
		}
		pos := snap.Position(caller)
		r, err := s.engine.RemoveLiquidity(&snap.Pool, &pos, shares, minA, minB)
		if err != nil {
			return model.JournalEntry{}, err
		}
		snap.SetPosition(pos)
		res = r
		return model.JournalEntry{AmountA: r.AmountA, AmountB: r.AmountB, Shares: r.Shares}, nil
	})
	if err != nil {
		return amm.WithdrawResult{}, err
	}
	return res, nil
}

func (s *Service) Pool(ctx context.Context, name string) (model.PoolSnapshot, error) {
	return s.store.Load(ctx, name)
}

// Quote previews a swap without committing it.
type Quote struct {
	Pool        string         `json:"pool"`
	Result      amm.SwapResult `json:"result"`
	SpotPrice   math.LegacyDec `json:"spot_price"`
	PriceImpact math.LegacyDec `json:"price_impact"`
	After       amm.PoolState  `json:"after"`
}

func (s *Service) Quote(ctx context.Context, name string, dir amm.Direction, amountIn uint64) (Quote, error) {
	snap, err := s.store.Load(ctx, name)
	if err != nil {
		return Quote{}, err
	}
	res, next, err := amm.SimulateSwap(snap.Pool, dir, amountIn)
	if err != nil {
		return Quote{}, err
	}
	spot, err := amm.SpotPrice(snap.Pool, dir)
	if err != nil {
		return Quote{}, err
	}
	impact, err := amm.PriceImpact(snap.Pool, dir, amountIn)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Pool: name, Result: res, SpotPrice: spot, PriceImpact: impact, After: next}, nil
}

// QuoteExactOut returns the gross input needed to receive amountOut.
func (s *Service) QuoteExactOut(ctx context.Context, name string, dir amm.Direction, amountOut uint64) (uint64, error) {
	snap, err := s.store.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	return amm.QuoteExactOut(snap.Pool, dir, amountOut)
}

type mutation func(snap *model.PoolSnapshot) (model.JournalEntry, error)

// apply commits fn and reports the final outcome to the observer once,
// after the store has accepted or rejected the change.
func (s *Service) apply(ctx context.Context, name, op string, caller common.Address, fn mutation) (model.PoolSnapshot, error) {
	committed, entry, err := s.commit(ctx, name, caller, fn)
	s.observer.OperationDone(op, err)
	if err != nil {
		s.logger.Debug("pool operation failed",
			zap.String("pool", name),
			zap.String("op", op),
			zap.String("caller", caller.Hex()),
			zap.String("kind", amm.Kind(err)),
			zap.Error(err),
		)
		return model.PoolSnapshot{}, err
	}

	now := s.now().UTC()
	entry = entry.WithState(committed)
	entry.Op = op
	entry.Caller = caller
	entry.Timestamp = uint64(now.Unix())
	entry.RecordedAt = now.Format(time.RFC3339Nano)

	s.logger.Info("pool operation committed",
		zap.String("pool", name),
		zap.String("op", op),
		zap.String("caller", caller.Hex()),
		zap.Uint64("version", committed.Version),
		zap.Uint64("reserve_a", committed.Pool.ReserveA),
		zap.Uint64("reserve_b", committed.Pool.ReserveB),
		zap.Uint64("lp_supply", committed.Pool.LPSupply),
	)

	if s.journal != nil {
		if err := s.journal.Append(ctx, entry); err != nil {
			s.logger.Warn("journal append failed", zap.String("pool", name), zap.String("op", op), zap.Error(err))
		}
	}
	return committed, nil
}

// commit runs fn inside a store update, retrying conflicts.
func (s *Service) commit(ctx context.Context, name string, caller common.Address, fn mutation) (model.PoolSnapshot, model.JournalEntry, error) {
	if caller == (common.Address{}) {
		return model.PoolSnapshot{}, model.JournalEntry{}, amm.ErrUnauthorized.Wrap("caller is not authenticated")
	}

	var (
		entry     model.JournalEntry
		committed model.PoolSnapshot
	)
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		snap, err := s.store.Update(ctx, name, func(snap *model.PoolSnapshot) error {
			e, err := fn(snap)
			if err != nil {
				return err
			}
			if err := snap.Reconcile(); err != nil {
				return err
			}
			entry = e
			return nil
		})
		if err != nil {
			return err
		}
		committed = snap
		return nil
	})
	if err != nil {
		return model.PoolSnapshot{}, model.JournalEntry{}, err
	}
	return committed, entry, nil
}

func requireExisting(snap *model.PoolSnapshot) error {
	if snap.Version == 0 {
		return amm.ErrInvalidInput.Wrapf("pool %s does not exist", snap.Name)
	}
	return nil
}
