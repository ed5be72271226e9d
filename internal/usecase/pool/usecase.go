package pool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainPool "credlink/internal/domain/pool"
	"credlink/internal/domain/uow"
	"credlink/pkg/bps"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Usecase manages pool balances. The in-transaction helpers (Lock, Reserve,
// Release, Settle) run on rows locked through the caller's uow.Repos.
type Usecase struct {
	uow uow.UnitOfWork
	log *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log}
}

func (u *Usecase) CreatePool(ctx context.Context, in CreatePoolInput) (*PoolDTO, error) {
	if strings.TrimSpace(in.Asset) == "" {
		return nil, fmt.Errorf("%w: asset is required", domainPool.ErrInvalidConfig)
	}
	if !bps.Storable(in.InitialFunds) {
		return nil, domainPool.ErrOverflow
	}
	if in.MaxLoanDurationDays == 0 {
		return nil, fmt.Errorf("%w: max loan duration must be at least one day", domainPool.ErrInvalidConfig)
	}

	p := &domainPool.Pool{
		Asset:               in.Asset,
		TotalFunds:          in.InitialFunds,
		AvailableFunds:      in.InitialFunds,
		MinCreditScore:      in.MinCreditScore,
		InterestRateBps:     in.InterestRateBps,
		MaxLoanDurationDays: in.MaxLoanDurationDays,
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		_, err := r.Pools.GetByAsset(ctx, in.Asset)
		switch {
		case err == nil:
			return domainPool.ErrAlreadyExists
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := r.Pools.Create(ctx, p); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainPool.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("pool created",
		zap.String("asset", p.Asset),
		zap.Uint64("initial_funds", p.TotalFunds),
		zap.Uint32("interest_rate_bps", p.InterestRateBps))
	return toDTO(p), nil
}

// Fund deposits amount into an existing pool.
func (u *Usecase) Fund(ctx context.Context, asset string, amount uint64) (*PoolDTO, error) {
	var p *domainPool.Pool
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if p, err = u.Lock(ctx, r, asset); err != nil {
			return err
		}
		if err := p.Fund(amount); err != nil {
			return err
		}
		return r.Pools.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("pool funded", zap.String("asset", asset), zap.Uint64("amount", amount))
	return toDTO(p), nil
}

func (u *Usecase) Get(ctx context.Context, asset string) (*PoolDTO, error) {
	var dto *PoolDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Pools.GetByAsset(ctx, asset)
		if err != nil {
			return notFound(err)
		}
		dto = toDTO(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Lock loads the pool row for update inside r's transaction.
func (u *Usecase) Lock(ctx context.Context, r uow.Repos, asset string) (*domainPool.Pool, error) {
	p, err := r.Pools.GetByAssetForUpdate(ctx, asset)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Reserve takes amount out of a locked pool's available balance.
func (u *Usecase) Reserve(ctx context.Context, r uow.Repos, p *domainPool.Pool, amount uint64) error {
	if err := p.Reserve(amount); err != nil {
		return err
	}
	return r.Pools.Save(ctx, p)
}

// Release returns amount to a locked pool and reports the part credited as income.
func (u *Usecase) Release(ctx context.Context, r uow.Repos, p *domainPool.Pool, amount uint64) (uint64, error) {
	income, err := p.Release(amount)
	if err != nil {
		return 0, err
	}
	if err := r.Pools.Save(ctx, p); err != nil {
		return 0, err
	}
	return income, nil
}

// Settle closes out principal that was force-closed: whatever was recovered
// goes back to the pool and the rest is booked as shortfall.
func (u *Usecase) Settle(ctx context.Context, r uow.Repos, p *domainPool.Pool, principal, recovered uint64) (uint64, error) {
	var shortfall uint64
	if recovered < principal {
		shortfall = principal - recovered
	}
	if recovered > 0 {
		if _, err := p.Release(recovered); err != nil {
			return 0, err
		}
	}
	p.RecordShortfall(shortfall)
	if err := r.Pools.Save(ctx, p); err != nil {
		return 0, err
	}
	return shortfall, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainPool.ErrNotFound
	}
	return err
}
