package credit

import (
	"context"
	"errors"
	"strings"

	"credlink/internal/domain/uow"
	domainUser "credlink/internal/domain/user"
	ledgerUC "credlink/internal/usecase/ledger"
	"credlink/pkg/clock"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Usecase owns user profiles and every credit score mutation.
type Usecase struct {
	uow    uow.UnitOfWork
	policy domainUser.ScorePolicy
	clock  clock.Clock
	log    *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, policy domainUser.ScorePolicy, c clock.Clock, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, policy: policy, clock: c, log: log}
}

// Register creates a profile keyed by address with the default score.
func (u *Usecase) Register(ctx context.Context, address string) (*ProfileDTO, error) {
	if strings.TrimSpace(address) == "" {
		return nil, domainUser.ErrInvalidAddress
	}
	var p *domainUser.Profile
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		_, err := r.Users.GetByAddress(ctx, address)
		switch {
		case err == nil:
			return domainUser.ErrDuplicateUser
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		p = domainUser.NewProfile(address, u.clock.Now())
		if err := r.Users.Create(ctx, p); err != nil {
			// lost a race with a concurrent registration
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainUser.ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("user registered", zap.String("address", address))
	return toDTO(p, nil), nil
}

// Profile returns the profile with its transaction history.
func (u *Usecase) Profile(ctx context.Context, address string) (*ProfileDTO, error) {
	var dto *ProfileDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Users.GetByAddress(ctx, address)
		if err != nil {
			return notFound(err)
		}
		recs, err := r.Ledger.ListByAddress(ctx, address)
		if err != nil {
			return err
		}
		dto = toDTO(p, ledgerUC.ToDTOs(recs))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// SetIdentityVerified records the outcome of external identity verification.
func (u *Usecase) SetIdentityVerified(ctx context.Context, address string, verified bool) (*ProfileDTO, error) {
	var p *domainUser.Profile
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if p, err = u.Lock(ctx, r, address); err != nil {
			return err
		}
		p.IdentityVerified = verified
		return r.Users.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("identity verification updated", zap.String("address", address), zap.Bool("verified", verified))
	return toDTO(p, nil), nil
}

// Lock loads the profile row for update inside r's transaction.
func (u *Usecase) Lock(ctx context.Context, r uow.Repos, address string) (*domainUser.Profile, error) {
	p, err := r.Users.GetByAddressForUpdate(ctx, address)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// RecordRepayment applies a completed repayment to a locked profile.
func (u *Usecase) RecordRepayment(ctx context.Context, r uow.Repos, p *domainUser.Profile, onTime bool) error {
	before := p.CreditScore
	u.policy.ApplyPaymentOutcome(p, onTime)
	u.policy.ApplyCompletion(p)
	if err := r.Users.Save(ctx, p); err != nil {
		return err
	}
	u.log.Debug("score updated",
		zap.String("address", p.Address),
		zap.Bool("on_time", onTime),
		zap.Uint32("from", before),
		zap.Uint32("to", p.CreditScore))
	return nil
}

// RecordDefault applies a forced close (liquidation or default) to a locked profile.
func (u *Usecase) RecordDefault(ctx context.Context, r uow.Repos, p *domainUser.Profile) error {
	before := p.CreditScore
	u.policy.ApplyDefault(p)
	if err := r.Users.Save(ctx, p); err != nil {
		return err
	}
	u.log.Debug("score penalized",
		zap.String("address", p.Address),
		zap.Uint32("from", before),
		zap.Uint32("to", p.CreditScore))
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainUser.ErrNotFound
	}
	return err
}
