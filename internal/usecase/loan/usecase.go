package loan

import (
	"context"
	"errors"
	"fmt"

	"credlink/internal/domain/collateral"
	domainLedger "credlink/internal/domain/ledger"
	domainLoan "credlink/internal/domain/loan"
	"credlink/internal/domain/uow"
	"credlink/internal/infrastructure/metrics"
	"credlink/internal/usecase/credit"
	ledgerUC "credlink/internal/usecase/ledger"
	poolUC "credlink/internal/usecase/pool"
	"credlink/pkg/bps"
	"credlink/pkg/clock"
	"credlink/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Usecase drives origination and repayment. Every operation is one
// transaction that locks rows in the order loan, profile, pool.
type Usecase struct {
	uow        uow.UnitOfWork
	credits    *credit.Usecase
	pools      *poolUC.Usecase
	ledger     *ledgerUC.Usecase
	classifier collateral.Classifier
	clock      clock.Clock
	log        *zap.Logger
	metrics    *metrics.Lending
}

type Deps struct {
	Credits    *credit.Usecase
	Pools      *poolUC.Usecase
	Ledger     *ledgerUC.Usecase
	Classifier collateral.Classifier
	Clock      clock.Clock
	Log        *zap.Logger
	Metrics    *metrics.Lending
}

func NewUsecase(tx uow.UnitOfWork, d Deps) *Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	return &Usecase{
		uow:        tx,
		credits:    d.Credits,
		pools:      d.Pools,
		ledger:     d.Ledger,
		classifier: d.Classifier,
		clock:      d.Clock,
		log:        d.Log,
		metrics:    d.Metrics,
	}
}

// Originate checks eligibility and collateral, reserves pool funds and
// opens an active loan.
func (u *Usecase) Originate(ctx context.Context, in OriginateInput) (*LoanDTO, error) {
	if in.Amount == 0 {
		return nil, domainLoan.ErrInvalidAmount
	}
	if !bps.Storable(in.Amount) || !bps.Storable(in.CollateralAmount) {
		return nil, domainLoan.ErrOverflow
	}
	if in.Caller != "" && in.Caller != in.Borrower {
		return nil, domainLoan.ErrUnauthorized
	}

	var l *domainLoan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		profile, err := u.credits.Lock(ctx, r, in.Borrower)
		if err != nil {
			return err
		}
		p, err := u.pools.Lock(ctx, r, in.Asset)
		if err != nil {
			return err
		}

		if profile.CreditScore < p.MinCreditScore {
			return fmt.Errorf("%w: score %d, pool minimum %d",
				domainLoan.ErrInsufficientCreditScore, profile.CreditScore, p.MinCreditScore)
		}

		required := u.classifier.RequiredRatioBps(in.CollateralAsset)
		if bps.Ratio(in.CollateralAmount, in.Amount) < required {
			minimum, ok := bps.MinCollateral(in.Amount, required)
			if !ok {
				return domainLoan.ErrOverflow
			}
			return fmt.Errorf("%w: need at least %d %s for %d %s",
				domainLoan.ErrInsufficientCollateral, minimum, in.CollateralAsset, in.Amount, in.Asset)
		}

		if err := u.pools.Reserve(ctx, r, p, in.Amount); err != nil {
			return err
		}

		loanID, err := id.NewLoanID()
		if err != nil {
			return err
		}
		now := u.clock.Now().UTC()
		l = &domainLoan.Loan{
			LoanID:           loanID,
			Borrower:         in.Borrower,
			Lender:           domainLoan.LenderForPool(p.Asset),
			Amount:           in.Amount,
			Asset:            p.Asset,
			CollateralAmount: in.CollateralAmount,
			CollateralAsset:  in.CollateralAsset,
			InterestRateBps:  p.InterestRateBps,
			StartDate:        now,
			DueDate:          now.Add(p.LoanDuration()),
			Status:           domainLoan.StatusActive,
		}
		if _, err := l.AmountOwed(); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		_, err = u.ledger.Append(ctx, r, ledgerUC.Entry{
			Address: l.Borrower,
			Type:    domainLedger.TypeLoan,
			Amount:  l.Amount,
			Asset:   l.Asset,
			LoanID:  l.LoanID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.metrics.ObserveOrigination(l.Asset, l.Amount)
	u.log.Info("loan originated",
		zap.String("loan_id", l.LoanID),
		zap.String("borrower", l.Borrower),
		zap.Uint64("amount", l.Amount),
		zap.String("asset", l.Asset),
		zap.Time("due_date", l.DueDate))
	return ToDTO(l), nil
}

// Repay settles an active loan in full. Payments above the amount owed are
// not credited and come back as change.
func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	var res *RepayResult
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if in.Caller != "" && in.Caller != l.Borrower {
			return domainLoan.ErrUnauthorized
		}
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}

		owed, err := l.AmountOwed()
		if err != nil {
			return err
		}
		if in.Payment < owed {
			return fmt.Errorf("%w: owed %d, paid %d", domainLoan.ErrInsufficientPayment, owed, in.Payment)
		}

		now := u.clock.Now()
		onTime := l.OnTime(now)

		profile, err := u.credits.Lock(ctx, r, l.Borrower)
		if err != nil {
			return err
		}
		if err := u.credits.RecordRepayment(ctx, r, profile, onTime); err != nil {
			return err
		}

		p, err := u.pools.Lock(ctx, r, l.Asset)
		if err != nil {
			return err
		}
		if _, err := u.pools.Release(ctx, r, p, owed); err != nil {
			return err
		}

		if err := l.Close(domainLoan.StatusCompleted, owed, now); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if _, err := u.ledger.Append(ctx, r, ledgerUC.Entry{
			Address: l.Borrower,
			Type:    domainLedger.TypeRepayment,
			Amount:  owed,
			Asset:   l.Asset,
			LoanID:  l.LoanID,
		}); err != nil {
			return err
		}
		// collateral goes back to the borrower
		if _, err := u.ledger.Append(ctx, r, ledgerUC.Entry{
			Address: l.Borrower,
			Type:    domainLedger.TypePayment,
			Amount:  l.CollateralAmount,
			Asset:   l.CollateralAsset,
			LoanID:  l.LoanID,
		}); err != nil {
			return err
		}

		res = &RepayResult{Loan: ToDTO(l), Paid: owed, Change: in.Payment - owed, OnTime: onTime}
		return nil
	})
	if err != nil {
		return nil, loanNotFound(err)
	}

	u.metrics.ObserveRepayment(res.Loan.Asset, res.OnTime)
	u.log.Info("loan repaid",
		zap.String("loan_id", res.Loan.LoanID),
		zap.Uint64("paid", res.Paid),
		zap.Bool("on_time", res.OnTime))
	return res, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	if err != nil {
		return nil, loanNotFound(err)
	}
	return dto, nil
}

// ListActive returns active loans oldest first; limit <= 0 returns all.
func (u *Usecase) ListActive(ctx context.Context, limit int) ([]*LoanDTO, error) {
	var out []*LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ls, err := r.Loans.ListByStatus(ctx, domainLoan.StatusActive, limit)
		if err != nil {
			return err
		}
		out = toDTOs(ls)
		return nil
	})
	return out, err
}

// ListByBorrower returns every loan of borrower, newest first.
func (u *Usecase) ListByBorrower(ctx context.Context, borrower string) ([]*LoanDTO, error) {
	var out []*LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ls, err := r.Loans.ListByBorrower(ctx, borrower)
		if err != nil {
			return err
		}
		out = toDTOs(ls)
		return nil
	})
	return out, err
}

func loanNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainLoan.ErrNotFound
	}
	return err
}
