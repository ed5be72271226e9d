package liquidation

import (
	"context"
	"errors"

	"credlink/internal/domain/collateral"
	domainLedger "credlink/internal/domain/ledger"
	domainLoan "credlink/internal/domain/loan"
	"credlink/internal/domain/uow"
	"credlink/internal/infrastructure/metrics"
	"credlink/internal/usecase/credit"
	ledgerUC "credlink/internal/usecase/ledger"
	loanUC "credlink/internal/usecase/loan"
	poolUC "credlink/internal/usecase/pool"
	"credlink/pkg/clock"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Usecase evaluates loan health and force-closes loans. It never prices
// assets itself; collateral values are supplied by the caller or a Valuer.
type Usecase struct {
	uow     uow.UnitOfWork
	credits *credit.Usecase
	pools   *poolUC.Usecase
	ledger  *ledgerUC.Usecase
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.Lending
}

type Deps struct {
	Credits *credit.Usecase
	Pools   *poolUC.Usecase
	Ledger  *ledgerUC.Usecase
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *metrics.Lending
}

func NewUsecase(tx uow.UnitOfWork, d Deps) *Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.System()
	}
	return &Usecase{
		uow:     tx,
		credits: d.Credits,
		pools:   d.Pools,
		ledger:  d.Ledger,
		clock:   d.Clock,
		log:     d.Log,
		metrics: d.Metrics,
	}
}

// Classify maps a health factor to an outcome. The liquidation threshold
// itself liquidates.
func Classify(healthBps uint64) Outcome {
	switch {
	case healthBps <= collateral.LiquidationThresholdBps:
		return OutcomeLiquidated
	case healthBps < collateral.WarningThresholdBps:
		return OutcomeWarning
	}
	return OutcomeHealthy
}

// Evaluate checks an active loan against collateralValue and liquidates it
// in the same transaction when it is at or below the liquidation threshold.
func (u *Usecase) Evaluate(ctx context.Context, loanID string, collateralValue uint64) (*Evaluation, error) {
	var ev *Evaluation
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}
		health := l.HealthBps(collateralValue)
		ev = &Evaluation{
			LoanID:          l.LoanID,
			Asset:           l.Asset,
			CollateralValue: collateralValue,
			HealthBps:       health,
			Outcome:         Classify(health),
		}
		if ev.Outcome != OutcomeLiquidated {
			return nil
		}
		c, err := u.forceClose(ctx, r, l, domainLoan.StatusLiquidated, collateralValue)
		if err != nil {
			return err
		}
		ev.Closure = c
		return nil
	})
	if err != nil {
		return nil, loanNotFound(err)
	}

	switch ev.Outcome {
	case OutcomeWarning:
		u.metrics.ObserveWarning(ev.Asset)
		u.log.Warn("loan health below warning threshold",
			zap.String("loan_id", ev.LoanID),
			zap.Uint64("health_bps", ev.HealthBps))
	case OutcomeLiquidated:
		u.observeClosure(ev.Closure, domainLoan.StatusLiquidated)
	}
	return ev, nil
}

// EvaluatePriced values the loan's collateral with v and evaluates it.
func (u *Usecase) EvaluatePriced(ctx context.Context, loanID string, v Valuer) (*Evaluation, error) {
	value, err := u.price(ctx, loanID, v)
	if err != nil {
		return nil, err
	}
	return u.Evaluate(ctx, loanID, value)
}

// DefaultPriced defaults an overdue loan, recovering its collateral at the
// value v reports.
func (u *Usecase) DefaultPriced(ctx context.Context, loanID string, v Valuer) (*Closure, error) {
	value, err := u.price(ctx, loanID, v)
	if err != nil {
		return nil, err
	}
	return u.Default(ctx, loanID, value)
}

func (u *Usecase) price(ctx context.Context, loanID string, v Valuer) (uint64, error) {
	var l *domainLoan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		l, err = r.Loans.GetByLoanID(ctx, loanID)
		return err
	})
	if err != nil {
		return 0, loanNotFound(err)
	}
	if l.Status != domainLoan.StatusActive {
		return 0, domainLoan.ErrNotActive
	}
	return v.CollateralValue(ctx, l)
}

// Liquidate force-closes an active loan, returning recovered to the pool.
func (u *Usecase) Liquidate(ctx context.Context, loanID string, recovered uint64) (*Closure, error) {
	return u.close(ctx, loanID, domainLoan.StatusLiquidated, recovered)
}

// Default force-closes an active loan that is past its due date.
func (u *Usecase) Default(ctx context.Context, loanID string, recovered uint64) (*Closure, error) {
	return u.close(ctx, loanID, domainLoan.StatusDefaulted, recovered)
}

func (u *Usecase) close(ctx context.Context, loanID string, to domainLoan.Status, recovered uint64) (*Closure, error) {
	var c *Closure
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrNotActive
		}
		if to == domainLoan.StatusDefaulted && !u.clock.Now().After(l.DueDate) {
			return domainLoan.ErrNotOverdue
		}
		var err error
		c, err = u.forceClose(ctx, r, l, to, recovered)
		return err
	})
	if err != nil {
		return nil, loanNotFound(err)
	}
	u.observeClosure(c, to)
	return c, nil
}

// forceClose penalizes the borrower, settles the pool and seizes collateral
// on a loan already locked by r's transaction.
func (u *Usecase) forceClose(ctx context.Context, r uow.Repos, l *domainLoan.Loan, to domainLoan.Status, recovered uint64) (*Closure, error) {
	profile, err := u.credits.Lock(ctx, r, l.Borrower)
	if err != nil {
		return nil, err
	}
	if err := u.credits.RecordDefault(ctx, r, profile); err != nil {
		return nil, err
	}

	p, err := u.pools.Lock(ctx, r, l.Asset)
	if err != nil {
		return nil, err
	}
	shortfall, err := u.pools.Settle(ctx, r, p, l.Amount, recovered)
	if err != nil {
		return nil, err
	}

	if err := l.Close(to, recovered, u.clock.Now()); err != nil {
		return nil, err
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}

	if _, err := u.ledger.Append(ctx, r, ledgerUC.Entry{
		Address: l.Borrower,
		Type:    domainLedger.TypeLiquidation,
		Amount:  l.CollateralAmount,
		Asset:   l.CollateralAsset,
		LoanID:  l.LoanID,
	}); err != nil {
		return nil, err
	}
	return &Closure{Loan: loanUC.ToDTO(l), Recovered: recovered, Shortfall: shortfall}, nil
}

// Sweep evaluates every active loan with values from v, defaulting the
// overdue ones. Each loan is its own transaction; a failing loan is
// reported and does not stop the sweep.
func (u *Usecase) Sweep(ctx context.Context, v Valuer, limit int) (*SweepSummary, error) {
	var loans []*domainLoan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		loans, err = r.Loans.ListByStatus(ctx, domainLoan.StatusActive, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := &SweepSummary{}
	for _, l := range loans {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Evaluated++

		value, err := v.CollateralValue(ctx, l)
		if err != nil {
			sum.fail(l.LoanID, err)
			continue
		}

		if u.clock.Now().After(l.DueDate) {
			if _, err := u.Default(ctx, l.LoanID, value); err != nil {
				sum.fail(l.LoanID, err)
				continue
			}
			sum.Defaulted++
			continue
		}

		ev, err := u.Evaluate(ctx, l.LoanID, value)
		if err != nil {
			sum.fail(l.LoanID, err)
			continue
		}
		switch ev.Outcome {
		case OutcomeHealthy:
			sum.Healthy++
		case OutcomeWarning:
			sum.Warnings++
		case OutcomeLiquidated:
			sum.Liquidated++
		}
	}

	u.log.Info("liquidation sweep finished",
		zap.Int("evaluated", sum.Evaluated),
		zap.Int("warnings", sum.Warnings),
		zap.Int("liquidated", sum.Liquidated),
		zap.Int("defaulted", sum.Defaulted),
		zap.Int("failures", len(sum.Failures)))
	return sum, nil
}

func (s *SweepSummary) fail(loanID string, err error) {
	s.Failures = append(s.Failures, SweepFailure{LoanID: loanID, Error: err.Error()})
}

func (u *Usecase) observeClosure(c *Closure, status domainLoan.Status) {
	u.metrics.ObserveClosure(c.Loan.Asset, string(status))
	u.metrics.ObserveShortfall(c.Loan.Asset, c.Shortfall)
	fields := []zap.Field{
		zap.String("loan_id", c.Loan.LoanID),
		zap.String("status", string(status)),
		zap.Uint64("recovered", c.Recovered),
		zap.Uint64("shortfall", c.Shortfall),
	}
	if c.Shortfall > 0 {
		u.log.Warn("loan closed with unrecovered shortfall", fields...)
		return
	}
	u.log.Info("loan force-closed", fields...)
}

func loanNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainLoan.ErrNotFound
	}
	return err
}
