package uow

import (
	"context"

	"credlink/internal/domain/ledger"
	"credlink/internal/domain/loan"
	"credlink/internal/domain/pool"
	"credlink/internal/domain/user"
)

// Repos are bound to one transaction; everything written through them
// commits or rolls back together.
type Repos struct {
	Users  user.Repository
	Pools  pool.Repository
	Loans  loan.Repository
	Ledger ledger.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
