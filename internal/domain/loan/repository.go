package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Row-locked read for state transitions
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	// Oldest first; limit <= 0 means no limit
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]*Loan, error)
}
