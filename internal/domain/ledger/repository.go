package ledger

import "context"

type Repository interface {
	Append(ctx context.Context, r *Record) error
	// Append order, oldest first
	ListByAddress(ctx context.Context, address string) ([]Record, error)
}
