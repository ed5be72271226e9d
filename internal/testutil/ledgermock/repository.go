package ledgermock

import (
	"context"

	domain "credlink/internal/domain/ledger"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// With AppendFn unset, appended records are kept in Records.
type Repo struct {
	AppendFn        func(ctx context.Context, r *domain.Record) error
	ListByAddressFn func(ctx context.Context, address string) ([]domain.Record, error)

	Records []domain.Record
}

func (m *Repo) Append(ctx context.Context, r *domain.Record) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, r)
	}
	m.Records = append(m.Records, *r)
	return nil
}

func (m *Repo) ListByAddress(ctx context.Context, address string) ([]domain.Record, error) {
	if m.ListByAddressFn != nil {
		return m.ListByAddressFn(ctx, address)
	}
	var out []domain.Record
	for _, r := range m.Records {
		if r.Address == address {
			out = append(out, r)
		}
	}
	return out, nil
}
