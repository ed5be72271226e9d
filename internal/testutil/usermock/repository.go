package usermock

import (
	"context"

	domain "credlink/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, p *domain.Profile) error
	GetByAddressFn          func(ctx context.Context, address string) (*domain.Profile, error)
	GetByAddressForUpdateFn func(ctx context.Context, address string) (*domain.Profile, error)
	SaveFn                  func(ctx context.Context, p *domain.Profile) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Profile) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}
func (m *Repo) GetByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	if m.GetByAddressFn != nil {
		return m.GetByAddressFn(ctx, address)
	}
	return nil, context.Canceled
}
func (m *Repo) GetByAddressForUpdate(ctx context.Context, address string) (*domain.Profile, error) {
	if m.GetByAddressForUpdateFn != nil {
		return m.GetByAddressForUpdateFn(ctx, address)
	}
	return nil, context.Canceled
}
func (m *Repo) Save(ctx context.Context, p *domain.Profile) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}
