package poolmock

import (
	"context"

	domain "credlink/internal/domain/pool"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn              func(ctx context.Context, p *domain.Pool) error
	GetByAssetFn          func(ctx context.Context, asset string) (*domain.Pool, error)
	GetByAssetForUpdateFn func(ctx context.Context, asset string) (*domain.Pool, error)
	SaveFn                func(ctx context.Context, p *domain.Pool) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Pool) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}
func (m *Repo) GetByAsset(ctx context.Context, asset string) (*domain.Pool, error) {
	if m.GetByAssetFn != nil {
		return m.GetByAssetFn(ctx, asset)
	}
	return nil, context.Canceled
}
func (m *Repo) GetByAssetForUpdate(ctx context.Context, asset string) (*domain.Pool, error) {
	if m.GetByAssetForUpdateFn != nil {
		return m.GetByAssetForUpdateFn(ctx, asset)
	}
	return nil, context.Canceled
}
func (m *Repo) Save(ctx context.Context, p *domain.Pool) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}
