package pool

import "context"

type Repository interface {
	Create(ctx context.Context, p *Pool) error
	GetByAsset(ctx context.Context, asset string) (*Pool, error)
	// Locks the pool row; concurrent reservations serialize on it
	GetByAssetForUpdate(ctx context.Context, asset string) (*Pool, error)
	Save(ctx context.Context, p *Pool) error
}
