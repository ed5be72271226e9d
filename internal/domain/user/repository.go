package user

import "context"

type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByAddress(ctx context.Context, address string) (*Profile, error)
	// Locks the profile row until the surrounding transaction ends
	GetByAddressForUpdate(ctx context.Context, address string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
