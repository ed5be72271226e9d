package gormrepo

import (
	"context"

	userDomain "credlink/internal/domain/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, p *userDomain.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *UserRepository) Save(ctx context.Context, p *userDomain.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *UserRepository) GetByAddress(ctx context.Context, address string) (*userDomain.Profile, error) {
	var out userDomain.Profile
	res := r.db.WithContext(ctx).Where("address = ?", address).First(&out)
	return &out, res.Error
}

func (r *UserRepository) GetByAddressForUpdate(ctx context.Context, address string) (*userDomain.Profile, error) {
	var out userDomain.Profile
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address = ?", address).
		First(&out)
	return &out, res.Error
}
