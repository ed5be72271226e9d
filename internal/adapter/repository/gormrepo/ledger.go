package gormrepo

import (
	"context"

	ledgerDomain "credlink/internal/domain/ledger"

	"gorm.io/gorm"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) Append(ctx context.Context, rec *ledgerDomain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *LedgerRepository) ListByAddress(ctx context.Context, address string) ([]ledgerDomain.Record, error) {
	var out []ledgerDomain.Record
	res := r.db.WithContext(ctx).
		Where("address = ?", address).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
