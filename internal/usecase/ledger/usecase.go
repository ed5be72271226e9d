package ledger

import (
	"context"
	"fmt"

	domainLedger "credlink/internal/domain/ledger"
	"credlink/internal/domain/uow"
	"credlink/pkg/clock"

	"github.com/google/uuid"
)

// Usecase is the append-only transaction ledger.
type Usecase struct {
	uow   uow.UnitOfWork
	clock clock.Clock
}

func NewUsecase(tx uow.UnitOfWork, c clock.Clock) *Usecase {
	return &Usecase{uow: tx, clock: c}
}

// Append writes e through the caller's transaction.
func (u *Usecase) Append(ctx context.Context, r uow.Repos, e Entry) (*domainLedger.Record, error) {
	if !e.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domainLedger.ErrInvalidType, e.Type)
	}
	rec := &domainLedger.Record{
		TxRef:     uuid.NewString(),
		Address:   e.Address,
		Timestamp: u.clock.Now().UTC(),
		Type:      e.Type,
		Amount:    e.Amount,
		Asset:     e.Asset,
		LoanID:    e.LoanID,
	}
	if err := r.Ledger.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// History lists an address's records oldest first.
func (u *Usecase) History(ctx context.Context, address string) ([]RecordDTO, error) {
	var out []RecordDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		recs, err := r.Ledger.ListByAddress(ctx, address)
		if err != nil {
			return err
		}
		out = ToDTOs(recs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
