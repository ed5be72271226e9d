package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	loanDomain "credlink/internal/domain/loan"
	poolDomain "credlink/internal/domain/pool"
	"credlink/internal/domain/uow"
	userDomain "credlink/internal/domain/user"
	"credlink/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

func TestUoW_WithinTx_Commit(t *testing.T) {
	db := sqlitedb.Open(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	err := u.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Users.Create(ctx, userDomain.NewProfile("0xa", time.Now())); err != nil {
			return err
		}
		return r.Pools.Create(ctx, &poolDomain.Pool{Asset: "USDC", TotalFunds: 10, AvailableFunds: 10})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	if _, err := NewUserRepository(db).GetByAddress(ctx, "0xa"); err != nil {
		t.Fatalf("user not committed: %v", err)
	}
	if _, err := NewPoolRepository(db).GetByAsset(ctx, "USDC"); err != nil {
		t.Fatalf("pool not committed: %v", err)
	}
}

func TestUoW_WithinTx_Rollback(t *testing.T) {
	db := sqlitedb.Open(t)
	u := NewGormUoW(db)
	ctx := context.Background()
	sentinel := errors.New("boom")

	err := u.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Users.Create(ctx, userDomain.NewProfile("0xa", time.Now())); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, makeLoan("ffffffffffffffffffffffffffffffff", "0xa", time.Now())); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}

	if _, err := NewUserRepository(db).GetByAddress(ctx, "0xa"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("user should be rolled back, got %v", err)
	}
	if _, err := NewLoanRepository(db).GetByLoanID(ctx, "ffffffffffffffffffffffffffffffff"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("loan should be rolled back, got %v", err)
	}
}

func TestUoW_WithinLoanTx(t *testing.T) {
	db := sqlitedb.Open(t)
	u := NewGormUoW(db)
	ctx := context.Background()

	loanID := "abababababababababababababababab"
	if err := NewLoanRepository(db).Create(ctx, makeLoan(loanID, "0xa", time.Now())); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := u.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l.LoanID != loanID {
			t.Fatalf("wrong loan passed in: %+v", l)
		}
		if err := l.Close(loanDomain.StatusLiquidated, 0, time.Now()); err != nil {
			return err
		}
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}
	got, _ := NewLoanRepository(db).GetByLoanID(ctx, loanID)
	if got.Status != loanDomain.StatusLiquidated {
		t.Fatalf("status not committed: %s", got.Status)
	}

	called := false
	err = u.WithinLoanTx(ctx, "00000000000000000000000000000000", func(uow.Repos, *loanDomain.Loan) error {
		called = true
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run when the loan is missing")
	}
}
