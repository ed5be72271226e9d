package loan

import (
	"time"

	"credlink/pkg/bps"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusDefaulted  Status = "defaulted"
	StatusLiquidated Status = "liquidated"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDefaulted, StatusLiquidated:
		return true
	case StatusActive:
		return false
	}
	return true
}

type Loan struct {
	ID               uint64     `gorm:"primaryKey;column:id" json:"-"`
	LoanID           string     `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	Borrower         string     `gorm:"column:borrower;size:64;index:idx_loans_borrower" json:"borrower"`
	Lender           string     `gorm:"column:lender;size:64" json:"lender"`
	Amount           uint64     `gorm:"column:amount;not null" json:"amount"`
	Asset            string     `gorm:"column:asset;size:32;not null" json:"asset"`
	CollateralAmount uint64     `gorm:"column:collateral_amount;not null" json:"collateral_amount"`
	CollateralAsset  string     `gorm:"column:collateral_asset;size:32;not null" json:"collateral_asset"`
	InterestRateBps  uint32     `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	StartDate        time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	DueDate          time.Time  `gorm:"column:due_date;not null" json:"due_date"`
	Status           Status     `gorm:"column:status;size:16;not null;index:idx_loans_status" json:"status"`
	SettledAmount    uint64     `gorm:"column:settled_amount;not null;default:0" json:"settled_amount"`
	ClosedAt         *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// LenderForPool is the lender recorded for loans drawn from a pool.
func LenderForPool(asset string) string { return "pool:" + asset }

// AmountOwed is principal plus simple interest at the snapshotted rate.
func (l *Loan) AmountOwed() (uint64, error) {
	interest, ok := bps.Of(l.Amount, l.InterestRateBps)
	if !ok {
		return 0, ErrOverflow
	}
	owed, ok := bps.Add(l.Amount, interest)
	if !ok {
		return 0, ErrOverflow
	}
	return owed, nil
}

// OnTime reports whether a repayment at now meets the due date (inclusive).
func (l *Loan) OnTime(now time.Time) bool { return !now.After(l.DueDate) }

// HealthBps is collateral value over principal in basis points.
func (l *Loan) HealthBps(collateralValue uint64) uint64 {
	return bps.Ratio(collateralValue, l.Amount)
}

// Close moves an active loan into a terminal status.
func (l *Loan) Close(to Status, settled uint64, at time.Time) error {
	if l.Status != StatusActive {
		return ErrNotActive
	}
	switch to {
	case StatusCompleted, StatusDefaulted, StatusLiquidated:
	default:
		return ErrInvalidTransition
	}
	closed := at.UTC()
	l.Status = to
	l.SettledAmount = settled
	l.ClosedAt = &closed
	return nil
}
