package pool

import (
	"errors"
	"fmt"
	"time"

	"credlink/pkg/bps"
)

var (
	ErrNotFound          = errors.New("lending pool not found")
	ErrAlreadyExists     = errors.New("lending pool already exists")
	ErrInsufficientFunds = errors.New("insufficient pool funds")
	ErrInvalidAmount     = errors.New("pool amount must be positive")
	ErrOverflow          = errors.New("pool amount overflow")
	ErrInvalidConfig     = errors.New("invalid lending pool configuration")
)

// Table: lending_pools, one row per asset.
// Invariant: 0 <= AvailableFunds <= TotalFunds.
type Pool struct {
	Asset                string    `gorm:"column:asset;primaryKey;size:32" json:"asset"`
	TotalFunds           uint64    `gorm:"column:total_funds;not null" json:"total_funds"`
	AvailableFunds       uint64    `gorm:"column:available_funds;not null" json:"available_funds"`
	MinCreditScore       uint32    `gorm:"column:min_credit_score;not null" json:"min_credit_score"`
	InterestRateBps      uint32    `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	MaxLoanDurationDays  uint32    `gorm:"column:max_loan_duration_days;not null" json:"max_loan_duration_days"`
	UnrecoveredShortfall uint64    `gorm:"column:unrecovered_shortfall;not null;default:0" json:"unrecovered_shortfall"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Pool) TableName() string { return "lending_pools" }

// LoanDuration converts MaxLoanDurationDays to a time.Duration.
func (p *Pool) LoanDuration() time.Duration {
	return time.Duration(p.MaxLoanDurationDays) * 24 * time.Hour
}

// Reserve takes amount out of the available balance.
func (p *Pool) Reserve(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if amount > p.AvailableFunds {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientFunds, amount, p.AvailableFunds)
	}
	p.AvailableFunds -= amount
	return nil
}

// Release returns amount to the available balance. Whatever lifts available
// above total is income (interest, liquidation surplus) and raises total too.
// It reports how much was credited as income.
func (p *Pool) Release(amount uint64) (uint64, error) {
	avail, ok := bps.Add(p.AvailableFunds, amount)
	if !ok {
		return 0, ErrOverflow
	}
	var income uint64
	if avail > p.TotalFunds {
		income = avail - p.TotalFunds
		p.TotalFunds = avail
	}
	p.AvailableFunds = avail
	return income, nil
}

// Fund records an external deposit.
func (p *Pool) Fund(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	total, ok := bps.Add(p.TotalFunds, amount)
	if !ok {
		return ErrOverflow
	}
	avail, ok := bps.Add(p.AvailableFunds, amount)
	if !ok {
		return ErrOverflow
	}
	p.TotalFunds, p.AvailableFunds = total, avail
	return nil
}

// RecordShortfall accumulates principal that a forced close did not recover.
func (p *Pool) RecordShortfall(amount uint64) {
	if sum, ok := bps.Add(p.UnrecoveredShortfall, amount); ok {
		p.UnrecoveredShortfall = sum
	}
}

// Outstanding is the principal currently lent out or lost.
func (p *Pool) Outstanding() uint64 { return p.TotalFunds - p.AvailableFunds }
