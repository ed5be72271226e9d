package ledger

import (
	"errors"
	"time"
)

var ErrInvalidType = errors.New("invalid transaction type")

type Type string

const (
	TypePayment     Type = "payment"
	TypeLoan        Type = "loan"
	TypeRepayment   Type = "repayment"
	TypeLiquidation Type = "liquidation"
)

func (t Type) Valid() bool {
	switch t {
	case TypePayment, TypeLoan, TypeRepayment, TypeLiquidation:
		return true
	}
	return false
}

// Table: transaction_records. Append-only; ID order is chronological order per address.
type Record struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement" json:"-"`
	TxRef     string    `gorm:"column:tx_ref;size:36;not null;uniqueIndex:ux_transaction_records_tx_ref" json:"tx_ref"`
	Address   string    `gorm:"column:address;size:64;not null;index:idx_transaction_records_address" json:"address"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	Type      Type      `gorm:"column:type;size:16;not null" json:"type"`
	Amount    uint64    `gorm:"column:amount;not null" json:"amount"`
	Asset     string    `gorm:"column:asset;size:32;not null" json:"asset"`
	LoanID    string    `gorm:"column:loan_id;size:32" json:"loan_id,omitempty"`
}

func (Record) TableName() string { return "transaction_records" }
