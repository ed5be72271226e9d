package ledger

import (
	"time"

	domainLedger "credlink/internal/domain/ledger"
)

// Entry is a record to append; TxRef and Timestamp are assigned on append.
type Entry struct {
	Address string
	Type    domainLedger.Type
	Amount  uint64
	Asset   string
	LoanID  string
}

type RecordDTO struct {
	TxRef     string    `json:"tx_ref"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Amount    uint64    `json:"amount"`
	Asset     string    `json:"asset"`
	LoanID    string    `json:"loan_id,omitempty"`
}

func ToDTO(r domainLedger.Record) RecordDTO {
	return RecordDTO{
		TxRef:     r.TxRef,
		Timestamp: r.Timestamp,
		Type:      string(r.Type),
		Amount:    r.Amount,
		Asset:     r.Asset,
		LoanID:    r.LoanID,
	}
}

func ToDTOs(rs []domainLedger.Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToDTO(r))
	}
	return out
}
