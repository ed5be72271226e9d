package loan

import (
	"time"

	domainLoan "credlink/internal/domain/loan"
)

type OriginateInput struct {
	// Caller is the authenticated principal; empty skips the borrower check.
	Caller           string
	Borrower         string
	Amount           uint64
	Asset            string
	CollateralAmount uint64
	CollateralAsset  string
}

type RepayInput struct {
	Caller  string
	LoanID  string
	Payment uint64
}

type LoanDTO struct {
	LoanID           string     `json:"loan_id"`
	Borrower         string     `json:"borrower"`
	Lender           string     `json:"lender"`
	Amount           uint64     `json:"amount"`
	Asset            string     `json:"asset"`
	CollateralAmount uint64     `json:"collateral_amount"`
	CollateralAsset  string     `json:"collateral_asset"`
	InterestRateBps  uint32     `json:"interest_rate_bps"`
	AmountOwed       uint64     `json:"amount_owed"`
	StartDate        time.Time  `json:"start_date"`
	DueDate          time.Time  `json:"due_date"`
	Status           string     `json:"status"`
	SettledAmount    uint64     `json:"settled_amount"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

type RepayResult struct {
	Loan   *LoanDTO `json:"loan"`
	Paid   uint64   `json:"paid"`
	Change uint64   `json:"change"`
	OnTime bool     `json:"on_time"`
}

func ToDTO(l *domainLoan.Loan) *LoanDTO {
	// overflow would have been rejected at origination
	owed, _ := l.AmountOwed()
	return &LoanDTO{
		LoanID:           l.LoanID,
		Borrower:         l.Borrower,
		Lender:           l.Lender,
		Amount:           l.Amount,
		Asset:            l.Asset,
		CollateralAmount: l.CollateralAmount,
		CollateralAsset:  l.CollateralAsset,
		InterestRateBps:  l.InterestRateBps,
		AmountOwed:       owed,
		StartDate:        l.StartDate,
		DueDate:          l.DueDate,
		Status:           string(l.Status),
		SettledAmount:    l.SettledAmount,
		ClosedAt:         l.ClosedAt,
	}
}

func toDTOs(ls []*domainLoan.Loan) []*LoanDTO {
	out := make([]*LoanDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, ToDTO(l))
	}
	return out
}
