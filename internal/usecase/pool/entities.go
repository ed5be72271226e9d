package pool

import (
	"time"

	domainPool "credlink/internal/domain/pool"
)

type CreatePoolInput struct {
	Asset               string
	InitialFunds        uint64
	MinCreditScore      uint32
	InterestRateBps     uint32
	MaxLoanDurationDays uint32
}

type PoolDTO struct {
	Asset                string    `json:"asset"`
	TotalFunds           uint64    `json:"total_funds"`
	AvailableFunds       uint64    `json:"available_funds"`
	Outstanding          uint64    `json:"outstanding"`
	UnrecoveredShortfall uint64    `json:"unrecovered_shortfall"`
	MinCreditScore       uint32    `json:"min_credit_score"`
	InterestRateBps      uint32    `json:"interest_rate_bps"`
	MaxLoanDurationDays  uint32    `json:"max_loan_duration_days"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toDTO(p *domainPool.Pool) *PoolDTO {
	return &PoolDTO{
		Asset:                p.Asset,
		TotalFunds:           p.TotalFunds,
		AvailableFunds:       p.AvailableFunds,
		Outstanding:          p.Outstanding(),
		UnrecoveredShortfall: p.UnrecoveredShortfall,
		MinCreditScore:       p.MinCreditScore,
		InterestRateBps:      p.InterestRateBps,
		MaxLoanDurationDays:  p.MaxLoanDurationDays,
		UpdatedAt:            p.UpdatedAt,
	}
}
