package credit

import (
	"time"

	domainUser "credlink/internal/domain/user"
	ledgerUC "credlink/internal/usecase/ledger"
)

type ProfileDTO struct {
	Address             string               `json:"address"`
	CreditScore         uint32               `json:"credit_score"`
	TotalLoansCompleted uint32               `json:"total_loans_completed"`
	TotalLoansDefaulted uint32               `json:"total_loans_defaulted"`
	OnTimePayments      uint32               `json:"on_time_payments"`
	LatePayments        uint32               `json:"late_payments"`
	RegistrationDate    time.Time            `json:"registration_date"`
	IdentityVerified    bool                 `json:"identity_verified"`
	TransactionHistory  []ledgerUC.RecordDTO `json:"transaction_history"`
}

func toDTO(p *domainUser.Profile, history []ledgerUC.RecordDTO) *ProfileDTO {
	if history == nil {
		history = []ledgerUC.RecordDTO{}
	}
	return &ProfileDTO{
		Address:             p.Address,
		CreditScore:         p.CreditScore,
		TotalLoansCompleted: p.TotalLoansCompleted,
		TotalLoansDefaulted: p.TotalLoansDefaulted,
		OnTimePayments:      p.OnTimePayments,
		LatePayments:        p.LatePayments,
		RegistrationDate:    p.RegistrationDate,
		IdentityVerified:    p.IdentityVerified,
		TransactionHistory:  history,
	}
}
