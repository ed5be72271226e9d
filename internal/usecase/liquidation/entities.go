package liquidation

import (
	"context"

	domainLoan "credlink/internal/domain/loan"
	loanUC "credlink/internal/usecase/loan"
)

type Outcome string

const (
	OutcomeHealthy    Outcome = "healthy"
	OutcomeWarning    Outcome = "warning"
	OutcomeLiquidated Outcome = "liquidated"
)

// Valuer prices a loan's collateral in units of the loan asset.
type Valuer interface {
	CollateralValue(ctx context.Context, l *domainLoan.Loan) (uint64, error)
}

type Evaluation struct {
	LoanID          string   `json:"loan_id"`
	Asset           string   `json:"asset"`
	CollateralValue uint64   `json:"collateral_value"`
	HealthBps       uint64   `json:"health_bps"`
	Outcome         Outcome  `json:"outcome"`
	Closure         *Closure `json:"closure,omitempty"`
}

// Closure describes a forced close by liquidation or default.
type Closure struct {
	Loan      *loanUC.LoanDTO `json:"loan"`
	Recovered uint64          `json:"recovered"`
	Shortfall uint64          `json:"shortfall"`
}

type SweepFailure struct {
	LoanID string `json:"loan_id"`
	Error  string `json:"error"`
}

type SweepSummary struct {
	Evaluated  int            `json:"evaluated"`
	Healthy    int            `json:"healthy"`
	Warnings   int            `json:"warnings"`
	Liquidated int            `json:"liquidated"`
	Defaulted  int            `json:"defaulted"`
	Failures   []SweepFailure `json:"failures,omitempty"`
}
