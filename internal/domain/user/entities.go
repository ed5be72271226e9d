package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateUser  = errors.New("user already exists")
	ErrInvalidAddress = errors.New("user address must not be empty")
)

// Table: user_profiles. Address is the borrower key exactly as registered.
type Profile struct {
	Address             string    `gorm:"column:address;primaryKey;size:64" json:"address"`
	CreditScore         uint32    `gorm:"column:credit_score;not null" json:"credit_score"`
	TotalLoansCompleted uint32    `gorm:"column:total_loans_completed;not null;default:0" json:"total_loans_completed"`
	TotalLoansDefaulted uint32    `gorm:"column:total_loans_defaulted;not null;default:0" json:"total_loans_defaulted"`
	OnTimePayments      uint32    `gorm:"column:on_time_payments;not null;default:0" json:"on_time_payments"`
	LatePayments        uint32    `gorm:"column:late_payments;not null;default:0" json:"late_payments"`
	RegistrationDate    time.Time `gorm:"column:registration_date;not null;<-:create" json:"registration_date"`
	IdentityVerified    bool      `gorm:"column:identity_verified;not null;default:false" json:"identity_verified"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Profile) TableName() string { return "user_profiles" }

// NewProfile returns a freshly registered profile with the default score.
func NewProfile(address string, now time.Time) *Profile {
	return &Profile{
		Address:          address,
		CreditScore:      DefaultScore,
		RegistrationDate: now.UTC(),
	}
}
