package loan

import "errors"

var (
	ErrNotFound                = errors.New("loan not found")
	ErrNotActive               = errors.New("loan is not active")
	ErrInvalidTransition       = errors.New("invalid loan status transition")
	ErrInvalidAmount           = errors.New("loan amount must be positive")
	ErrInsufficientCreditScore = errors.New("insufficient credit score")
	ErrInsufficientCollateral  = errors.New("insufficient collateral")
	ErrInsufficientPayment     = errors.New("insufficient payment")
	ErrNotOverdue              = errors.New("loan is not overdue")
	ErrUnauthorized            = errors.New("caller is not authorized for this loan")
	ErrOverflow                = errors.New("loan amount overflow")
)
