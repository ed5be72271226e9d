// Package id generates and checks loan identifiers.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// LoanIDLen is the length of a loan id: 16 random bytes, lowercase hex.
const LoanIDLen = 32

// NewLoanID returns a fresh loan id.
func NewLoanID() (string, error) {
	return newLoanID(rand.Reader)
}

func newLoanID(r io.Reader) (string, error) {
	b := make([]byte, LoanIDLen/2)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("loan id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsLoanID reports whether s has the shape produced by NewLoanID.
func IsLoanID(s string) bool {
	if len(s) != LoanIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
