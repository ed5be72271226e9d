// Package bps holds basis-point arithmetic for amounts stored as uint64.
// Intermediate products are computed in 256 bits so a*b never wraps.
package bps

import (
	"math"

	"github.com/holiman/uint256"
)

// Denominator is 100.00% expressed in basis points.
const Denominator uint64 = 10_000

// MaxAmount is the largest amount that may be persisted. Money columns are
// signed 64-bit on postgres and mysql BIGINT alike.
const MaxAmount uint64 = math.MaxInt64

// Storable reports whether v fits a money column.
func Storable(v uint64) bool { return v <= MaxAmount }

// MulDiv returns floor(a*b/d). ok is false when d is zero or the quotient
// does not fit in 64 bits.
func MulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	q, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d))
	if overflow || !q.IsUint64() {
		return 0, false
	}
	return q.Uint64(), true
}

// Ratio returns num/den in basis points, rounded down. It saturates at
// math.MaxUint64 when the ratio is unbounded (den == 0) or too large.
func Ratio(num, den uint64) uint64 {
	r, ok := MulDiv(num, Denominator, den)
	if !ok {
		return math.MaxUint64
	}
	return r
}

// Of returns amount * rate / 10000, rounded down.
func Of(amount uint64, rate uint32) (uint64, bool) {
	return MulDiv(amount, uint64(rate), Denominator)
}

// Add returns a+b, ok is false when the sum exceeds MaxAmount.
func Add(a, b uint64) (uint64, bool) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() || !Storable(sum.Uint64()) {
		return 0, false
	}
	return sum.Uint64(), true
}

// MinCollateral returns the smallest collateral amount c with
// c*10000/amount >= ratio, i.e. ceil(amount*ratio/10000).
func MinCollateral(amount, ratio uint64) (uint64, bool) {
	q, ok := MulDiv(amount, ratio, Denominator)
	if !ok {
		return 0, false
	}
	back, ok := MulDiv(q, Denominator, amount)
	if ok && back >= ratio {
		return q, true
	}
	return Add(q, 1)
}
