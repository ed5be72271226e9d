package bps

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	got, ok := MulDiv(1000, 500, Denominator)
	require.True(t, ok)
	assert.Equal(t, uint64(50), got)

	// product overflows 64 bits but the quotient fits
	got, ok = MulDiv(math.MaxUint64, Denominator, Denominator)
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), got)

	_, ok = MulDiv(math.MaxUint64, 2, 1)
	assert.False(t, ok, "quotient above 64 bits")

	_, ok = MulDiv(1, 1, 0)
	assert.False(t, ok, "zero divisor")
}

func TestRatio(t *testing.T) {
	assert.Equal(t, uint64(11000), Ratio(1100, 1000))
	assert.Equal(t, uint64(10990), Ratio(1099, 1000))
	assert.Equal(t, uint64(10500), Ratio(1050, 1000))
	assert.Equal(t, uint64(math.MaxUint64), Ratio(1, 0))
	assert.Equal(t, uint64(math.MaxUint64), Ratio(math.MaxUint64, 1))
}

func TestOf(t *testing.T) {
	got, ok := Of(1000, 500)
	require.True(t, ok)
	assert.Equal(t, uint64(50), got)

	got, ok = Of(999, 1)
	require.True(t, ok)
	assert.Equal(t, uint64(0), got, "rounds down")
}

func TestAdd(t *testing.T) {
	got, ok := Add(1, 2)
	require.True(t, ok)
	assert.Equal(t, uint64(3), got)

	_, ok = Add(math.MaxUint64, 1)
	assert.False(t, ok)

	got, ok = Add(MaxAmount-1, 1)
	require.True(t, ok)
	assert.Equal(t, MaxAmount, got)

	_, ok = Add(MaxAmount, 1)
	assert.False(t, ok, "sum above the signed 64-bit column range")
}

func TestStorable(t *testing.T) {
	assert.True(t, Storable(0))
	assert.True(t, Storable(math.MaxInt64))
	assert.False(t, Storable(math.MaxInt64+1))
	assert.False(t, Storable(math.MaxUint64))
}

func TestMinCollateral(t *testing.T) {
	cases := []struct {
		amount, ratio, want uint64
	}{
		{1000, 11000, 1100},
		{1000, 12500, 1250},
		{1000, 15000, 1500},
		{3, 11000, 4},    // 3.3 rounds up
		{7, 15000, 11},   // 10.5 rounds up
		{10000, 11000, 11000},
	}
	for _, c := range cases {
		got, ok := MinCollateral(c.amount, c.ratio)
		require.True(t, ok)
		assert.Equal(t, c.want, got, "amount=%d ratio=%d", c.amount, c.ratio)
		assert.GreaterOrEqual(t, Ratio(got, c.amount), c.ratio)
		if got > 0 {
			assert.Less(t, Ratio(got-1, c.amount), c.ratio)
		}
	}
}
