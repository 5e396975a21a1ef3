package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFee_StandardSchedule(t *testing.T) {
	// 2.5% + KSh 20 (2000 cents)
	c := NewCalculator(250, 2000)

	cases := []struct {
		amount int64
		want   int64
	}{
		{10000, 2250},    // KSh 100.00 -> 250 + 2000
		{100, 2003},      // floor amount: 2.5 rounds half-up to 3
		{1000, 2025},     //
		{40000, 3000},    //
		{1000000, 27000}, // KSh 10,000
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Fee(tc.amount), "amount %d", tc.amount)
	}
}

func TestFee_HalfUpRounding(t *testing.T) {
	c := NewCalculator(250, 0)

	// 180 * 2.5% = 4.5 -> rounds up to 5
	assert.Equal(t, int64(5), c.Fee(180))
	// 179 * 2.5% = 4.475 -> 4
	assert.Equal(t, int64(4), c.Fee(179))
	// 181 * 2.5% = 4.525 -> 5
	assert.Equal(t, int64(5), c.Fee(181))
}

func TestFee_Deterministic(t *testing.T) {
	c := NewCalculator(250, 2000)
	for i := 0; i < 5; i++ {
		assert.Equal(t, int64(2250), c.Fee(10000))
	}
}

func TestFee_BelowAmountInPractice(t *testing.T) {
	c := NewCalculator(250, 2000)
	// For realistic charge sizes the fee stays below the amount.
	for _, amount := range []int64{10000, 50000, 100000, 5000000} {
		assert.Less(t, c.Fee(amount), amount, "amount %d", amount)
	}
}

func TestRate(t *testing.T) {
	assert.InDelta(t, 0.025, NewCalculator(250, 2000).Rate(), 1e-12)
	assert.InDelta(t, 0.03, NewCalculator(300, 0).Rate(), 1e-12)
}
