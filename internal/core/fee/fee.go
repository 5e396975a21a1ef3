// Package fee computes the platform fee for a charge. All arithmetic is
// integer minor-currency units; the rate is carried in basis points so no
// floating point touches an amount.
package fee

const bpsDenominator = 10000

// Calculator applies a fixed rate plus a fixed fee.
type Calculator struct {
	rateBps int64
	fixed   int64
}

// NewCalculator creates a Calculator. rateBps is the percentage rate in
// basis points (250 = 2.5%); fixed is added in minor units.
func NewCalculator(rateBps, fixed int64) Calculator {
	return Calculator{rateBps: rateBps, fixed: fixed}
}

// Fee returns round(amount * rate) + fixed, rounding half-up. The fee is
// computed once at transaction creation and never recomputed.
func (c Calculator) Fee(amount int64) int64 {
	return (amount*c.rateBps+bpsDenominator/2)/bpsDenominator + c.fixed
}

// Rate returns the rate as a fraction, snapshotted onto each transaction.
func (c Calculator) Rate() float64 {
	return float64(c.rateBps) / bpsDenominator
}
