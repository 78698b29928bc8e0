package credit

import "math"

// MaxTenure is the longest loan term, in months, the engine will price.
const MaxTenure = 600

// MonthlyInstallment returns the fixed monthly payment that amortizes principal over
// tenure months at the given annual percentage rate. The result is not rounded.
func MonthlyInstallment(principal, annualRate float64, tenure int) float64 {
	if tenure < 1 {
		panic("credit: tenure must be at least one month")
	}
	if annualRate == 0 {
		return principal / float64(tenure)
	}

	// (1+m)^-n underflows to zero for very long terms instead of overflowing.
	m := annualRate / 12 / 100
	return principal * m / (1 - math.Pow(1+m, -float64(tenure)))
}
