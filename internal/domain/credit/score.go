package credit

import (
	"math"
	"time"
)

const (
	maxScore = 100.0

	repaymentWeight    = 40.0
	noHistoryRepayment = 20.0
	pointsPerLoan      = 5.0
	loanCountCap       = 20.0
	pointsPerYearLoan  = 5.0
	yearActivityCap    = 20.0

	highVolumeThreshold = 1_000_000.0
	highVolumePoints    = 20.0
	midVolumeThreshold  = 100_000.0
	midVolumePoints     = 10.0
)

// Breakdown keeps every score component so a decision can be explained in logs.
type Breakdown struct {
	Repayment      float64
	LoanCount      float64
	YearActivity   float64
	ApprovedVolume float64
	ActiveDebt     float64
	Overridden     bool
	Total          float64
}

// Score derives the 0..100 credit score of a customer from their loan history.
// When the principal of loans still active today exceeds approvedLimit the score is 0.
func Score(history []LoanRecord, approvedLimit float64, today time.Time) Breakdown {
	var (
		paidOnTime  int
		totalTenure int
		yearLoans   int
		volume      float64
		activeDebt  float64
	)

	for _, l := range history {
		paidOnTime += l.EMIsPaidOnTime
		totalTenure += l.Tenure
		volume += l.Amount
		if l.StartDate.Year() == today.Year() {
			yearLoans++
		}
		if l.IsActive(today) {
			activeDebt += l.Amount
		}
	}

	var b Breakdown
	if totalTenure > 0 {
		b.Repayment = float64(paidOnTime) / float64(totalTenure) * repaymentWeight
	} else {
		b.Repayment = noHistoryRepayment
	}
	b.LoanCount = math.Min(float64(len(history))*pointsPerLoan, loanCountCap)
	b.YearActivity = math.Min(float64(yearLoans)*pointsPerYearLoan, yearActivityCap)

	switch {
	case volume > highVolumeThreshold:
		b.ApprovedVolume = highVolumePoints
	case volume > midVolumeThreshold:
		b.ApprovedVolume = midVolumePoints
	}

	b.Total = math.Min(b.Repayment+b.LoanCount+b.YearActivity+b.ApprovedVolume, maxScore)
	if b.Total < 0 {
		b.Total = 0
	}

	b.ActiveDebt = activeDebt
	if activeDebt > approvedLimit {
		b.Overridden = true
		b.Total = 0
	}
	return b
}
