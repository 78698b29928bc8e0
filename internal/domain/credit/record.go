package credit

import "time"

// LoanRecord is the slice of a historical loan the engine needs.
type LoanRecord struct {
	Amount             float64
	Tenure             int
	EMIsPaidOnTime     int
	MonthlyInstallment float64
	StartDate          time.Time
	EndDate            time.Time
}

// IsActive reports whether the loan has not ended before today.
// Both dates are compared as calendar days.
func (r LoanRecord) IsActive(today time.Time) bool {
	return !Day(r.EndDate).Before(Day(today))
}

type Profile struct {
	CustomerID    int64
	MonthlyIncome float64
	ApprovedLimit float64
}

type Request struct {
	CustomerID   int64
	LoanAmount   float64
	InterestRate float64
	Tenure       int
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
