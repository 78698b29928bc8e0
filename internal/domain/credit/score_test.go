package credit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var today = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func pastLoan(amount float64, tenure, paid int) LoanRecord {
	return LoanRecord{
		Amount:             amount,
		Tenure:             tenure,
		EMIsPaidOnTime:     paid,
		MonthlyInstallment: amount / float64(tenure),
		StartDate:          time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestScore_NoHistory(t *testing.T) {
	b := Score(nil, 1_800_000, today)

	assert.Equal(t, 20.0, b.Total)
	assert.Equal(t, 20.0, b.Repayment)
	assert.False(t, b.Overridden)
}

func TestScore_Components(t *testing.T) {
	thisYear := pastLoan(400_000, 12, 6)
	thisYear.StartDate = time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	history := []LoanRecord{
		pastLoan(300_000, 12, 12),
		pastLoan(400_000, 12, 12),
		thisYear,
	}

	b := Score(history, 5_000_000, today)

	assert.InDelta(t, 30.0/36.0*40, b.Repayment, 1e-9)
	assert.Equal(t, 15.0, b.LoanCount)
	assert.Equal(t, 5.0, b.YearActivity)
	assert.Equal(t, 20.0, b.ApprovedVolume)
	assert.InDelta(t, 30.0/36.0*40+40, b.Total, 1e-9)
}

func TestScore_CapsAtHundred(t *testing.T) {
	var history []LoanRecord
	for i := 0; i < 6; i++ {
		l := pastLoan(500_000, 12, 12)
		l.StartDate = time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
		history = append(history, l)
	}

	b := Score(history, 10_000_000, today)

	assert.Equal(t, 100.0, b.Total)
	assert.Equal(t, 20.0, b.LoanCount)
	assert.Equal(t, 20.0, b.YearActivity)
}

func TestScore_ApprovedVolumeThresholds(t *testing.T) {
	tests := []struct {
		amount float64
		want   float64
	}{
		{amount: 100_000, want: 0},
		{amount: 100_001, want: 10},
		{amount: 1_000_000, want: 10},
		{amount: 1_000_001, want: 20},
	}
	for _, tt := range tests {
		b := Score([]LoanRecord{pastLoan(tt.amount, 10, 0)}, 10_000_000, today)
		assert.Equal(t, tt.want, b.ApprovedVolume, "amount %v", tt.amount)
	}
}

func TestScore_ActiveDebtOverride(t *testing.T) {
	active := pastLoan(2_000_000, 24, 24)
	active.StartDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	active.EndDate = time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	b := Score([]LoanRecord{active}, 1_800_000, today)

	assert.True(t, b.Overridden)
	assert.Equal(t, 0.0, b.Total)
	assert.Equal(t, 2_000_000.0, b.ActiveDebt)
}

func TestScore_LoanEndingTodayIsActive(t *testing.T) {
	l := pastLoan(2_000_000, 12, 12)
	l.EndDate = today

	assert.Equal(t, 0.0, Score([]LoanRecord{l}, 1_000_000, today).Total)

	l.EndDate = today.AddDate(0, 0, -1)
	assert.NotZero(t, Score([]LoanRecord{l}, 1_000_000, today).Total)
}

func TestScore_MonotonicInRepaymentRatio(t *testing.T) {
	prev := -1.0
	for paid := 0; paid <= 24; paid++ {
		b := Score([]LoanRecord{pastLoan(50_000, 24, paid)}, 1_000_000, today)
		assert.GreaterOrEqual(t, b.Total, prev, "paid %d", paid)
		prev = b.Total
	}
}
