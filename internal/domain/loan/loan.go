package loan

import (
	"fmt"
	"math"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/pkg/apperrors"
)

// Loans run in 30-day months when their end date is derived.
const daysPerMonth = 30

type Loan struct {
	ID                 int64
	CustomerID         int64
	Amount             float64
	Tenure             int
	InterestRate       float64
	MonthlyInstallment float64
	EMIsPaidOnTime     int
	StartDate          time.Time
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewLoan builds an approved loan starting today.
func NewLoan(customerID int64, amount, interestRate float64, tenure int, installment float64, today time.Time) (*Loan, error) {
	if tenure < 1 {
		return nil, fmt.Errorf("%w: tenure must be at least 1 month", apperrors.ErrInvalidArgument)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrInvalidArgument)
	}
	if math.IsNaN(installment) || math.IsInf(installment, 0) {
		return nil, fmt.Errorf("%w: monthly installment %v is not a finite amount", apperrors.ErrInvalidArgument, installment)
	}

	start := credit.Day(today)
	now := time.Now().UTC()
	return &Loan{
		CustomerID:         customerID,
		Amount:             amount,
		Tenure:             tenure,
		InterestRate:       interestRate,
		MonthlyInstallment: installment,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, tenure*daysPerMonth),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Validate checks the invariants a stored loan must hold.
func (l *Loan) Validate() error {
	switch {
	case l.ID <= 0:
		return fmt.Errorf("%w: loan id must be positive", apperrors.ErrInvalidArgument)
	case l.CustomerID <= 0:
		return fmt.Errorf("%w: customer id must be positive", apperrors.ErrInvalidArgument)
	case l.Tenure < 1:
		return fmt.Errorf("%w: tenure must be at least 1 month", apperrors.ErrInvalidArgument)
	case l.EMIsPaidOnTime < 0 || l.EMIsPaidOnTime > l.Tenure:
		return fmt.Errorf("%w: emis paid on time %d outside 0..%d", apperrors.ErrInvalidArgument, l.EMIsPaidOnTime, l.Tenure)
	case l.Amount < 0:
		return fmt.Errorf("%w: loan amount must not be negative", apperrors.ErrInvalidArgument)
	}
	return nil
}

func (l *Loan) IsActive(today time.Time) bool {
	return l.Record().IsActive(today)
}

func (l *Loan) RepaymentsLeft() int {
	return l.Tenure - l.EMIsPaidOnTime
}

func (l *Loan) Record() credit.LoanRecord {
	return credit.LoanRecord{
		Amount:             l.Amount,
		Tenure:             l.Tenure,
		EMIsPaidOnTime:     l.EMIsPaidOnTime,
		MonthlyInstallment: l.MonthlyInstallment,
		StartDate:          l.StartDate,
		EndDate:            l.EndDate,
	}
}

func Records(loans []Loan) []credit.LoanRecord {
	out := make([]credit.LoanRecord, 0, len(loans))
	for i := range loans {
		out = append(out, loans[i].Record())
	}
	return out
}
