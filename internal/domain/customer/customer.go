package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	limitIncomeMultiple = 36
	lakh                = 100_000
)

type Customer struct {
	ID            int64     `json:"customerId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlyIncome float64   `json:"monthlyIncome"`
	ApprovedLimit float64   `json:"approvedLimit"`
	CurrentDebt   float64   `json:"currentDebt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewCustomer builds a customer about to be registered. The approved limit is fixed here
// and never recomputed afterwards.
func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlyIncome float64) *Customer {
	now := time.Now().UTC()
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlyIncome: monthlyIncome,
		ApprovedLimit: ApprovedLimitFor(monthlyIncome),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApprovedLimitFor is 36 months of income rounded to the nearest lakh, halves to even.
func ApprovedLimitFor(monthlyIncome float64) float64 {
	unit := decimal.NewFromInt(lakh)
	return decimal.NewFromFloat(monthlyIncome).
		Mul(decimal.NewFromInt(limitIncomeMultiple)).
		Div(unit).
		RoundBank(0).
		Mul(unit).
		InexactFloat64()
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
