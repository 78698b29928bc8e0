package event

import (
	"time"

	"github.com/google/uuid"
)

type CustomerPayload struct {
	CustomerID    int64   `json:"customerId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	PhoneNumber   string  `json:"phoneNumber"`
	MonthlyIncome float64 `json:"monthlyIncome"`
	ApprovedLimit float64 `json:"approvedLimit"`
}

type CustomerRegisteredEvent struct {
	EventID   string          `json:"eventId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   CustomerPayload `json:"payload"`
}

type LoanPayload struct {
	LoanID             int64     `json:"loanId"`
	CustomerID         int64     `json:"customerId"`
	Amount             float64   `json:"amount"`
	InterestRate       float64   `json:"interestRate"`
	Tenure             int       `json:"tenure"`
	MonthlyInstallment float64   `json:"monthlyInstallment"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
}

type LoanApprovedEvent struct {
	EventID   string      `json:"eventId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   LoanPayload `json:"payload"`
}

func NewCustomerRegisteredEvent(p CustomerPayload) CustomerRegisteredEvent {
	return CustomerRegisteredEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   p,
	}
}

func NewLoanApprovedEvent(p LoanPayload) LoanApprovedEvent {
	return LoanApprovedEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   p,
	}
}
