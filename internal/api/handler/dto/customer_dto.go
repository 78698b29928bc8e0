package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"credit-engine/internal/domain/customer"
)

// PhoneNumber accepts a JSON string or a JSON number.
type PhoneNumber string

func (p *PhoneNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PhoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("phone_number must be a string or a number")
	}
	*p = PhoneNumber(n.String())
	return nil
}

type RegisterRequest struct {
	FirstName     string      `json:"first_name" validate:"required,max=100"`
	LastName      string      `json:"last_name" validate:"required,max=100"`
	Age           *int        `json:"age" validate:"required,gt=0,lte=150"`
	MonthlyIncome *float64    `json:"monthly_income" validate:"required,gt=0"`
	PhoneNumber   PhoneNumber `json:"phone_number" validate:"required,number,max=20"`
}

func (r *RegisterRequest) ToInput() customer.RegisterInput {
	in := customer.RegisterInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: string(r.PhoneNumber),
	}
	if r.Age != nil {
		in.Age = *r.Age
	}
	if r.MonthlyIncome != nil {
		in.MonthlyIncome = *r.MonthlyIncome
	}
	return in
}

type RegisterResponse struct {
	CustomerID    int64   `json:"customer_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	MonthlyIncome float64 `json:"monthly_income"`
	ApprovedLimit float64 `json:"approved_limit"`
	PhoneNumber   string  `json:"phone_number"`
}

func NewRegisterResponse(c *customer.Customer) RegisterResponse {
	return RegisterResponse{
		CustomerID:    c.ID,
		Name:          c.FullName(),
		Age:           c.Age,
		MonthlyIncome: Money(c.MonthlyIncome),
		ApprovedLimit: Money(c.ApprovedLimit),
		PhoneNumber:   c.PhoneNumber,
	}
}

type CustomerSummary struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Age         int    `json:"age"`
}

func NewCustomerSummary(c customer.Customer) CustomerSummary {
	return CustomerSummary{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		PhoneNumber: c.PhoneNumber,
		Age:         c.Age,
	}
}
