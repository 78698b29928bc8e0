package dto

import (
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// Money rounds to cents for display. Engine values stay unrounded.
func Money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// LoanRequest is shared by check-eligibility and create-loan.
type LoanRequest struct {
	CustomerID   *int64   `json:"customer_id" validate:"required,gt=0"`
	LoanAmount   *float64 `json:"loan_amount" validate:"required,gt=0"`
	InterestRate *float64 `json:"interest_rate" validate:"required,gte=0"`
	Tenure       *int     `json:"tenure" validate:"required,gte=1,lte=600"`
}

func (r *LoanRequest) ToCreditRequest() credit.Request {
	var req credit.Request
	if r.CustomerID != nil {
		req.CustomerID = *r.CustomerID
	}
	if r.LoanAmount != nil {
		req.LoanAmount = *r.LoanAmount
	}
	if r.InterestRate != nil {
		req.InterestRate = *r.InterestRate
	}
	if r.Tenure != nil {
		req.Tenure = *r.Tenure
	}
	return req
}

type EligibilityResponse struct {
	CustomerID            int64   `json:"customer_id"`
	Approval              bool    `json:"approval"`
	InterestRate          float64 `json:"interest_rate"`
	CorrectedInterestRate float64 `json:"corrected_interest_rate"`
	Tenure                int     `json:"tenure"`
	MonthlyInstallment    float64 `json:"monthly_installment"`
}

func NewEligibilityResponse(d *credit.Decision) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            d.CustomerID,
		Approval:              d.Approved,
		InterestRate:          d.InterestRate,
		CorrectedInterestRate: d.CorrectedInterestRate,
		Tenure:                d.Tenure,
		MonthlyInstallment:    Money(d.MonthlyInstallment),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64  `json:"loan_id"`
	CustomerID         int64   `json:"customer_id"`
	LoanApproved       bool    `json:"loan_approved"`
	Message            string  `json:"message"`
	MonthlyInstallment float64 `json:"monthly_installment"`
}

func NewCreateLoanResponse(res *loan.CreateResult) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:   res.Decision.CustomerID,
		LoanApproved: res.Loan != nil,
		Message:      res.Message,
	}
	if res.Loan != nil {
		id := res.Loan.ID
		resp.LoanID = &id
		resp.MonthlyInstallment = Money(res.Loan.MonthlyInstallment)
	}
	return resp
}

type LoanDetailResponse struct {
	LoanID             int64           `json:"loan_id"`
	Customer           CustomerSummary `json:"customer"`
	LoanAmount         float64         `json:"loan_amount"`
	InterestRate       float64         `json:"interest_rate"`
	MonthlyInstallment float64         `json:"monthly_installment"`
	Tenure             int             `json:"tenure"`
}

func NewLoanDetailResponse(d *loan.Details) LoanDetailResponse {
	return LoanDetailResponse{
		LoanID:             d.Loan.ID,
		Customer:           NewCustomerSummary(d.Customer),
		LoanAmount:         Money(d.Loan.Amount),
		InterestRate:       d.Loan.InterestRate,
		MonthlyInstallment: Money(d.Loan.MonthlyInstallment),
		Tenure:             d.Loan.Tenure,
	}
}

type LoanSummaryResponse struct {
	LoanID             int64   `json:"loan_id"`
	LoanAmount         float64 `json:"loan_amount"`
	InterestRate       float64 `json:"interest_rate"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	RepaymentsLeft     int     `json:"repayments_left"`
}

func NewLoanSummaries(loans []loan.Loan) []LoanSummaryResponse {
	out := make([]LoanSummaryResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, LoanSummaryResponse{
			LoanID:             l.ID,
			LoanAmount:         Money(l.Amount),
			InterestRate:       l.InterestRate,
			MonthlyInstallment: Money(l.MonthlyInstallment),
			RepaymentsLeft:     l.RepaymentsLeft(),
		})
	}
	return out
}
