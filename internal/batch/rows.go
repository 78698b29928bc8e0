package batch

import (
	"errors"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/spreadsheet"
)

const maxAge = 150

func customerFromRow(row spreadsheet.Row) (*customer.Customer, error) {
	id, err := row.Int("Customer ID")
	if err != nil {
		return nil, err
	}
	first, err := row.String("First Name")
	if err != nil {
		return nil, err
	}
	last, err := row.String("Last Name")
	if err != nil {
		return nil, err
	}
	age, err := row.IntBetween("Age", 1, maxAge)
	if err != nil {
		return nil, err
	}
	phone, err := row.String("Phone Number")
	if err != nil {
		return nil, err
	}
	salary, err := row.Float("Monthly Salary")
	if err != nil {
		return nil, err
	}
	limit, err := row.Float("Approved Limit")
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, errors.New("customer id must be positive")
	}

	return &customer.Customer{
		ID:            id,
		FirstName:     first,
		LastName:      last,
		Age:           int(age),
		PhoneNumber:   phone,
		MonthlyIncome: salary,
		ApprovedLimit: limit,
	}, nil
}

func loanFromRow(row spreadsheet.Row) (*loan.Loan, error) {
	var (
		l   loan.Loan
		err error
	)
	if l.CustomerID, err = row.Int("Customer ID"); err != nil {
		return nil, err
	}
	if l.ID, err = row.Int("Loan ID"); err != nil {
		return nil, err
	}
	if l.Amount, err = row.Float("Loan Amount"); err != nil {
		return nil, err
	}
	tenure, err := row.IntBetween("Tenure", 1, credit.MaxTenure)
	if err != nil {
		return nil, err
	}
	if l.InterestRate, err = row.Float("Interest Rate"); err != nil {
		return nil, err
	}
	if l.MonthlyInstallment, err = row.Float("Monthly payment"); err != nil {
		return nil, err
	}
	paid, err := row.IntBetween("EMIs paid on Time", 0, credit.MaxTenure)
	if err != nil {
		return nil, err
	}
	var start, end time.Time
	if start, err = row.Date("Date of Approval"); err != nil {
		return nil, err
	}
	if end, err = row.Date("End Date"); err != nil {
		return nil, err
	}

	l.Tenure = int(tenure)
	l.EMIsPaidOnTime = int(paid)
	l.StartDate = start
	l.EndDate = end
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
