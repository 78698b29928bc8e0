package handler_test

import (
	"context"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Register(ctx context.Context, in customer.RegisterInput) (*customer.Customer, error) {
	args := m.Called(ctx, in)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if c, ok := args.Get(0).(*customer.Customer); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CheckEligibility(ctx context.Context, req credit.Request) (*credit.Decision, error) {
	args := m.Called(ctx, req)
	if d, ok := args.Get(0).(*credit.Decision); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req credit.Request) (*loan.CreateResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*loan.CreateResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Details, error) {
	args := m.Called(ctx, loanID)
	if d, ok := args.Get(0).(*loan.Details); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoanService) ListCustomerLoans(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID)
	if l, ok := args.Get(0).([]loan.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIngestionStarter struct {
	mock.Mock
}

func (m *MockIngestionStarter) Start(ctx context.Context) string {
	return m.Called(ctx).String(0)
}
