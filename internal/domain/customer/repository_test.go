package customer

import (
	"context"

	"credit-engine/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Upsert(ctx context.Context, customer *Customer) error {
	return _m.Called(ctx, customer).Error(0)
}

func (_m *MockCustomerRepository) SyncSequence(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

var _ Repository = (*MockCustomerRepository)(nil)

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PublishCustomerRegistered(ctx context.Context, ev event.CustomerRegisteredEvent) error {
	return _m.Called(ctx, ev).Error(0)
}

func (_m *MockPublisher) PublishLoanApproved(ctx context.Context, ev event.LoanApprovedEvent) error {
	return _m.Called(ctx, ev).Error(0)
}
