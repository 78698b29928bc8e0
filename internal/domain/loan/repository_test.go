package loan

import (
	"context"
	"sync"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, loan *Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error) {
	args := m.Called(ctx, customerID)
	if loans, ok := args.Get(0).([]Loan); ok {
		return loans, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, loan *Loan) error {
	return m.Called(ctx, loan).Error(0)
}

func (m *MockRepository) SyncSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ Repository = (*MockRepository)(nil)

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

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCustomerRegistered(ctx context.Context, ev event.CustomerRegisteredEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) PublishLoanApproved(ctx context.Context, ev event.LoanApprovedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// mutexLocker serializes every key through one mutex and records the keys it saw.
type mutexLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *mutexLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return fn(ctx)
}
