// Package memory keeps customers and loans in process memory. Reads return copies.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"
)

type Store struct {
	mu             sync.RWMutex
	customers      map[int64]customer.Customer
	loans          map[int64]loan.Loan
	nextCustomerID int64
	nextLoanID     int64
}

func NewStore() *Store {
	return &Store{
		customers:      make(map[int64]customer.Customer),
		loans:          make(map[int64]loan.Loan),
		nextCustomerID: 1,
		nextLoanID:     1,
	}
}

func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s: s} }

func (s *Store) Loans() *LoanRepository { return &LoanRepository{s: s} }

type CustomerRepository struct{ s *Store }

var _ customer.Repository = (*CustomerRepository)(nil)

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	if c == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id := r.s.nextCustomerID
	if _, taken := r.s.customers[id]; taken {
		return fmt.Errorf("%w: customer id %d", apperrors.ErrAlreadyExists, id)
	}
	r.s.nextCustomerID++

	now := time.Now().UTC()
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	r.s.customers[id] = *c
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[customerID]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (r *CustomerRepository) Upsert(ctx context.Context, c *customer.Customer) error {
	if c == nil || c.ID <= 0 {
		return fmt.Errorf("%w: upsert needs a customer with an id", apperrors.ErrInvalidArgument)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	c.CreatedAt = now
	if prev, ok := r.s.customers[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	}
	c.UpdatedAt = now
	r.s.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepository) SyncSequence(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var maxID int64
	for id := range r.s.customers {
		maxID = max(maxID, id)
	}
	r.s.nextCustomerID = maxID + 1
	return nil
}

type LoanRepository struct{ s *Store }

var _ loan.Repository = (*LoanRepository)(nil)

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[l.CustomerID]; !ok {
		return customer.ErrNotFound
	}
	id := r.s.nextLoanID
	if _, taken := r.s.loans[id]; taken {
		return fmt.Errorf("%w: loan id %d", apperrors.ErrAlreadyExists, id)
	}
	r.s.nextLoanID++

	now := time.Now().UTC()
	l.ID, l.CreatedAt, l.UpdatedAt = id, now, now
	r.s.loans[id] = *l
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.loans[loanID]
	if !ok {
		return nil, loan.ErrNotFound
	}
	return &l, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]loan.Loan, 0)
	for _, l := range r.s.loans {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) error {
	if l == nil || l.ID <= 0 {
		return fmt.Errorf("%w: upsert needs a loan with an id", apperrors.ErrInvalidArgument)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[l.CustomerID]; !ok {
		return customer.ErrNotFound
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	if prev, ok := r.s.loans[l.ID]; ok {
		l.CreatedAt = prev.CreatedAt
	}
	l.UpdatedAt = now
	r.s.loans[l.ID] = *l
	return nil
}

func (r *LoanRepository) SyncSequence(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var maxID int64
	for id := range r.s.loans {
		maxID = max(maxID, id)
	}
	r.s.nextLoanID = maxID + 1
	return nil
}
