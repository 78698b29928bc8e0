package loan

import (
	"context"
	"fmt"

	"credit-engine/internal/pkg/apperrors"
)

var ErrNotFound = fmt.Errorf("loan %w", apperrors.ErrNotFound)

type Repository interface {
	// Create appends a new loan and assigns its ID.
	Create(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	// ListByCustomer returns every loan of the customer ordered by ID.
	ListByCustomer(ctx context.Context, customerID int64) ([]Loan, error)

	// Upsert inserts or replaces the loan keyed by its externally assigned ID.
	Upsert(ctx context.Context, loan *Loan) error

	SyncSequence(ctx context.Context) error
}
