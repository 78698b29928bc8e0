package customer

import (
	"context"
	"fmt"

	"credit-engine/internal/pkg/apperrors"
)

var ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

type Repository interface {
	// Create stores a new customer and assigns its ID.
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// Upsert inserts or replaces the customer keyed by its externally assigned ID.
	Upsert(ctx context.Context, customer *Customer) error

	// SyncSequence moves the ID generator past the highest stored ID.
	SyncSequence(ctx context.Context) error
}
