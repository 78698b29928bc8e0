package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

const customerColumns = `id, first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlyIncome,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(&cust.ID, &cust.CreatedAt, &cust.UpdatedAt)
	observe("CreateCustomer", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translatedErr
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	start := time.Now()
	var c customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Age, &c.PhoneNumber,
		&c.MonthlyIncome, &c.ApprovedLimit, &c.CurrentDebt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	observe("FindCustomerByID", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrNotFound) {
			r.logger.DebugContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		return nil, translatedErr
	}
	return &c, nil
}

func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil || cust.ID <= 0 {
		return fmt.Errorf("%w: upsert needs a customer with an id", apperrors.ErrInvalidArgument)
	}

	upsertSQL := `
        INSERT INTO customers (id, first_name, last_name, age, phone_number, monthly_income, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_income = EXCLUDED.monthly_income,
            approved_limit = EXCLUDED.approved_limit,
            current_debt = EXCLUDED.current_debt,
            updated_at = NOW()`

	start := time.Now()
	_, err := r.db.Exec(ctx, upsertSQL,
		cust.ID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlyIncome,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	)
	observe("UpsertCustomer", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.ID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *CustomerRepository) SyncSequence(ctx context.Context) error {
	return syncSequence(ctx, r.db, "customers", r.logger)
}

// syncSequence moves a serial column's sequence past the highest stored id.
func syncSequence(ctx context.Context, db DBPool, table string, logger *slog.Logger) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
		table,
	)

	start := time.Now()
	var next int64
	err := db.QueryRow(ctx, query).Scan(&next)
	observe("SyncSequence_"+table, start, err)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to sync id sequence", slog.String("table", table), slog.Any("error", err))
		return translateDBError(err, logger)
	}

	logger.InfoContext(ctx, "Id sequence synced", slog.String("table", table), slog.Int64("nextID", next))
	return nil
}
