package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, customer_id, amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (customer_id, amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		l.CustomerID,
		l.Amount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyInstallment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	observe("CreateLoan", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	observe("FindLoanByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, loan.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		observe("ListLoansByCustomer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			observe("ListLoansByCustomer", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "customer_id", customerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, *l)
	}
	err = rows.Err()
	observe("ListLoansByCustomer", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) error {
	if l == nil || l.ID <= 0 {
		return fmt.Errorf("%w: upsert needs a loan with an id", apperrors.ErrInvalidArgument)
	}

	upsertSQL := `
        INSERT INTO loans (id, customer_id, amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            amount = EXCLUDED.amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_installment = EXCLUDED.monthly_installment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()`

	start := time.Now()
	_, err := r.db.Exec(ctx, upsertSQL,
		l.ID,
		l.CustomerID,
		l.Amount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyInstallment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
	)
	observe("UpsertLoan", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert loan", slog.Int64("loanID", l.ID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) SyncSequence(ctx context.Context) error {
	return syncSequence(ctx, r.db, "loans", r.logger)
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.CustomerID, &l.Amount, &l.Tenure, &l.InterestRate,
		&l.MonthlyInstallment, &l.EMIsPaidOnTime, &l.StartDate, &l.EndDate,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
