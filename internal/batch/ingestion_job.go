package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/infrastructure/spreadsheet"
	"credit-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

const ingestionLockKey = "ingestion"

const (
	kindCustomer = "customer"
	kindLoan     = "loan"

	statusUpserted = "upserted"
	statusSkipped  = "skipped"
	statusFailed   = "failed"
)

var (
	customerColumns = []string{"Customer ID", "First Name", "Last Name", "Age", "Phone Number", "Monthly Salary", "Approved Limit"}
	loanColumns     = []string{"Customer ID", "Loan ID", "Loan Amount", "Tenure", "Interest Rate", "Monthly payment", "EMIs paid on Time", "Date of Approval", "End Date"}
)

// FileReport counts what happened to the rows of one source file.
// Skipped rows were malformed or referenced an unknown customer; Failed rows hit a store error.
type FileReport struct {
	File      string `json:"file"`
	Processed int    `json:"processed"`
	Upserted  int    `json:"upserted"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

type Report struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Customers  FileReport `json:"customers"`
	Loans      FileReport `json:"loans"`
}

type IngestionJob struct {
	customers    customer.Repository
	loans        loan.Repository
	locker       loan.Locker
	customerFile string
	loanFile     string
	timeout      time.Duration
	logger       *slog.Logger

	wg sync.WaitGroup
}

func NewIngestionJob(
	cfg config.IngestionConfig,
	customers customer.Repository,
	loans loan.Repository,
	locker loan.Locker,
	logger *slog.Logger,
) *IngestionJob {
	if customers == nil || loans == nil || locker == nil || logger == nil {
		panic("IngestionJob dependencies cannot be nil")
	}
	return &IngestionJob{
		customers:    customers,
		loans:        loans,
		locker:       locker,
		customerFile: cfg.CustomerFile,
		loanFile:     cfg.LoanFile,
		timeout:      cfg.Timeout,
		logger:       logger.With("job", "Ingestion"),
	}
}

// Run performs one ingestion run. It is the entry point used by the scheduler.
func (j *IngestionJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx, uuid.NewString())
	return err
}

// Start launches a run in the background and returns its id immediately.
func (j *IngestionJob) Start(ctx context.Context) string {
	runID := uuid.NewString()
	runCtx := context.WithoutCancel(ctx)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		if _, err := j.Execute(runCtx, runID); err != nil {
			j.logger.ErrorContext(runCtx, "Background ingestion run failed", slog.String("runID", runID), slog.Any("error", err))
		}
	}()
	return runID
}

// Wait blocks until every run started with Start has finished.
func (j *IngestionJob) Wait() {
	j.wg.Wait()
}

func (j *IngestionJob) Execute(ctx context.Context, runID string) (*Report, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	logger := j.logger.With(slog.String("runID", runID))
	report := &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Customers: FileReport{File: j.customerFile},
		Loans:     FileReport{File: j.loanFile},
	}

	var runErr error
	lockErr := j.locker.WithLock(ctx, ingestionLockKey, func(ctx context.Context) error {
		logger.InfoContext(ctx, "Starting ingestion run.")

		custErr := j.ingestCustomers(ctx, logger, &report.Customers)
		loanErr := j.ingestLoans(ctx, logger, &report.Loans)
		runErr = errors.Join(custErr, loanErr)
		return nil
	})
	if lockErr != nil {
		runErr = lockErr
	}

	report.FinishedAt = time.Now().UTC()
	duration := report.FinishedAt.Sub(report.StartedAt)

	summaryLog := logger.With(
		slog.Duration("duration", duration),
		slog.Int("customers_processed", report.Customers.Processed),
		slog.Int("customers_upserted", report.Customers.Upserted),
		slog.Int("customers_skipped", report.Customers.Skipped),
		slog.Int("customers_failed", report.Customers.Failed),
		slog.Int("loans_processed", report.Loans.Processed),
		slog.Int("loans_upserted", report.Loans.Upserted),
		slog.Int("loans_skipped", report.Loans.Skipped),
		slog.Int("loans_failed", report.Loans.Failed),
	)

	status := "success"
	switch {
	case runErr != nil:
		status = "failure"
		summaryLog.ErrorContext(ctx, "Ingestion run failed.", slog.Any("error", runErr))
	case report.Customers.Failed+report.Loans.Failed > 0:
		status = "partial"
		summaryLog.WarnContext(ctx, "Ingestion run finished with row errors.")
	default:
		summaryLog.InfoContext(ctx, "Ingestion run finished successfully.")
	}
	monitoring.RecordIngestionRun(status, duration)

	return report, runErr
}

func (j *IngestionJob) ingestCustomers(ctx context.Context, logger *slog.Logger, fr *FileReport) error {
	table, err := openTable(fr.File, customerColumns)
	if err != nil {
		fr.Error = err.Error()
		return fmt.Errorf("customer file: %w", err)
	}

	for _, row := range table.Rows() {
		if err := ctx.Err(); err != nil {
			fr.Error = err.Error()
			return fmt.Errorf("customer ingestion interrupted: %w", err)
		}
		fr.Processed++

		cust, err := customerFromRow(row)
		if err != nil {
			j.count(fr, kindCustomer, statusSkipped)
			logger.WarnContext(ctx, "Customer row skipped", slog.Int("line", row.Line), slog.Any("error", err))
			continue
		}
		if err := j.customers.Upsert(ctx, cust); err != nil {
			j.count(fr, kindCustomer, statusFailed)
			logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.ID), slog.Any("error", err))
			continue
		}
		j.count(fr, kindCustomer, statusUpserted)
	}

	if err := j.customers.SyncSequence(ctx); err != nil {
		fr.Error = err.Error()
		return fmt.Errorf("customer id sequence: %w", err)
	}
	return nil
}

func (j *IngestionJob) ingestLoans(ctx context.Context, logger *slog.Logger, fr *FileReport) error {
	table, err := openTable(fr.File, loanColumns)
	if err != nil {
		fr.Error = err.Error()
		return fmt.Errorf("loan file: %w", err)
	}

	known := make(map[int64]bool)
	for _, row := range table.Rows() {
		if err := ctx.Err(); err != nil {
			fr.Error = err.Error()
			return fmt.Errorf("loan ingestion interrupted: %w", err)
		}
		fr.Processed++

		l, err := loanFromRow(row)
		if err != nil {
			j.count(fr, kindLoan, statusSkipped)
			logger.WarnContext(ctx, "Loan row skipped", slog.Int("line", row.Line), slog.Any("error", err))
			continue
		}

		exists, err := j.customerExists(ctx, known, l.CustomerID)
		if err != nil {
			j.count(fr, kindLoan, statusFailed)
			logger.ErrorContext(ctx, "Failed to look up loan owner", slog.Int64("loanID", l.ID), slog.Any("error", err))
			continue
		}
		if !exists {
			j.count(fr, kindLoan, statusSkipped)
			logger.WarnContext(ctx, "Loan row references unknown customer", slog.Int64("loanID", l.ID), slog.Int64("customerID", l.CustomerID))
			continue
		}

		if err := j.loans.Upsert(ctx, l); err != nil {
			j.count(fr, kindLoan, statusFailed)
			logger.ErrorContext(ctx, "Failed to upsert loan", slog.Int64("loanID", l.ID), slog.Any("error", err))
			continue
		}
		j.count(fr, kindLoan, statusUpserted)
	}

	if err := j.loans.SyncSequence(ctx); err != nil {
		fr.Error = err.Error()
		return fmt.Errorf("loan id sequence: %w", err)
	}
	return nil
}

func (j *IngestionJob) customerExists(ctx context.Context, known map[int64]bool, customerID int64) (bool, error) {
	if ok, seen := known[customerID]; seen {
		return ok, nil
	}
	_, err := j.customers.FindByID(ctx, customerID)
	switch {
	case err == nil:
		known[customerID] = true
	case errors.Is(err, apperrors.ErrNotFound):
		known[customerID] = false
	default:
		return false, err
	}
	return known[customerID], nil
}

func (j *IngestionJob) count(fr *FileReport, kind, status string) {
	switch status {
	case statusUpserted:
		fr.Upserted++
	case statusSkipped:
		fr.Skipped++
	case statusFailed:
		fr.Failed++
	}
	monitoring.RecordIngestionRow(kind, status)
}

func openTable(path string, columns []string) (*spreadsheet.Table, error) {
	table, err := spreadsheet.Open(path)
	if err != nil {
		return nil, err
	}
	if err := table.Require(columns...); err != nil {
		return nil, err
	}
	return table, nil
}
