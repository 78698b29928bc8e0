package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/database/memory"
	"credit-engine/internal/infrastructure/lock"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const customerCSV = "Customer ID,First Name,Last Name,Age,Phone Number,Monthly Salary,Approved Limit\n" +
	"1,Aaron,Garcia,63,9629317944,300000,10800000\n" +
	"2,Mia,Ramos,,9737368054,50000,1800000\n" +
	"3,Carl,Nolan,30,9911223344,\"80,000\",2900000\n"

const loanCSV = "Customer ID,Loan ID,Loan Amount,Tenure,Interest Rate,Monthly payment,EMIs paid on Time,Date of Approval,End Date\n" +
	"1,7798,900000,138,16.07,12000,101,2019-10-26,2031-05-26\n" +
	"3,1002,100000,12,12,8884.88,12,2020-01-10,2021-01-10\n" +
	"99,5000,10000,6,10,1700,6,2021-01-01,2021-07-01\n" +
	"1,abc,10000,6,10,1700,6,2021-01-01,2021-07-01\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newJob(t *testing.T, store *memory.Store, customerFile, loanFile string) *IngestionJob {
	t.Helper()
	cfg := config.IngestionConfig{CustomerFile: customerFile, LoanFile: loanFile, Timeout: time.Minute}
	return NewIngestionJob(cfg, store.Customers(), store.Loans(), lock.NewLocalLocker(), logger)
}

func TestIngestionJob_Execute(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := memory.NewStore()
	job := newJob(t, store, writeFile(t, dir, "customers.csv", customerCSV), writeFile(t, dir, "loans.csv", loanCSV))

	report, err := job.Execute(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, FileReport{File: report.Customers.File, Processed: 3, Upserted: 2, Skipped: 1}, report.Customers)
	assert.Equal(t, FileReport{File: report.Loans.File, Processed: 4, Upserted: 2, Skipped: 2}, report.Loans)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	c, err := store.Customers().FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, c.MonthlyIncome)
	assert.Equal(t, 2900000.0, c.ApprovedLimit, "imported limit is kept as given")

	_, err = store.Customers().FindByID(ctx, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	l, err := store.Loans().FindByID(ctx, 7798)
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.CustomerID)
	assert.Equal(t, 101, l.EMIsPaidOnTime)
	assert.Equal(t, time.Date(2019, time.October, 26, 0, 0, 0, 0, time.UTC), l.StartDate)
	assert.Equal(t, time.Date(2031, time.May, 26, 0, 0, 0, 0, time.UTC), l.EndDate)

	_, err = store.Loans().FindByID(ctx, 5000)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "loans of unknown customers are skipped")

	t.Run("ids continue after imported ones", func(t *testing.T) {
		c := customer.NewCustomer("New", "Person", 30, "900", 10000)
		require.NoError(t, store.Customers().Create(ctx, c))
		assert.Equal(t, int64(4), c.ID)

		nl, err := loan.NewLoan(1, 1000, 12, 6, 172.55, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Loans().Create(ctx, nl))
		assert.Equal(t, int64(7799), nl.ID)
	})

	t.Run("re-running is idempotent", func(t *testing.T) {
		again, err := job.Execute(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, 2, again.Loans.Upserted)

		loans, err := store.Loans().ListByCustomer(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, loans, 2)
	})
}

func TestIngestionJob_MissingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := memory.NewStore()
	job := newJob(t, store, writeFile(t, dir, "customers.csv", customerCSV), filepath.Join(dir, "missing.xlsx"))

	report, err := job.Execute(ctx, "run-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFileNotFound)

	assert.Equal(t, 2, report.Customers.Upserted, "the other file is still ingested")
	assert.NotEmpty(t, report.Loans.Error)
	assert.Zero(t, report.Loans.Processed)
}

func TestIngestionJob_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	store := memory.NewStore()
	bad := writeFile(t, dir, "customers.csv", "Customer ID,First Name\n1,Aaron\n")
	job := newJob(t, store, bad, writeFile(t, dir, "loans.csv", loanCSV))

	report, err := job.Execute(context.Background(), "run-columns")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Zero(t, report.Customers.Processed)
	assert.Equal(t, 4, report.Loans.Skipped, "no customers exist so every loan is skipped")
}

func TestIngestionJob_OutOfRangeNumbersAreSkipped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := memory.NewStore()
	customers := "Customer ID,First Name,Last Name,Age,Phone Number,Monthly Salary,Approved Limit\n" +
		"1,Aaron,Garcia,63,9629317944,300000,10800000\n" +
		"2,Mia,Ramos,1e30,9737368054,50000,1800000\n" +
		"1e30,Carl,Nolan,30,9911223344,80000,2900000\n" +
		"4,Ida,Stone,151,9911223345,80000,2900000\n"
	loans := "Customer ID,Loan ID,Loan Amount,Tenure,Interest Rate,Monthly payment,EMIs paid on Time,Date of Approval,End Date\n" +
		"1,7798,900000,138,16.07,12000,101,2019-10-26,2031-05-26\n" +
		"1,7799,900000,1e30,16.07,12000,101,2019-10-26,2031-05-26\n" +
		"1,7800,900000,601,16.07,12000,101,2019-10-26,2031-05-26\n" +
		"1,7801,900000,138,16.07,12000,-1e30,2019-10-26,2031-05-26\n"
	job := newJob(t, store, writeFile(t, dir, "customers.csv", customers), writeFile(t, dir, "loans.csv", loans))

	report, err := job.Execute(ctx, "run-range")
	require.NoError(t, err)

	assert.Equal(t, FileReport{File: report.Customers.File, Processed: 4, Upserted: 1, Skipped: 3}, report.Customers)
	assert.Equal(t, FileReport{File: report.Loans.File, Processed: 4, Upserted: 1, Skipped: 3}, report.Loans)

	_, err = store.Customers().FindByID(ctx, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Loans().FindByID(ctx, 7799)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

type failingCustomers struct {
	customer.Repository
}

func (failingCustomers) Upsert(ctx context.Context, c *customer.Customer) error {
	return errors.New("disk full")
}

func TestIngestionJob_StoreFailuresAreCounted(t *testing.T) {
	dir := t.TempDir()
	store := memory.NewStore()
	cfg := config.IngestionConfig{
		CustomerFile: writeFile(t, dir, "customers.csv", customerCSV),
		LoanFile:     writeFile(t, dir, "loans.csv", loanCSV),
	}
	job := NewIngestionJob(cfg, failingCustomers{store.Customers()}, store.Loans(), lock.NewLocalLocker(), logger)

	report, err := job.Execute(context.Background(), "run-failing")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Customers.Failed)
	assert.Equal(t, 1, report.Customers.Skipped)
}

func TestIngestionJob_LockHeld(t *testing.T) {
	dir := t.TempDir()
	store := memory.NewStore()
	locker := lock.NewLocalLocker()
	cfg := config.IngestionConfig{
		CustomerFile: writeFile(t, dir, "customers.csv", customerCSV),
		LoanFile:     writeFile(t, dir, "loans.csv", loanCSV),
	}
	job := NewIngestionJob(cfg, store.Customers(), store.Loans(), locker, logger)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), ingestionLockKey, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := job.Execute(ctx, "run-blocked")
	assert.ErrorIs(t, err, apperrors.ErrLockNotAcquired)
}

func TestIngestionJob_StartAndWait(t *testing.T) {
	dir := t.TempDir()
	store := memory.NewStore()
	job := newJob(t, store, writeFile(t, dir, "customers.csv", customerCSV), writeFile(t, dir, "loans.csv", loanCSV))

	ctx, cancel := context.WithCancel(context.Background())
	runID := job.Start(ctx)
	cancel()
	job.Wait()

	assert.NotEmpty(t, runID)
	_, err := store.Loans().FindByID(context.Background(), 1002)
	assert.NoError(t, err, "a background run outlives the request context")
}

func TestNewIngestionJob_PanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewIngestionJob(config.IngestionConfig{}, nil, nil, nil, logger)
	})
}
