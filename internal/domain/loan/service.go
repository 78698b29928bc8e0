package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

const (
	MessageApproved       = "Loan Approved"
	messageRejectedPrefix = "Loan not approved due to "

	callSiteCheck  = "check_eligibility"
	callSiteCreate = "create_loan"
)

type Clock func() time.Time

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type CreateResult struct {
	Decision credit.Decision
	Loan     *Loan
	Message  string
}

type Details struct {
	Loan     Loan
	Customer customer.Customer
}

type LoanService interface {
	CheckEligibility(ctx context.Context, req credit.Request) (*credit.Decision, error)

	CreateLoan(ctx context.Context, req credit.Request) (*CreateResult, error)

	GetLoan(ctx context.Context, loanID int64) (*Details, error)

	ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error)
}

var _ LoanService = (*loanServiceImpl)(nil)

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	locker          Locker
	pub             event.Publisher
	clock           Clock
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, locker Locker, pub event.Publisher, clock Clock, logger *slog.Logger) LoanService {
	if r == nil || cs == nil || locker == nil {
		panic("loan service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = event.NewNoopPublisher(logger)
	}
	if clock == nil {
		clock = time.Now
	}
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		locker:          locker,
		pub:             pub,
		clock:           clock,
		logger:          logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) today() time.Time {
	return credit.Day(s.clock())
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, req credit.Request) (*credit.Decision, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	decision, err := s.decide(ctx, req)
	if err != nil {
		return nil, err
	}
	monitoring.RecordEligibilityDecision(callSiteCheck, decision.Approved, string(decision.Tier))
	return decision, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, req credit.Request) (*CreateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	logger := s.logger.With(slog.Int64("customerID", req.CustomerID))

	var result *CreateResult
	err := s.locker.WithLock(ctx, customerLockKey(req.CustomerID), func(ctx context.Context) error {
		decision, err := s.decide(ctx, req)
		if err != nil {
			return err
		}
		monitoring.RecordEligibilityDecision(callSiteCreate, decision.Approved, string(decision.Tier))

		if !decision.Approved {
			logger.InfoContext(ctx, "Loan not approved", slog.String("reason", string(decision.Reason)))
			result = &CreateResult{Decision: *decision, Message: messageRejectedPrefix + string(decision.Reason)}
			return nil
		}

		newLoan, err := NewLoan(req.CustomerID, req.LoanAmount, decision.CorrectedInterestRate, req.Tenure, decision.MonthlyInstallment, s.today())
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, newLoan); err != nil {
			logger.ErrorContext(ctx, "Failed to save approved loan", slog.Any("error", err))
			return fmt.Errorf("failed to save loan: %w", err)
		}
		monitoring.RecordLoanCreated()
		result = &CreateResult{Decision: *decision, Loan: newLoan, Message: MessageApproved}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrLockNotAcquired) {
			logger.WarnContext(ctx, "Another loan request for this customer is in progress")
			return nil, fmt.Errorf("%w: loan creation for customer %d is already in progress", apperrors.ErrConflict, req.CustomerID)
		}
		return nil, err
	}

	if result.Loan != nil {
		logger.InfoContext(ctx, "Loan created successfully", slog.Int64("loanID", result.Loan.ID))
		s.publishApproved(ctx, result.Loan)
	}
	return result, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Details, error) {
	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to load loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loan %d: %w", loanID, err)
	}

	cust, err := s.customerService.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner of loan %d: %w", loanID, err)
	}
	return &Details{Loan: *l, Customer: *cust}, nil
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]Loan, error) {
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans for customer %d: %w", customerID, err)
	}
	return loans, nil
}

func (s *loanServiceImpl) decide(ctx context.Context, req credit.Request) (*credit.Decision, error) {
	cust, err := s.customerService.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListByCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan history of customer %d: %w", req.CustomerID, err)
	}

	profile := credit.Profile{
		CustomerID:    cust.ID,
		MonthlyIncome: cust.MonthlyIncome,
		ApprovedLimit: cust.ApprovedLimit,
	}
	d := credit.Evaluate(profile, Records(history), req, s.today())
	if math.IsNaN(d.MonthlyInstallment) || math.IsInf(d.MonthlyInstallment, 0) {
		return nil, apperrors.ValidationErrors{{Field: "loan_amount", Message: "is too large"}}
	}

	s.logger.InfoContext(ctx, "Eligibility evaluated",
		slog.Int64("customerID", req.CustomerID),
		slog.Bool("approved", d.Approved),
		slog.String("tier", string(d.Tier)),
		slog.Float64("score", d.Score.Total),
		slog.Bool("scoreOverridden", d.Score.Overridden),
		slog.Float64("correctedRate", d.CorrectedInterestRate),
		slog.String("reason", string(d.Reason)),
	)
	return &d, nil
}

func (s *loanServiceImpl) publishApproved(ctx context.Context, l *Loan) {
	ev := event.NewLoanApprovedEvent(event.LoanPayload{
		LoanID:             l.ID,
		CustomerID:         l.CustomerID,
		Amount:             l.Amount,
		InterestRate:       l.InterestRate,
		Tenure:             l.Tenure,
		MonthlyInstallment: l.MonthlyInstallment,
		StartDate:          l.StartDate,
		EndDate:            l.EndDate,
	})
	if err := s.pub.PublishLoanApproved(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but FAILED to publish approval event", slog.Int64("loanID", l.ID), slog.Any("error", err))
	}
}

func customerLockKey(customerID int64) string {
	return fmt.Sprintf("customer:%d", customerID)
}

func validateRequest(req credit.Request) error {
	var errs apperrors.ValidationErrors
	if req.CustomerID <= 0 {
		errs = append(errs, apperrors.ValidationError{Field: "customer_id", Message: "must be greater than 0"})
	}
	if req.LoanAmount <= 0 {
		errs = append(errs, apperrors.ValidationError{Field: "loan_amount", Message: "must be greater than 0"})
	}
	if req.InterestRate < 0 {
		errs = append(errs, apperrors.ValidationError{Field: "interest_rate", Message: "must not be negative"})
	}
	switch {
	case req.Tenure < 1:
		errs = append(errs, apperrors.ValidationError{Field: "tenure", Message: "must be at least 1"})
	case req.Tenure > credit.MaxTenure:
		errs = append(errs, apperrors.ValidationError{Field: "tenure", Message: fmt.Sprintf("must be at most %d", credit.MaxTenure)})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
