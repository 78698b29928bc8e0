package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

type RegisterInput struct {
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlyIncome float64
}

type CustomerService interface {
	Register(ctx context.Context, in RegisterInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   Repository
	pub    event.Publisher
	logger *slog.Logger
}

func NewCustomerService(repo Repository, pub event.Publisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if pub == nil {
		pub = event.NewNoopPublisher(logger)
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) Register(ctx context.Context, in RegisterInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register customer")

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validateRegistration(in); err != nil {
		s.logger.WarnContext(ctx, "Registration input rejected", slog.Any("error", err))
		return nil, err
	}

	cust := NewCustomer(in.FirstName, in.LastName, in.Age, in.PhoneNumber, in.MonthlyIncome)
	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	monitoring.RecordCustomerRegistered()

	logger := s.logger.With(slog.Int64("customerID", cust.ID))
	logger.InfoContext(ctx, "Customer registered", slog.Float64("approvedLimit", cust.ApprovedLimit))

	registered := event.NewCustomerRegisteredEvent(event.CustomerPayload{
		CustomerID:    cust.ID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		PhoneNumber:   cust.PhoneNumber,
		MonthlyIncome: cust.MonthlyIncome,
		ApprovedLimit: cust.ApprovedLimit,
	})
	if pubErr := s.pub.PublishCustomerRegistered(ctx, registered); pubErr != nil {
		logger.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}

	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "Customer not found by repository")
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}

func validateRegistration(in RegisterInput) error {
	var errs apperrors.ValidationErrors
	if in.FirstName == "" {
		errs = append(errs, apperrors.ValidationError{Field: "first_name", Message: "is required"})
	}
	if in.LastName == "" {
		errs = append(errs, apperrors.ValidationError{Field: "last_name", Message: "is required"})
	}
	if in.Age <= 0 {
		errs = append(errs, apperrors.ValidationError{Field: "age", Message: "must be greater than 0"})
	}
	if in.PhoneNumber == "" {
		errs = append(errs, apperrors.ValidationError{Field: "phone_number", Message: "is required"})
	}
	if in.MonthlyIncome < 0 {
		errs = append(errs, apperrors.ValidationError{Field: "monthly_income", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
