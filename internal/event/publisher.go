package event

import (
	"context"
	"log/slog"
)

const (
	RoutingKeyCustomerRegistered = "customer.registered"
	RoutingKeyLoanApproved       = "loan.approved"
)

type Publisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger.With("component", "NoopPublisher")}
}

func (p *NoopPublisher) PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error {
	p.logger.DebugContext(ctx, "Event dropped", "routingKey", RoutingKeyCustomerRegistered, "eventId", event.EventID)
	return nil
}

func (p *NoopPublisher) PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error {
	p.logger.DebugContext(ctx, "Event dropped", "routingKey", RoutingKeyLoanApproved, "eventId", event.EventID)
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
