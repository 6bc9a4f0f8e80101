package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WebhookEventType classifies provider webhook notifications
type WebhookEventType string

const (
	WebhookPaymentSucceeded WebhookEventType = "payment_succeeded"
	WebhookPaymentFailed    WebhookEventType = "payment_failed"

	// WebhookIgnored marks event types the system does not act on
	WebhookIgnored WebhookEventType = "ignored"
)

// CreateIntentInput is the provider-neutral payment intent request
type CreateIntentInput struct {
	AmountCents    int64
	Currency       string
	OrderID        uuid.UUID
	OrderNumber    string
	IdempotencyKey string
}

// PaymentIntent is the provider-neutral payment intent result
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// WebhookEvent is a verified, provider-neutral webhook notification
type WebhookEvent struct {
	Type          WebhookEventType
	PaymentID     string
	OrderID       uuid.UUID
	FailureReason string
}

// PaymentGateway abstracts the payment provider.
// Implemented by the infrastructure layer (Stripe in production).
type PaymentGateway interface {
	// CreateIntent creates a payment intent for the given amount
	CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error)

	// ParseWebhook verifies the webhook signature and translates the
	// provider payload into a WebhookEvent
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// Provider returns the provider name used in logs and metrics
	Provider() string
}

// PaymentService connects orders to the payment provider
type PaymentService struct {
	orderRepo       order.OrderRepository
	gateway         PaymentGateway
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	orderRepo order.OrderRepository,
	gateway PaymentGateway,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *PaymentService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreatePaymentIntent starts the payment flow for a pending order.
// The idempotency key includes the aggregate version, so retrying after
// the order changed produces a fresh intent with the current amount.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, actor Actor) (*PaymentIntentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create_intent",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()))
	defer span.End()

	if s.gateway == nil {
		return nil, shared.NewDomainError("PAYMENTS_NOT_CONFIGURED", "Payment provider is not configured")
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, err
	}

	if !o.IsOwnedBy(actor.UserID) && !actor.CanManage {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}
	if !o.IsPending() {
		return nil, shared.NewDomainError("ORDER_NOT_PENDING", "Payment can only be started for a pending order")
	}
	if o.ItemCount() == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order has no items to pay for")
	}

	intent, err := s.gateway.CreateIntent(ctx, CreateIntentInput{
		AmountCents:    toCents(o.GrandTotal.Amount()),
		Currency:       "brl",
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		IdempotencyKey: fmt.Sprintf("order-%s-%d", o.ID, o.Version),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("payment intent creation failed",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("PAYMENT_GATEWAY_ERROR", "Failed to start the payment")
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, intent.ID,
		telemetry.SpanAttrAmount, o.GrandTotal.String(),
	)

	s.logger.Info("payment intent created",
		zap.String("order_id", o.ID.String()),
		zap.String("payment_intent_id", intent.ID))

	return &PaymentIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     toCents(o.GrandTotal.Amount()),
		Currency:        "brl",
		Status:          intent.Status,
	}, nil
}

// HandleWebhook processes a verified provider notification. Successful
// payments mark the order as paid; redeliveries are acknowledged without
// side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "handle_webhook")
	defer span.End()

	if s.gateway == nil {
		return shared.NewDomainError("PAYMENTS_NOT_CONFIGURED", "Payment provider is not configured")
	}

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.NewDomainError("WEBHOOK_INVALID", "Webhook signature verification failed")
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, event.PaymentID,
		telemetry.SpanAttrOrderID, event.OrderID.String(),
	)

	switch event.Type {
	case WebhookPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, event)
	case WebhookPaymentFailed:
		s.recordPayment(ctx, telemetry.PaymentStatusFailed)
		s.logger.Warn("payment failed",
			zap.String("order_id", event.OrderID.String()),
			zap.String("payment_intent_id", event.PaymentID),
			zap.String("reason", event.FailureReason))
		return nil
	default:
		return nil
	}
}

func (s *PaymentService) handlePaymentSucceeded(ctx context.Context, event *WebhookEvent) error {
	o, err := s.orderRepo.FindByID(ctx, event.OrderID)
	if err != nil {
		// Acknowledge so the provider stops retrying a payment we
		// cannot match to an order; this needs manual follow-up
		s.logger.Error("payment succeeded for unknown order",
			zap.String("order_id", event.OrderID.String()),
			zap.String("payment_intent_id", event.PaymentID),
			zap.Error(err))
		return nil
	}

	if o.IsPaid() {
		return nil
	}

	if err := o.MarkPaid(event.PaymentID); err != nil {
		s.logger.Error("cannot mark order as paid",
			zap.String("order_id", o.ID.String()),
			zap.String("status", o.Status.String()),
			zap.String("payment_intent_id", event.PaymentID),
			zap.Error(err))
		return nil
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		for _, domainEvent := range o.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, domainEvent); err != nil {
				s.logger.Warn("failed to publish order event",
					zap.String("event_type", domainEvent.EventType()),
					zap.String("order_id", o.ID.String()),
					zap.Error(err))
			}
		}
	}
	o.ClearDomainEvents()

	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "order_marked_paid",
		telemetry.SpanAttrOrderNumber, o.OrderNumber)

	s.recordPayment(ctx, telemetry.PaymentStatusSuccess)

	s.logger.Info("order paid",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_intent_id", event.PaymentID))

	return nil
}

func (s *PaymentService) recordPayment(ctx context.Context, status telemetry.PaymentStatus) {
	if s.businessMetrics == nil {
		return
	}
	s.businessMetrics.RecordPayment(ctx, s.gateway.Provider(), status)
}

// toCents converts a BRL amount to centavos
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
