// Package payment provides the Stripe implementation of the order payment gateway.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	orderapp "github.com/moa/backend/internal/application/order"
	"github.com/moa/backend/internal/infrastructure/config"
)

// Ensure StripeGateway implements PaymentGateway
var _ orderapp.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements the order payment gateway using Stripe
// PaymentIntents. Checkout confirms the intent on the client with the
// client secret; payment outcomes arrive through webhooks.
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway and configures the global
// Stripe client key
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stripe.Key = cfg.SecretKey

	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}, nil
}

// CreateIntent creates a Stripe PaymentIntent for the order. The order ID
// travels in the intent metadata so webhooks can be matched back, and the
// caller-provided idempotency key makes retries safe.
func (g *StripeGateway) CreateIntent(ctx context.Context, input orderapp.CreateIntentInput) (*orderapp.PaymentIntent, error) {
	g.logger.Debug("creating Stripe payment intent",
		zap.String("order_id", input.OrderID.String()),
		zap.Int64("amount_cents", input.AmountCents),
		zap.String("currency", input.Currency))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(input.AmountCents),
		Currency: stripe.String(input.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     input.OrderID.String(),
			"order_number": input.OrderNumber,
		},
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("failed to create Stripe payment intent",
			zap.String("order_id", input.OrderID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	g.logger.Info("created Stripe payment intent",
		zap.String("order_id", input.OrderID.String()),
		zap.String("payment_intent_id", intent.ID))

	return &orderapp.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// Provider returns the provider name used in logs and metrics
func (g *StripeGateway) Provider() string {
	return "stripe"
}

// ParseWebhook verifies the webhook signature and translates the Stripe
// event into the provider-neutral form
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*orderapp.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		g.logger.Warn("webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	return g.translateEvent(event)
}

// translateEvent maps a verified Stripe event to a WebhookEvent. Events the
// marketplace does not act on, including intents without order metadata,
// come back as WebhookIgnored.
func (g *StripeGateway) translateEvent(event stripe.Event) (*orderapp.WebhookEvent, error) {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent payload: %w", err)
		}

		orderID, ok := orderIDFromMetadata(intent.Metadata)
		if !ok {
			// Not an intent this marketplace created; needs follow-up if
			// money actually moved
			g.logger.Warn("payment intent event without order metadata",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("payment_intent_id", intent.ID))
			return &orderapp.WebhookEvent{Type: orderapp.WebhookIgnored}, nil
		}

		if event.Type == "payment_intent.succeeded" {
			return &orderapp.WebhookEvent{
				Type:      orderapp.WebhookPaymentSucceeded,
				PaymentID: intent.ID,
				OrderID:   orderID,
			}, nil
		}

		failureReason := ""
		if intent.LastPaymentError != nil {
			failureReason = intent.LastPaymentError.Msg
		}
		return &orderapp.WebhookEvent{
			Type:          orderapp.WebhookPaymentFailed,
			PaymentID:     intent.ID,
			OrderID:       orderID,
			FailureReason: failureReason,
		}, nil

	default:
		return &orderapp.WebhookEvent{Type: orderapp.WebhookIgnored}, nil
	}
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw, ok := metadata["order_id"]
	if !ok {
		return uuid.Nil, false
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return orderID, true
}
