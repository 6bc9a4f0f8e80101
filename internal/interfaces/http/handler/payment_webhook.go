package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moa/backend/internal/application/order"
	"github.com/moa/backend/internal/domain/shared"
)

// Maximum webhook payload size (64KB - Stripe webhooks are typically small)
const maxWebhookPayloadSize = 65536

// PaymentWebhookHandler receives payment notifications from Stripe.
// These endpoints are called by Stripe and do not require authentication;
// authenticity comes from the signature header instead.
type PaymentWebhookHandler struct {
	BaseHandler
	paymentService *order.PaymentService
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler
func NewPaymentWebhookHandler(paymentService *order.PaymentService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		paymentService: paymentService,
	}
}

// PaymentWebhookResponse represents the acknowledgement sent back to Stripe
//
//	@Description	Payment webhook acknowledgement
type PaymentWebhookResponse struct {
	Received bool   `json:"received" example:"true"`
	Message  string `json:"message,omitempty" example:"Webhook processed successfully"`
}

// HandleStripeWebhook godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Receive payment events from Stripe. Successful payment events mark the matching order as paid.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe webhook signature"
//	@Success		200					{object}	PaymentWebhookResponse	"Webhook processed"
//	@Failure		400					{object}	PaymentWebhookResponse	"Invalid request"
//	@Failure		401					{object}	PaymentWebhookResponse	"Invalid signature"
//	@Failure		413					{object}	PaymentWebhookResponse	"Payload too large"
//	@Failure		500					{object}	PaymentWebhookResponse	"Internal server error"
//	@Router			/payments/stripe/webhook [post]
func (h *PaymentWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// Stripe requires the raw body for signature verification; cap the
	// read to keep oversized payloads from tying up the server
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, PaymentWebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}

	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, PaymentWebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusUnauthorized, PaymentWebhookResponse{
			Received: false,
			Message:  "Missing Stripe-Signature header",
		})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "WEBHOOK_INVALID" {
			c.JSON(http.StatusUnauthorized, PaymentWebhookResponse{
				Received: false,
				Message:  "Webhook signature verification failed",
			})
			return
		}

		// Transient failure, e.g. the database write; a non-2xx makes
		// Stripe redeliver the event
		c.JSON(http.StatusInternalServerError, PaymentWebhookResponse{
			Received: false,
			Message:  "Webhook received but processing failed",
		})
		return
	}

	c.JSON(http.StatusOK, PaymentWebhookResponse{
		Received: true,
		Message:  "Webhook processed successfully",
	})
}
