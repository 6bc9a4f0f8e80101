package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	orderapp "github.com/moa/backend/internal/application/order"
	"github.com/moa/backend/internal/domain/order"
)

func newWebhookRouter(orderRepo *MockOrderRepository, gateway *MockPaymentGateway) *gin.Engine {
	handler := NewPaymentWebhookHandler(orderapp.NewPaymentService(orderRepo, gateway, nil))
	router := gin.New()
	router.POST("/payments/stripe/webhook", handler.HandleStripeWebhook)
	return router
}

func TestPaymentWebhookHandler_HandleStripeWebhook(t *testing.T) {
	t.Run("should mark the order paid on a verified payment event", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		o := newPendingOrder(t, uuid.New(), uuid.New())
		payload := []byte(`{"id": "evt_1NirvAna", "type": "payment_intent.succeeded"}`)
		gateway.On("ParseWebhook", payload, "t=1692,v1=valid").Return(&orderapp.WebhookEvent{
			Type:      orderapp.WebhookPaymentSucceeded,
			PaymentID: "pi_test_123",
			OrderID:   o.ID,
		}, nil)
		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		orderRepo.On("Save", mock.Anything, o).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1692,v1=valid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["received"].(bool))

		assert.Equal(t, order.OrderStatusPaid, o.Status)
		assert.Equal(t, "pi_test_123", o.PaymentID)
		orderRepo.AssertExpectations(t)
	})

	t.Run("should reject a missing signature header", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response["received"].(bool))

		gateway.AssertNotCalled(t, "ParseWebhook", mock.Anything, mock.Anything)
	})

	t.Run("should reject an invalid signature", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		payload := []byte(`{"type": "payment_intent.succeeded"}`)
		gateway.On("ParseWebhook", payload, "t=1692,v1=forged").Return(nil, errors.New("signature mismatch"))

		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1692,v1=forged")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response["received"].(bool))
		assert.Equal(t, "Webhook signature verification failed", response["message"])

		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("should return an error response when processing fails so Stripe redelivers", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		o := newPendingOrder(t, uuid.New(), uuid.New())
		payload := []byte(`{"type": "payment_intent.succeeded"}`)
		gateway.On("ParseWebhook", payload, "t=1692,v1=valid").Return(&orderapp.WebhookEvent{
			Type:      orderapp.WebhookPaymentSucceeded,
			PaymentID: "pi_test_123",
			OrderID:   o.ID,
		}, nil)
		orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		orderRepo.On("Save", mock.Anything, o).Return(errors.New("connection reset"))

		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1692,v1=valid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response["received"].(bool))
	})

	t.Run("should acknowledge failed payments without touching the order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		payload := []byte(`{"type": "payment_intent.payment_failed"}`)
		gateway.On("ParseWebhook", payload, "t=1692,v1=valid").Return(&orderapp.WebhookEvent{
			Type:          orderapp.WebhookPaymentFailed,
			PaymentID:     "pi_test_123",
			OrderID:       uuid.New(),
			FailureReason: "card_declined",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1692,v1=valid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("should reject an oversized payload", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		router := newWebhookRouter(orderRepo, gateway)

		payload := bytes.Repeat([]byte("a"), maxWebhookPayloadSize+1)
		req := httptest.NewRequest(http.MethodPost, "/payments/stripe/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1692,v1=valid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		gateway.AssertNotCalled(t, "ParseWebhook", mock.Anything, mock.Anything)
	})
}
