package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WebhookEvent), args.Error(1)
}

func (m *MockPaymentGateway) Provider() string {
	return "stripe"
}

func TestPaymentService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	customerID := uuid.New()

	o := newPendingOrder(t, customerID, uuid.New())
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	expectedKey := fmt.Sprintf("order-%s-%d", o.ID, o.Version)
	gateway.On("CreateIntent", ctx, mock.MatchedBy(func(in CreateIntentInput) bool {
		return in.AmountCents == 24000 &&
			in.Currency == "brl" &&
			in.OrderID == o.ID &&
			in.OrderNumber == o.OrderNumber &&
			in.IdempotencyKey == expectedKey
	})).Return(&PaymentIntent{
		ID:           "pi_test_123",
		ClientSecret: "pi_test_123_secret_xyz",
		Status:       "requires_payment_method",
	}, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	result, err := svc.CreatePaymentIntent(ctx, o.ID, Actor{UserID: customerID})

	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", result.PaymentIntentID)
	assert.Equal(t, "pi_test_123_secret_xyz", result.ClientSecret)
	assert.Equal(t, int64(24000), result.AmountCents)
	assert.Equal(t, "brl", result.Currency)
	assert.Equal(t, "requires_payment_method", result.Status)
	gateway.AssertExpectations(t)
}

func TestPaymentService_CreatePaymentIntent_AccessControl(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("stranger gets not found", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		o := newPendingOrder(t, customerID, uuid.New())
		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		svc := NewPaymentService(orderRepo, gateway, nil)

		result, err := svc.CreatePaymentIntent(ctx, o.ID, Actor{UserID: uuid.New()})

		require.Error(t, err)
		assert.Nil(t, result)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ORDER_NOT_FOUND", domainErr.Code)
		gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	})

	t.Run("manager may start payment", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockPaymentGateway)
		o := newPendingOrder(t, customerID, uuid.New())
		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		gateway.On("CreateIntent", ctx, mock.Anything).Return(&PaymentIntent{
			ID:           "pi_test_456",
			ClientSecret: "secret",
			Status:       "requires_payment_method",
		}, nil)

		svc := NewPaymentService(orderRepo, gateway, nil)

		result, err := svc.CreatePaymentIntent(ctx, o.ID, Actor{UserID: uuid.New(), CanManage: true})

		require.NoError(t, err)
		assert.Equal(t, "pi_test_456", result.PaymentIntentID)
	})
}

func TestPaymentService_CreatePaymentIntent_NotPending(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	customerID := uuid.New()

	o := newPaidOrder(t, customerID, uuid.New())
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	result, err := svc.CreatePaymentIntent(ctx, o.ID, Actor{UserID: customerID})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ORDER_NOT_PENDING", domainErr.Code)
	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestPaymentService_CreatePaymentIntent_NoItems(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	customerID := uuid.New()

	empty := newPendingOrder(t, customerID, uuid.New())
	require.NoError(t, empty.RemoveItem(empty.Items[0].ID))
	orderRepo.On("FindByID", ctx, empty.ID).Return(empty, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	result, err := svc.CreatePaymentIntent(ctx, empty.ID, Actor{UserID: customerID})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NO_ITEMS", domainErr.Code)
}

func TestPaymentService_CreatePaymentIntent_GatewayError(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	customerID := uuid.New()

	o := newPendingOrder(t, customerID, uuid.New())
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	gateway.On("CreateIntent", ctx, mock.Anything).Return(nil, errors.New("stripe: connection refused"))

	svc := NewPaymentService(orderRepo, gateway, nil)

	result, err := svc.CreatePaymentIntent(ctx, o.ID, Actor{UserID: customerID})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PAYMENT_GATEWAY_ERROR", domainErr.Code)
}

func TestPaymentService_HandleWebhook_InvalidSignature(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	gateway.On("ParseWebhook", payload, "bad-signature").Return(nil, errors.New("signature mismatch"))

	svc := NewPaymentService(orderRepo, gateway, nil)

	err := svc.HandleWebhook(ctx, payload, "bad-signature")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "WEBHOOK_INVALID", domainErr.Code)
	orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_PaymentSucceeded(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	o := newPendingOrder(t, uuid.New(), uuid.New())
	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:      WebhookPaymentSucceeded,
		PaymentID: "pi_test_123",
		OrderID:   o.ID,
	}, nil)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("Save", ctx, o).Return(nil)

	publisher := &capturingPublisher{}
	svc := NewPaymentService(orderRepo, gateway, nil)
	svc.SetEventPublisher(publisher)

	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusPaid, o.Status)
	assert.Equal(t, "pi_test_123", o.PaymentID)
	assert.NotNil(t, o.PaidAt)
	assert.Equal(t, []string{order.EventTypeOrderPaid}, publisher.eventTypes())
	orderRepo.AssertExpectations(t)
}

func TestPaymentService_HandleWebhook_RedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	o := newPaidOrder(t, uuid.New(), uuid.New())
	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:      WebhookPaymentSucceeded,
		PaymentID: "pi_test_123",
		OrderID:   o.ID,
	}, nil)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_UnknownOrderAcknowledged(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	orderID := uuid.New()
	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:      WebhookPaymentSucceeded,
		PaymentID: "pi_test_123",
		OrderID:   orderID,
	}, nil)
	orderRepo.On("FindByID", ctx, orderID).Return(nil, shared.ErrNotFound)

	svc := NewPaymentService(orderRepo, gateway, nil)

	// Acknowledge so the provider stops retrying; flagged for follow-up in logs
	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_CancelledOrderAcknowledged(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	o := newPendingOrder(t, uuid.New(), uuid.New())
	require.NoError(t, o.Cancel("Pedido expirado"))
	o.ClearDomainEvents()

	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:      WebhookPaymentSucceeded,
		PaymentID: "pi_test_123",
		OrderID:   o.ID,
	}, nil)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, o.Status)
	orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_SaveErrorPropagates(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	o := newPendingOrder(t, uuid.New(), uuid.New())
	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:      WebhookPaymentSucceeded,
		PaymentID: "pi_test_123",
		OrderID:   o.ID,
	}, nil)
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	orderRepo.On("Save", ctx, o).Return(errors.New("connection reset"))

	svc := NewPaymentService(orderRepo, gateway, nil)

	// The provider retries the delivery after an error response
	err := svc.HandleWebhook(ctx, payload, "sig")

	require.Error(t, err)
}

func TestPaymentService_HandleWebhook_PaymentFailed(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{
		Type:          WebhookPaymentFailed,
		PaymentID:     "pi_test_123",
		OrderID:       uuid.New(),
		FailureReason: "card_declined",
	}, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	// Failures keep the order pending; the customer can retry the payment
	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_IgnoredEvent(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)

	payload := []byte(`{}`)
	gateway.On("ParseWebhook", payload, "sig").Return(&WebhookEvent{Type: WebhookIgnored}, nil)

	svc := NewPaymentService(orderRepo, gateway, nil)

	err := svc.HandleWebhook(ctx, payload, "sig")

	require.NoError(t, err)
	orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
