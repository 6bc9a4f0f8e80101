package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter *identity.UserFilter) ([]*identity.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter *identity.UserFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SaveRoles(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) LoadRoles(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).(int64), args.Error(1)
}

type MockReceiptRenderer struct {
	mock.Mock
}

func (m *MockReceiptRenderer) RenderOrderReceipt(ctx context.Context, data *ReceiptData) ([]byte, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newReceiptCustomer(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewActiveUser("maria", "maria@example.com.br", "SenhaForte123")
	require.NoError(t, err)
	require.NoError(t, u.UpdateProfile("Maria da Silva", "", ""))
	return u
}

func TestReceiptService_GenerateReceipt(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	sellerID := uuid.New()
	o := newPaidOrder(t, customerID, sellerID)

	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	renderer := new(MockReceiptRenderer)
	svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	userRepo.On("FindByID", ctx, customerID).Return(newReceiptCustomer(t), nil)
	renderer.On("RenderOrderReceipt", ctx, mock.MatchedBy(func(data *ReceiptData) bool {
		return data.OrderNumber == o.OrderNumber &&
			data.CustomerName == "Maria da Silva" &&
			data.CustomerEmail == "maria@example.com.br" &&
			len(data.Items) == 1 &&
			data.Items[0].ProductName == "Cesto de fibra de buriti" &&
			data.Items[0].Quantity == 2 &&
			data.GrandTotal.Equal(o.GrandTotal.Amount()) &&
			data.Currency == "BRL" &&
			data.PaymentID == "pi_test_123" &&
			!data.PaidAt.IsZero() &&
			strings.Contains(data.ShippingAddress, "Rua Augusta")
	})).Return([]byte("%PDF-1.4 receipt"), nil)

	resp, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 receipt"), resp.PDF)
	assert.Equal(t, "recibo-"+o.OrderNumber+".pdf", resp.FileName)
	renderer.AssertExpectations(t)
}

func TestReceiptService_GenerateReceipt_AccessControl(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	sellerID := uuid.New()

	t.Run("seller with item in order", func(t *testing.T) {
		o := newPaidOrder(t, customerID, sellerID)
		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		userRepo.On("FindByID", ctx, customerID).Return(newReceiptCustomer(t), nil)
		renderer.On("RenderOrderReceipt", ctx, mock.Anything).Return([]byte("%PDF"), nil)

		resp, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: sellerID})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.PDF)
	})

	t.Run("manager", func(t *testing.T) {
		o := newPaidOrder(t, customerID, sellerID)
		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		userRepo.On("FindByID", ctx, customerID).Return(newReceiptCustomer(t), nil)
		renderer.On("RenderOrderReceipt", ctx, mock.Anything).Return([]byte("%PDF"), nil)

		_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: uuid.New(), CanManage: true})

		require.NoError(t, err)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		o := newPaidOrder(t, customerID, sellerID)
		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: uuid.New()})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ORDER_NOT_FOUND", domainErr.Code)
		renderer.AssertNotCalled(t, "RenderOrderReceipt", mock.Anything, mock.Anything)
	})
}

func TestReceiptService_GenerateReceipt_NotPaid(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	sellerID := uuid.New()

	t.Run("pending order", func(t *testing.T) {
		o := newPendingOrder(t, customerID, sellerID)
		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ORDER_NOT_PAID", domainErr.Code)
		renderer.AssertNotCalled(t, "RenderOrderReceipt", mock.Anything, mock.Anything)
	})

	t.Run("cancelled order", func(t *testing.T) {
		o := newPendingOrder(t, customerID, sellerID)
		require.NoError(t, o.Cancel("Desisti da compra"))
		o.ClearDomainEvents()

		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ORDER_NOT_PAID", domainErr.Code)
	})

	t.Run("delivered order still gets a receipt", func(t *testing.T) {
		o := newPaidOrder(t, customerID, sellerID)
		require.NoError(t, o.MarkShipped())
		require.NoError(t, o.MarkDelivered())
		o.ClearDomainEvents()

		orderRepo := new(MockOrderRepository)
		userRepo := new(MockUserRepository)
		renderer := new(MockReceiptRenderer)
		svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		userRepo.On("FindByID", ctx, customerID).Return(newReceiptCustomer(t), nil)
		renderer.On("RenderOrderReceipt", ctx, mock.Anything).Return([]byte("%PDF"), nil)

		_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

		require.NoError(t, err)
	})
}

func TestReceiptService_GenerateReceipt_OrderNotFound(t *testing.T) {
	ctx := context.Background()
	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	renderer := new(MockReceiptRenderer)
	svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

	orderID := uuid.New()
	orderRepo.On("FindByID", ctx, orderID).Return(nil, shared.ErrNotFound)

	_, err := svc.GenerateReceipt(ctx, orderID, Actor{UserID: uuid.New()})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ORDER_NOT_FOUND", domainErr.Code)
}

func TestReceiptService_GenerateReceipt_MissingCustomerStillRenders(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	o := newPaidOrder(t, customerID, uuid.New())

	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	renderer := new(MockReceiptRenderer)
	svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	userRepo.On("FindByID", ctx, customerID).Return(nil, shared.ErrNotFound)
	renderer.On("RenderOrderReceipt", ctx, mock.MatchedBy(func(data *ReceiptData) bool {
		return data.CustomerName == "" && data.OrderNumber == o.OrderNumber
	})).Return([]byte("%PDF"), nil)

	resp, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.PDF)
	renderer.AssertExpectations(t)
}

func TestReceiptService_GenerateReceipt_RendererFailure(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	o := newPaidOrder(t, customerID, uuid.New())

	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	renderer := new(MockReceiptRenderer)
	svc := NewReceiptService(orderRepo, userRepo, renderer, nil)

	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	userRepo.On("FindByID", ctx, customerID).Return(newReceiptCustomer(t), nil)
	renderer.On("RenderOrderReceipt", ctx, mock.Anything).Return(nil, errors.New("chrome crashed"))

	_, err := svc.GenerateReceipt(ctx, o.ID, Actor{UserID: customerID})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "RECEIPT_RENDER_FAILED", domainErr.Code)
}
