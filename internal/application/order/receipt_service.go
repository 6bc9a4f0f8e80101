package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptItem is one order line on the receipt
type ReceiptItem struct {
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptData carries everything the receipt document shows
type ReceiptData struct {
	OrderNumber     string
	OrderDate       time.Time
	PaidAt          time.Time
	IssuedAt        time.Time
	CustomerName    string
	CustomerEmail   string
	Items           []ReceiptItem
	ItemsTotal      decimal.Decimal
	ShippingFee     decimal.Decimal
	GrandTotal      decimal.Decimal
	Currency        string
	ShippingAddress string
	PaymentID       string
}

// ReceiptRenderer produces the receipt PDF document.
// Implemented by the infrastructure layer (headless Chrome in production).
type ReceiptRenderer interface {
	RenderOrderReceipt(ctx context.Context, data *ReceiptData) ([]byte, error)
}

// ReceiptService generates receipt PDFs for paid orders
type ReceiptService struct {
	orderRepo order.OrderRepository
	userRepo  identity.UserRepository
	renderer  ReceiptRenderer
	logger    *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	orderRepo order.OrderRepository,
	userRepo identity.UserRepository,
	renderer ReceiptRenderer,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		renderer:  renderer,
		logger:    logger,
	}
}

// GenerateReceipt renders the receipt PDF for a paid order. The receipt is
// visible to the customer who placed the order, sellers with items in it,
// and order managers.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, orderID uuid.UUID, actor Actor) (*ReceiptResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, err
	}

	if !o.IsOwnedBy(actor.UserID) && !o.HasItemFromSeller(actor.UserID) && !actor.CanManage {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}
	if o.IsPending() || o.IsCancelled() {
		return nil, shared.NewDomainError("ORDER_NOT_PAID", "Receipt is only available for paid orders")
	}

	data := s.buildReceiptData(ctx, o)

	// Rendering runs headless Chrome; label it so profiles separate the
	// renderer from request handling.
	var pdf []byte
	var renderErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("render_receipt", nil), func(c context.Context) {
		pdf, renderErr = s.renderer.RenderOrderReceipt(c, data)
	})
	if renderErr != nil {
		s.logger.Error("receipt rendering failed",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Error(renderErr))
		return nil, shared.NewDomainError("RECEIPT_RENDER_FAILED", "Failed to generate the receipt")
	}

	s.logger.Info("receipt generated",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int("bytes", len(pdf)))

	return &ReceiptResponse{
		PDF:      pdf,
		FileName: fmt.Sprintf("recibo-%s.pdf", o.OrderNumber),
	}, nil
}

// buildReceiptData maps the order aggregate to the receipt document model.
// A missing customer record downgrades to an unnamed receipt instead of
// failing: the order itself is the authoritative purchase record.
func (s *ReceiptService) buildReceiptData(ctx context.Context, o *order.Order) *ReceiptData {
	data := &ReceiptData{
		OrderNumber:     o.OrderNumber,
		OrderDate:       o.CreatedAt,
		IssuedAt:        time.Now(),
		ItemsTotal:      o.ItemsTotal.Amount(),
		ShippingFee:     o.ShippingFee.Amount(),
		GrandTotal:      o.GrandTotal.Amount(),
		Currency:        string(o.GrandTotal.Currency()),
		ShippingAddress: o.ShippingAddress.FullAddress(),
		PaymentID:       o.PaymentID,
	}
	if o.PaidAt != nil {
		data.PaidAt = *o.PaidAt
	}

	data.Items = make([]ReceiptItem, len(o.Items))
	for i, item := range o.Items {
		data.Items[i] = ReceiptItem{
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Amount(),
			Subtotal:    item.Subtotal.Amount(),
		}
	}

	customer, err := s.userRepo.FindByID(ctx, o.CustomerID)
	if err != nil {
		s.logger.Warn("receipt customer lookup failed",
			zap.String("order_id", o.ID.String()),
			zap.String("customer_id", o.CustomerID.String()),
			zap.Error(err))
		return data
	}
	data.CustomerName = customer.GetFullNameOrUsername()
	data.CustomerEmail = customer.Email

	return data
}
