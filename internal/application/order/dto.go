package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderItemInput is a single line in a checkout request
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items           []OrderItemInput       `json:"items" binding:"required,min=1,max=50,dive"`
	ShippingAddress valueobject.AddressDTO `json:"shipping_address" binding:"required"`
	Notes           string                 `json:"notes" binding:"omitempty,max=500"`
}

// CancelOrderRequest carries the reason for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// OrderItemResponse represents a line item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents a full order in API responses
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	CustomerID      uuid.UUID              `json:"customer_id"`
	Status          string                 `json:"status"`
	Items           []OrderItemResponse    `json:"items"`
	ItemsTotal      decimal.Decimal        `json:"items_total"`
	ShippingFee     decimal.Decimal        `json:"shipping_fee"`
	GrandTotal      decimal.Decimal        `json:"grand_total"`
	Currency        string                 `json:"currency"`
	ShippingAddress valueobject.AddressDTO `json:"shipping_address"`
	PaymentID       string                 `json:"payment_id,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// OrderListItemResponse represents an order in list responses.
// Line items are summarized instead of embedded.
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Status        string          `json:"status"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderListFilter represents filtering options for order list queries
type OrderListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	SellerID   *uuid.UUID `form:"seller_id"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled"`
	StartDate  *time.Time `form:"start_date"`
	EndDate    *time.Time `form:"end_date"`
	SortBy     string     `form:"sort_by"`
	SortDir    string     `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderStatsResponse summarizes order volume and revenue
type OrderStatsResponse struct {
	StatusCounts map[string]int64 `json:"status_counts"`
	TotalOrders  int64            `json:"total_orders"`
	Revenue      decimal.Decimal  `json:"revenue"`
	Currency     string           `json:"currency"`
}

// PaymentIntentResponse carries the client secret for Stripe checkout
type PaymentIntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
}

// ReceiptResponse carries the rendered receipt PDF and its download name
type ReceiptResponse struct {
	PDF      []byte
	FileName string
}

// ToOrderItemResponse converts a domain order item to a response DTO
func ToOrderItemResponse(item order.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		SellerID:    item.SellerID,
		ProductName: item.ProductName,
		ProductSKU:  item.ProductSKU,
		UnitPrice:   item.UnitPrice.Amount(),
		Quantity:    item.Quantity,
		Subtotal:    item.Subtotal.Amount(),
	}
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ToOrderItemResponse(item)
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          o.Status.String(),
		Items:           items,
		ItemsTotal:      o.ItemsTotal.Amount(),
		ShippingFee:     o.ShippingFee.Amount(),
		GrandTotal:      o.GrandTotal.Amount(),
		Currency:        string(o.GrandTotal.Currency()),
		ShippingAddress: o.ShippingAddress.ToDTO(),
		PaymentID:       o.PaymentID,
		Notes:           o.Notes,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderListItemResponse converts a domain order to a list item DTO
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status.String(),
		ItemCount:     o.ItemCount(),
		TotalQuantity: o.TotalQuantity(),
		GrandTotal:    o.GrandTotal.Amount(),
		Currency:      string(o.GrandTotal.Currency()),
		CreatedAt:     o.CreatedAt,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list item DTOs
func ToOrderListItemResponses(orders []*order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i, o := range orders {
		responses[i] = ToOrderListItemResponse(o)
	}
	return responses
}
