package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
// All money columns share the order's Currency.
type OrderModel struct {
	AggregateModel
	OrderNumber  string            `gorm:"type:varchar(30);not null;uniqueIndex:idx_orders_number"`
	CustomerID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Items        []OrderItemModel  `gorm:"foreignKey:OrderID;references:ID"`
	ItemsTotal   decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingFee  decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	GrandTotal   decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0"`
	Currency     string            `gorm:"type:varchar(3);not null;default:'BRL'"`
	Status       order.OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentID    string            `gorm:"type:varchar(255);index"`
	Notes        string            `gorm:"type:varchar(500)"`
	PaidAt       *time.Time        `gorm:"index"`
	ShippedAt    *time.Time        `gorm:"index"`
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string            `gorm:"type:varchar(255)"`

	// Shipping address snapshot
	ShippingStreet     string `gorm:"type:varchar(200);not null"`
	ShippingNumber     string `gorm:"type:varchar(20);not null"`
	ShippingComplement string `gorm:"type:varchar(100)"`
	ShippingDistrict   string `gorm:"type:varchar(100);not null"`
	ShippingCity       string `gorm:"type:varchar(100);not null"`
	ShippingState      string `gorm:"type:varchar(2);not null"`
	ShippingPostalCode string `gorm:"type:varchar(9);not null"`
	ShippingCountry    string `gorm:"type:varchar(60);not null;default:'Brasil'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// shippingAddress rebuilds the Address value object from the snapshot columns.
func (m *OrderModel) shippingAddress() valueobject.Address {
	addr, _ := valueobject.NewAddressFull(
		m.ShippingStreet, m.ShippingNumber, m.ShippingComplement, m.ShippingDistrict,
		m.ShippingCity, m.ShippingState, m.ShippingPostalCode, m.ShippingCountry,
	)
	return addr
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		OrderNumber:     m.OrderNumber,
		CustomerID:      m.CustomerID,
		ItemsTotal:      moneyFromColumns(m.ItemsTotal, m.Currency),
		ShippingFee:     moneyFromColumns(m.ShippingFee, m.Currency),
		GrandTotal:      moneyFromColumns(m.GrandTotal, m.Currency),
		ShippingAddress: m.shippingAddress(),
		Status:          m.Status,
		PaymentID:       m.PaymentID,
		Notes:           m.Notes,
		PaidAt:          m.PaidAt,
		ShippedAt:       m.ShippedAt,
		DeliveredAt:     m.DeliveredAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
		Items:           make([]order.OrderItem, len(m.Items)),
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)
	for i, item := range m.Items {
		o.Items[i] = *item.ToDomain(m.Currency)
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.ItemsTotal = o.ItemsTotal.Amount()
	m.ShippingFee = o.ShippingFee.Amount()
	m.GrandTotal = o.GrandTotal.Amount()
	m.Currency = string(o.GrandTotal.Currency())
	m.Status = o.Status
	m.PaymentID = o.PaymentID
	m.Notes = o.Notes
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason

	m.ShippingStreet = o.ShippingAddress.Street()
	m.ShippingNumber = o.ShippingAddress.Number()
	m.ShippingComplement = o.ShippingAddress.Complement()
	m.ShippingDistrict = o.ShippingAddress.District()
	m.ShippingCity = o.ShippingAddress.City()
	m.ShippingState = o.ShippingAddress.State()
	m.ShippingPostalCode = o.ShippingAddress.PostalCode().String()
	m.ShippingCountry = o.ShippingAddress.Country()

	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the OrderItem entity.
// SellerID is denormalized so per-seller order queries avoid a product join.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductSKU  string          `gorm:"type:varchar(20);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem entity.
// The currency comes from the parent order row.
func (m *OrderItemModel) ToDomain(currency string) *order.OrderItem {
	return &order.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		SellerID:    m.SellerID,
		ProductName: m.ProductName,
		ProductSKU:  m.ProductSKU,
		UnitPrice:   moneyFromColumns(m.UnitPrice, currency),
		Quantity:    m.Quantity,
		Subtotal:    moneyFromColumns(m.Subtotal, currency),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderItem entity.
func (m *OrderItemModel) FromDomain(i *order.OrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.ProductID = i.ProductID
	m.SellerID = i.SellerID
	m.ProductName = i.ProductName
	m.ProductSKU = i.ProductSKU
	m.UnitPrice = i.UnitPrice.Amount()
	m.Quantity = i.Quantity
	m.Subtotal = i.Subtotal.Amount()
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem entity.
func OrderItemModelFromDomain(i *order.OrderItem) *OrderItemModel {
	m := &OrderItemModel{}
	m.FromDomain(i)
	return m
}

// OrderSequenceModel tracks the per-day order number sequence.
// One row per day; the counter restarts each day.
type OrderSequenceModel struct {
	Day   time.Time `gorm:"type:date;primaryKey"`
	Value int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderSequenceModel) TableName() string {
	return "order_sequences"
}
