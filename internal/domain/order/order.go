package order

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of a customer order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

const (
	maxOrderItems     = 50
	maxItemQuantity   = 999
	maxNotesLen       = 500
	maxCancelReason   = 255
	orderNumberLayout = "20060102"
)

var orderNumberRegex = regexp.MustCompile(`^MOA-\d{8}-\d{6}$`)

// FormatOrderNumber builds an order number from the order date and the
// per-day sequence value: MOA-YYYYMMDD-XXXXXX
func FormatOrderNumber(day time.Time, sequence int64) string {
	return fmt.Sprintf("MOA-%s-%06d", day.Format(orderNumberLayout), sequence)
}

func validateOrderNumber(orderNumber string) error {
	if orderNumber == "" {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if !orderNumberRegex.MatchString(orderNumber) {
		return shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must match MOA-YYYYMMDD-XXXXXX")
	}
	return nil
}

// OrderItem represents a line item in an order. Product details are
// snapshotted at order time so later catalog changes do not affect the order.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	SellerID    uuid.UUID
	ProductName string
	ProductSKU  string
	UnitPrice   valueobject.Money
	Quantity    int
	Subtotal    valueobject.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderItem creates a new order item with a product snapshot
func NewOrderItem(orderID, productID, sellerID uuid.UUID, productName, productSKU string, unitPrice valueobject.Money, quantity int) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > maxItemQuantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity cannot exceed %d", maxItemQuantity))
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		SellerID:    sellerID,
		ProductName: productName,
		ProductSKU:  productSKU,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.MultiplyByInt(int64(quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the item quantity and recalculates the subtotal
func (i *OrderItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > maxItemQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity cannot exceed %d", maxItemQuantity))
	}

	i.Quantity = quantity
	i.Subtotal = i.UnitPrice.MultiplyByInt(int64(quantity))
	i.UpdatedAt = time.Now()

	return nil
}

// Order represents a customer order aggregate root.
// It manages the order lifecycle from checkout to delivery and keeps
// the shipping address and product prices frozen as snapshots.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	CustomerID      uuid.UUID
	Items           []OrderItem
	ItemsTotal      valueobject.Money
	ShippingFee     valueobject.Money
	GrandTotal      valueobject.Money
	ShippingAddress valueobject.Address
	Status          OrderStatus
	PaymentID       string
	Notes           string
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewOrder creates a new order in pending status
func NewOrder(orderNumber string, customerID uuid.UUID, shippingAddress valueobject.Address) (*Order, error) {
	if err := validateOrderNumber(orderNumber); err != nil {
		return nil, err
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if shippingAddress.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerID:        customerID,
		Items:             make([]OrderItem, 0),
		ItemsTotal:        valueobject.ZeroBRL(),
		ShippingFee:       valueobject.ZeroBRL(),
		GrandTotal:        valueobject.ZeroBRL(),
		ShippingAddress:   shippingAddress,
		Status:            OrderStatusPending,
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new item to the order and recomputes totals.
// Only allowed while the order is pending.
func (o *Order) AddItem(productID, sellerID uuid.UUID, productName, productSKU string, unitPrice valueobject.Money, quantity int) (*OrderItem, error) {
	if o.Status != OrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-pending order")
	}
	if len(o.Items) >= maxOrderItems {
		return nil, shared.NewDomainError("TOO_MANY_ITEMS", fmt.Sprintf("Order cannot have more than %d items", maxOrderItems))
	}

	for _, item := range o.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
		}
	}

	item, err := NewOrderItem(o.ID, productID, sellerID, productName, productSKU, unitPrice, quantity)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item.
// Only allowed while the order is pending.
func (o *Order) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-pending order")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes an item from the order.
// Only allowed while the order is pending.
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-pending order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			o.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// SetShippingFee sets the shipping fee and recomputes the grand total.
// Only allowed while the order is pending.
func (o *Order) SetShippingFee(fee valueobject.Money) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot change shipping fee of a non-pending order")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
	}
	if fee.Currency() != o.ItemsTotal.Currency() {
		return shared.NewDomainError("CURRENCY_MISMATCH", "Shipping fee currency must match order currency")
	}

	o.ShippingFee = fee
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// SetNotes sets the customer notes for the order
func (o *Order) SetNotes(notes string) error {
	if len(notes) > maxNotesLen {
		return shared.NewDomainError("INVALID_NOTES", fmt.Sprintf("Notes cannot exceed %d characters", maxNotesLen))
	}
	o.Notes = notes
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// MarkPaid marks the order as paid, recording the payment reference
func (o *Order) MarkPaid(paymentID string) error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order as paid in %s status", o.Status))
	}
	if paymentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot pay for an order without items")
	}

	now := time.Now()
	o.Status = OrderStatusPaid
	o.PaymentID = paymentID
	o.PaidAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return nil
}

// MarkShipped marks the order as shipped
func (o *Order) MarkShipped() error {
	if !o.Status.CanTransitionTo(OrderStatusShipped) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderShippedEvent(o))

	return nil
}

// MarkDelivered marks the order as delivered
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order as delivered in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderDeliveredEvent(o))

	return nil
}

// Cancel cancels the order. Allowed while pending or paid.
// Reserved stock must be released by the caller; the emitted event carries
// the items so consumers can restore quantities.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if len(reason) > maxCancelReason {
		return shared.NewDomainError("INVALID_REASON", fmt.Sprintf("Cancel reason cannot exceed %d characters", maxCancelReason))
	}

	wasPaid := o.Status == OrderStatusPaid
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o, wasPaid))

	return nil
}

// recalculateTotals recalculates the order totals from the items
func (o *Order) recalculateTotals() {
	total := valueobject.ZeroBRL()
	for _, item := range o.Items {
		total = total.MustAdd(item.Subtotal)
	}
	o.ItemsTotal = total
	o.GrandTotal = total.MustAdd(o.ShippingFee)
}

// ItemCount returns the number of line items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the sum of all item quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// IsPending returns true if the order is awaiting payment
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsPaid returns true if the order has been paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// IsShipped returns true if the order has been shipped
func (o *Order) IsShipped() bool {
	return o.Status == OrderStatusShipped
}

// IsDelivered returns true if the order has been delivered
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// IsCancelled returns true if the order has been cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// IsTerminal returns true if the order is delivered or cancelled
func (o *Order) IsTerminal() bool {
	return o.IsDelivered() || o.IsCancelled()
}

// CanModify returns true if the order items can still be changed
func (o *Order) CanModify() bool {
	return o.IsPending()
}

// IsOwnedBy returns true if the order belongs to the given customer
func (o *Order) IsOwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

// HasItemFromSeller returns true if any line item was sold by the given seller
func (o *Order) HasItemFromSeller(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// SellerIDs returns the distinct seller IDs across all line items
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.SellerID] {
			seen[item.SellerID] = true
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// GetItem returns an item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetItemByProduct returns an item by product ID
func (o *Order) GetItemByProduct(productID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}
