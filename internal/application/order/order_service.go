package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Actor identifies the authenticated user performing an order operation.
// CanManage is true for users holding order management permissions.
type Actor struct {
	UserID    uuid.UUID
	CanManage bool
}

// IdempotencyStore remembers which order was created for a client-provided
// Idempotency-Key so that retried checkouts return the original order.
// Implemented by the infrastructure layer (Redis in production).
type IdempotencyStore interface {
	// Lookup returns the order ID stored under the key, if any
	Lookup(ctx context.Context, key string) (uuid.UUID, bool, error)

	// Remember stores the order ID under the key with a TTL
	Remember(ctx context.Context, key string, orderID uuid.UUID, ttl time.Duration) error
}

// OrderServiceConfig holds configuration for the order service
type OrderServiceConfig struct {
	// ShippingFee is the flat shipping fee applied to orders
	ShippingFee decimal.Decimal

	// FreeShippingThreshold waives the shipping fee for orders whose
	// items total reaches it. Zero disables free shipping.
	FreeShippingThreshold decimal.Decimal

	// IdempotencyTTL is how long checkout idempotency keys are retained
	IdempotencyTTL time.Duration
}

// DefaultOrderServiceConfig returns the default order service configuration
func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{
		ShippingFee:           decimal.NewFromFloat(25.00),
		FreeShippingThreshold: decimal.NewFromFloat(300.00),
		IdempotencyTTL:        24 * time.Hour,
	}
}

// OrderService handles order lifecycle operations
type OrderService struct {
	orderRepo       order.OrderRepository
	productRepo     catalog.ProductRepository
	idempotency     IdempotencyStore
	config          OrderServiceConfig
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	productRepo catalog.ProductRepository,
	idempotency IdempotencyStore,
	config OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		idempotency: idempotency,
		config:      config,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *OrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create places a new order for the customer. Product names, SKUs and
// prices are snapshotted and stock is reserved before the order is saved.
// When idempotencyKey is set, retries return the originally created order.
func (s *OrderService) Create(ctx context.Context, customerID uuid.UUID, idempotencyKey string, req CreateOrderRequest) (*OrderResponse, error) {
	if existing := s.replayedOrder(ctx, idempotencyKey); existing != nil {
		return existing, nil
	}

	address, err := req.ShippingAddress.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	products, err := s.loadProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sequence, err := s.orderRepo.NextOrderSequence(ctx, now)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(order.FormatOrderNumber(now, sequence), customerID, address)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		product := products[item.ProductID]
		if _, err := o.AddItem(product.ID, product.SellerID, product.Name, product.SKU, product.Price, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := o.SetShippingFee(s.shippingFee(o.ItemsTotal)); err != nil {
		return nil, err
	}
	if req.Notes != "" {
		if err := o.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	reserved, err := s.reserveStock(ctx, products, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.releaseStock(ctx, reserved)
		return nil, err
	}

	s.rememberOrder(ctx, idempotencyKey, o.ID)
	s.publishEvents(ctx, o)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderWithAmount(ctx, o.GrandTotal.Amount())
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("customer_id", customerID.String()),
		zap.String("grand_total", o.GrandTotal.String()))

	response := ToOrderResponse(o)
	return &response, nil
}

// Get retrieves an order visible to the actor: the customer who placed it,
// a seller with items in it, or a user with order management permissions
func (s *OrderService) Get(ctx context.Context, id uuid.UUID, actor Actor) (*OrderResponse, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.IsOwnedBy(actor.UserID) && !o.HasItemFromSeller(actor.UserID) && !actor.CanManage {
		return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders matching the filter. Customers see their own
// orders, sellers can list orders containing their items, and managers
// see everything.
func (s *OrderService) List(ctx context.Context, filter OrderListFilter, actor Actor) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := &order.OrderFilter{
		CustomerID:  filter.CustomerID,
		SellerID:    filter.SellerID,
		CreatedFrom: filter.StartDate,
		CreatedTo:   filter.EndDate,
		OrderBy:     filter.SortBy,
		OrderDir:    filter.SortDir,
		Page:        filter.Page,
		Limit:       filter.PageSize,
	}

	if filter.Status != "" {
		status := order.OrderStatus(filter.Status)
		domainFilter.Status = &status
	}

	if !actor.CanManage {
		sellerView := filter.SellerID != nil && *filter.SellerID == actor.UserID
		if !sellerView {
			domainFilter.CustomerID = &actor.UserID
			domainFilter.SellerID = nil
		}
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// Cancel cancels an order and releases its reserved stock. Customers may
// cancel their own pending orders; managers may also cancel paid orders.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, actor Actor, reason string) (*OrderResponse, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.IsOwnedBy(actor.UserID) && !actor.CanManage {
		return nil, shared.NewDomainError("ORDER_ACCESS_DENIED", "You cannot cancel this order")
	}
	if !actor.CanManage && !o.IsPending() {
		return nil, shared.NewDomainError("ORDER_NOT_PENDING", "Only pending orders can be cancelled")
	}

	if err := o.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release stock for cancelled order",
				zap.String("order_id", o.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	s.publishEvents(ctx, o)

	s.logger.Info("order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("reason", reason))

	response := ToOrderResponse(o)
	return &response, nil
}

// MarkShipped marks a paid order as shipped. Allowed for sellers with
// items in the order and for managers.
func (s *OrderService) MarkShipped(ctx context.Context, id uuid.UUID, actor Actor) (*OrderResponse, error) {
	return s.transition(ctx, id, actor, func(o *order.Order) error {
		return o.MarkShipped()
	})
}

// MarkDelivered marks a shipped order as delivered. Allowed for sellers
// with items in the order and for managers.
func (s *OrderService) MarkDelivered(ctx context.Context, id uuid.UUID, actor Actor) (*OrderResponse, error) {
	return s.transition(ctx, id, actor, func(o *order.Order) error {
		return o.MarkDelivered()
	})
}

// Stats returns order counts per status and the revenue total over the
// optional date range
func (s *OrderService) Stats(ctx context.Context, from, to *time.Time) (*OrderStatsResponse, error) {
	counts, err := s.orderRepo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.orderRepo.RevenueTotal(ctx, from, to)
	if err != nil {
		return nil, err
	}

	statusCounts := make(map[string]int64, len(counts))
	var total int64
	for status, count := range counts {
		statusCounts[status.String()] = count
		total += count
	}

	return &OrderStatsResponse{
		StatusCounts: statusCounts,
		TotalOrders:  total,
		Revenue:      revenue,
		Currency:     string(valueobject.DefaultCurrency),
	}, nil
}

// ExpirePending cancels pending orders older than the TTL and releases
// their stock. It is called by the order expiry scheduler and returns the
// number of orders cancelled.
func (s *OrderService) ExpirePending(ctx context.Context, ttl time.Duration, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	cutoff := time.Now().Add(-ttl)
	expired, err := s.orderRepo.FindExpiredPending(ctx, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, o := range expired {
		if err := o.Cancel("Payment not received in time"); err != nil {
			s.logger.Warn("failed to cancel expired order",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.orderRepo.Save(ctx, o); err != nil {
			s.logger.Error("failed to save expired order",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
			continue
		}
		for _, item := range o.Items {
			if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
				s.logger.Error("failed to release stock for expired order",
					zap.String("order_id", o.ID.String()),
					zap.String("product_id", item.ProductID.String()),
					zap.Error(err))
			}
		}
		s.publishEvents(ctx, o)
		cancelled++
	}

	if cancelled > 0 {
		s.logger.Info("expired pending orders cancelled", zap.Int("count", cancelled))
	}
	return cancelled, nil
}

// replayedOrder returns the order previously created under the idempotency
// key, or nil when the key is new or lookups are unavailable
func (s *OrderService) replayedOrder(ctx context.Context, idempotencyKey string) *OrderResponse {
	if idempotencyKey == "" || s.idempotency == nil {
		return nil
	}

	orderID, found, err := s.idempotency.Lookup(ctx, idempotencyKey)
	if err != nil {
		s.logger.Warn("idempotency lookup failed", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		s.logger.Warn("idempotency key points to a missing order",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return nil
	}

	response := ToOrderResponse(o)
	return &response
}

func (s *OrderService) rememberOrder(ctx context.Context, idempotencyKey string, orderID uuid.UUID) {
	if idempotencyKey == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Remember(ctx, idempotencyKey, orderID, s.config.IdempotencyTTL); err != nil {
		s.logger.Warn("failed to store idempotency key",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// loadProducts loads the requested products and validates that each one
// is published and has enough stock
func (s *OrderService) loadProducts(ctx context.Context, items []OrderItemInput) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}

	for _, item := range items {
		product, ok := index[item.ProductID]
		if !ok {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND",
				fmt.Sprintf("Product %s not found", item.ProductID))
		}
		if !product.IsPublished() {
			return nil, shared.NewDomainError("PRODUCT_NOT_AVAILABLE",
				fmt.Sprintf("Product %q is not available for purchase", product.Name))
		}
		if !product.InStock(item.Quantity) {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Not enough stock for %q", product.Name))
		}
	}

	return index, nil
}

// reserveStock reserves stock for every line item. On failure the
// reservations made so far are rolled back.
func (s *OrderService) reserveStock(ctx context.Context, products map[uuid.UUID]*catalog.Product, items []OrderItemInput) ([]OrderItemInput, error) {
	reserved := make([]OrderItemInput, 0, len(items))
	for _, item := range items {
		if err := s.productRepo.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseStock(ctx, reserved)
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Not enough stock for %q", products[item.ProductID].Name))
			}
			return nil, err
		}
		reserved = append(reserved, item)
	}
	return reserved, nil
}

func (s *OrderService) releaseStock(ctx context.Context, items []OrderItemInput) {
	for _, item := range items {
		if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("failed to release reserved stock",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (s *OrderService) shippingFee(itemsTotal valueobject.Money) valueobject.Money {
	if s.config.FreeShippingThreshold.IsPositive() &&
		itemsTotal.Amount().GreaterThanOrEqual(s.config.FreeShippingThreshold) {
		return valueobject.ZeroBRL()
	}
	return valueobject.NewMoneyBRL(s.config.ShippingFee)
}

// transition applies a seller/manager state change and saves the order
func (s *OrderService) transition(ctx context.Context, id uuid.UUID, actor Actor, fn func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.HasItemFromSeller(actor.UserID) && !actor.CanManage {
		return nil, shared.NewDomainError("ORDER_ACCESS_DENIED", "You cannot update this order")
	}

	if err := fn(o); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

func (s *OrderService) findOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, err
	}
	return o, nil
}

func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		o.ClearDomainEvents()
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish order event",
				zap.String("event_type", event.EventType()),
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
		}
	}
	o.ClearDomainEvents()
}
