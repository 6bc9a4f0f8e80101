package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFilter defines the filtering options for order queries
type OrderFilter struct {
	CustomerID  *uuid.UUID
	SellerID    *uuid.UUID
	Status      *OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OrderBy     string // Whitelisted column
	OrderDir    string // asc or desc
	Page        int
	Limit       int
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Save creates or updates an order together with its items.
	// Updates use optimistic locking on the aggregate version.
	Save(ctx context.Context, o *Order) error

	// FindByID finds an order by ID with its items loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByPaymentID finds an order by its payment reference
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)

	// FindAll finds orders matching the filter with pagination.
	// The SellerID filter matches orders containing at least one
	// item sold by that seller.
	FindAll(ctx context.Context, filter *OrderFilter) ([]*Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter *OrderFilter) (int64, error)

	// FindExpiredPending finds pending orders created before the cutoff,
	// oldest first, up to limit
	FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error)

	// StatusCounts returns the number of orders per status
	StatusCounts(ctx context.Context) (map[OrderStatus]int64, error)

	// RevenueTotal sums the grand total of paid, shipped and delivered
	// orders within the optional date range
	RevenueTotal(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)

	// NextOrderSequence returns the next sequence value for the given day,
	// used to build order numbers. The sequence restarts each day.
	NextOrderSequence(ctx context.Context, day time.Time) (int64, error)
}
