package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/order"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// revenueStatuses are the order statuses counted as realized revenue
var revenueStatuses = []order.OrderStatus{
	order.OrderStatusPaid,
	order.OrderStatusShipped,
	order.OrderStatusDelivered,
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save creates or updates an order together with its items.
// Updates use optimistic locking on the aggregate version.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.OrderModel
		if err := tx.Select("version").Where("id = ?", o.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// New order, insert the row and its items
				model := models.OrderModelFromDomain(o)
				return tx.Create(model).Error
			}
			return err
		}

		// Check version matches (domain model already incremented version)
		expectedVersion := o.Version - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.OrderModelFromDomain(o)
		itemModels := model.Items

		result := tx.Model(model).
			Where("id = ? AND version = ?", o.ID, expectedVersion).
			Updates(map[string]interface{}{
				"items_total":   model.ItemsTotal,
				"shipping_fee":  model.ShippingFee,
				"grand_total":   model.GrandTotal,
				"status":        model.Status,
				"payment_id":    model.PaymentID,
				"notes":         model.Notes,
				"paid_at":       model.PaidAt,
				"shipped_at":    model.ShippedAt,
				"delivered_at":  model.DeliveredAt,
				"cancelled_at":  model.CancelledAt,
				"cancel_reason": model.CancelReason,
				"version":       model.Version,
				"updated_at":    model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		// Delete removed items, then upsert the remaining ones
		currentItemIDs := make([]uuid.UUID, len(itemModels))
		for i, item := range itemModels {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, currentItemIDs).
				Delete(&models.OrderItemModel{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", o.ID).
				Delete(&models.OrderItemModel{}).Error; err != nil {
				return err
			}
		}

		for i := range itemModels {
			itemModels[i].OrderID = o.ID
			if err := tx.Save(&itemModels[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds an order by ID with its items loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPaymentID finds an order by its payment reference
func (r *GormOrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	if paymentID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_id = ?", paymentID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds orders matching the filter with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter *order.OrderFilter) ([]*order.Order, error) {
	var orderModels []*models.OrderModel
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})

	query = r.applyFilter(query, filter)

	orderBy := "created_at"
	orderDir := "DESC"
	if filter != nil {
		orderBy = ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter != nil {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Page > 0 && filter.Limit > 0 {
			offset := (filter.Page - 1) * filter.Limit
			query = query.Offset(offset)
		}
	}

	if err := query.Preload("Items").Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = model.ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter *order.OrderFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})

	query = r.applyFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindExpiredPending finds pending orders created before the cutoff, oldest first
func (r *GormOrderRepository) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 100
	}

	var orderModels []*models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", order.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, len(orderModels))
	for i, model := range orderModels {
		orders[i] = model.ToDomain()
	}
	return orders, nil
}

// StatusCounts returns the number of orders per status
func (r *GormOrderRepository) StatusCounts(ctx context.Context) (map[order.OrderStatus]int64, error) {
	type statusResult struct {
		Status string
		Count  int64
	}

	var results []statusResult

	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[order.OrderStatus]int64, len(results))
	for _, result := range results {
		counts[order.OrderStatus(result.Status)] = result.Count
	}
	return counts, nil
}

// RevenueTotal sums the grand total of paid, shipped and delivered orders
// within the optional date range
func (r *GormOrderRepository) RevenueTotal(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal

	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("COALESCE(SUM(grand_total), 0)").
		Where("status IN ?", revenueStatuses)

	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}

	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// NextOrderSequence returns the next sequence value for the given day.
// The counter row is upserted atomically so concurrent order creation
// never hands out the same number twice.
func (r *GormOrderRepository) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	seq := models.OrderSequenceModel{
		Day:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Value: 1,
	}

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "day"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"value": gorm.Expr("order_sequences.value + 1"),
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "value"}}},
		).
		Create(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter *order.OrderFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	// Match orders containing at least one item sold by the seller
	if filter.SellerID != nil {
		query = query.Where(
			"EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.seller_id = ?)",
			*filter.SellerID,
		)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}

	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
