package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// DefaultLowStockThreshold is the stock level at or below which a published
// product counts toward the low-stock gauge.
const DefaultLowStockThreshold = 5

// GormCatalogMetricsProvider implements CatalogMetricsProvider using GORM.
// It queries the products table directly for aggregated metrics.
type GormCatalogMetricsProvider struct {
	db        *gorm.DB
	threshold int
}

// NewGormCatalogMetricsProvider creates a new GormCatalogMetricsProvider.
// A threshold <= 0 falls back to DefaultLowStockThreshold.
func NewGormCatalogMetricsProvider(db *gorm.DB, lowStockThreshold int) *GormCatalogMetricsProvider {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &GormCatalogMetricsProvider{db: db, threshold: lowStockThreshold}
}

// GetLowStockCount returns the count of published products at or below the
// low-stock threshold. Draft and archived products are excluded: stock that
// is not for sale is not an operational concern.
func (p *GormCatalogMetricsProvider) GetLowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("status = ?", "published").
		Where("stock_quantity <= ?", p.threshold).
		Count(&count).Error

	return count, err
}

// GormOrderMetricsProvider implements OrderMetricsProvider using GORM.
type GormOrderMetricsProvider struct {
	db *gorm.DB
}

// NewGormOrderMetricsProvider creates a new GormOrderMetricsProvider.
func NewGormOrderMetricsProvider(db *gorm.DB) *GormOrderMetricsProvider {
	return &GormOrderMetricsProvider{db: db}
}

// GetPendingOrderCount returns the count of orders still awaiting payment.
func (p *GormOrderMetricsProvider) GetPendingOrderCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("orders").
		Where("status = ?", "pending").
		Count(&count).Error

	return count, err
}
