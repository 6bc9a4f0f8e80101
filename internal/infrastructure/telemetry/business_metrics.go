package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the marketplace.
// It tracks checkout activity, payment outcomes, and catalog stock health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderCreatedTotal     *Counter
	orderAmountTotal      *Counter
	orderExpiredTotal     *Counter
	paymentTotal          *Counter
	productPublishedTotal *Counter
	userRegisteredTotal   *Counter

	// Gauge metrics (point-in-time values)
	productLowStockCount *Gauge
	orderPendingCount    *Gauge
	eventProcessedCount  *Gauge
	eventDuplicateCount  *Gauge
	eventFailedCount     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	catalogProvider CatalogMetricsProvider
	orderProvider   OrderMetricsProvider
	eventProvider   EventDeliveryMetricsProvider
}

// CatalogMetricsProvider provides catalog data for periodic metrics collection.
// This interface allows the telemetry layer to query stock state without
// depending on the catalog domain directly.
type CatalogMetricsProvider interface {
	// GetLowStockCount returns the count of published products at or below
	// the low-stock threshold
	GetLowStockCount(ctx context.Context) (int64, error)
}

// OrderMetricsProvider provides order data for periodic metrics collection.
type OrderMetricsProvider interface {
	// GetPendingOrderCount returns the count of orders awaiting payment
	GetPendingOrderCount(ctx context.Context) (int64, error)
}

// EventDeliveryMetricsProvider exposes duplicate-detection counters from the
// event pipeline. Values are cumulative since process start.
type EventDeliveryMetricsProvider interface {
	GetDeliveryStats() (processed, duplicates, failures int64)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	CatalogProvider CatalogMetricsProvider
	OrderProvider   OrderMetricsProvider
	EventProvider   EventDeliveryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		catalogProvider: cfg.CatalogProvider,
		orderProvider:   cfg.OrderProvider,
		eventProvider:   cfg.EventProvider,
	}

	// Initialize counter metrics
	var err error

	// Order metrics
	bm.orderCreatedTotal, err = NewCounter(
		cfg.Meter,
		"moa_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"moa_order_amount_total",
		"Total order amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderExpiredTotal, err = NewCounter(
		cfg.Meter,
		"moa_order_expired_total",
		"Total number of pending orders auto-cancelled after the payment window lapsed",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"moa_payment_total",
		"Total number of payment notifications processed",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Catalog metrics
	bm.productPublishedTotal, err = NewCounter(
		cfg.Meter,
		"moa_product_published_total",
		"Total number of products published to the storefront",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	// Identity metrics
	bm.userRegisteredTotal, err = NewCounter(
		cfg.Meter,
		"moa_user_registered_total",
		"Total number of user registrations",
		"{users}",
	)
	if err != nil {
		return nil, err
	}

	// Catalog and order gauge metrics
	bm.productLowStockCount, err = NewGauge(
		cfg.Meter,
		"moa_product_low_stock_count",
		"Number of published products at or below the low-stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderPendingCount, err = NewGauge(
		cfg.Meter,
		"moa_order_pending_count",
		"Number of orders awaiting payment",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	// Event delivery gauge metrics
	bm.eventProcessedCount, err = NewGauge(
		cfg.Meter,
		"moa_event_processed_count",
		"Events processed by subscribers since process start",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.eventDuplicateCount, err = NewGauge(
		cfg.Meter,
		"moa_event_duplicate_count",
		"Duplicate event deliveries skipped since process start",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.eventFailedCount, err = NewGauge(
		cfg.Meter,
		"moa_event_failed_count",
		"Event handler failures since process start",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderCreated records an order creation event.
// This should be called from the application layer when a checkout succeeds.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context) {
	bm.orderCreatedTotal.Inc(ctx)
}

// RecordOrderAmount records the order amount.
// Amount should be in the smallest currency unit (centavos).
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, amountCentavos int64) {
	bm.orderAmountTotal.Add(ctx, amountCentavos)
}

// RecordOrderWithAmount is a convenience method that records both order count and amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, amount decimal.Decimal) {
	bm.RecordOrderCreated(ctx)

	// Convert to centavos (multiply by 100)
	amountCentavos := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordOrderAmount(ctx, amountCentavos)
}

// RecordOrdersExpired records pending orders auto-cancelled by the expiry scheduler.
func (bm *BusinessMetrics) RecordOrdersExpired(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	bm.orderExpiredTotal.Add(ctx, count)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment records a payment notification.
// This should be called when a payment webhook is processed.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, paymentMethod string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Catalog Metrics
// =============================================================================

// RecordProductPublished records a product publication event.
func (bm *BusinessMetrics) RecordProductPublished(ctx context.Context) {
	bm.productPublishedTotal.Inc(ctx)
}

// =============================================================================
// Identity Metrics
// =============================================================================

// RecordUserRegistered records a successful user registration.
func (bm *BusinessMetrics) RecordUserRegistered(ctx context.Context) {
	bm.userRegisteredTotal.Inc(ctx)
}

// =============================================================================
// Stock and Order Backlog Metrics
// =============================================================================

// RecordLowStockCount records the number of published products at or below
// the low-stock threshold. This is a gauge metric updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.productLowStockCount.Record(ctx, count)
}

// RecordPendingOrderCount records the number of orders awaiting payment.
// This is a gauge metric updated periodically.
func (bm *BusinessMetrics) RecordPendingOrderCount(ctx context.Context, count int64) {
	bm.orderPendingCount.Record(ctx, count)
}

// RecordEventDeliveryStats records the cumulative event delivery counters.
// This is a gauge snapshot updated periodically.
func (bm *BusinessMetrics) RecordEventDeliveryStats(ctx context.Context, processed, duplicates, failures int64) {
	bm.eventProcessedCount.Record(ctx, processed)
	bm.eventDuplicateCount.Record(ctx, duplicates)
	bm.eventFailedCount.Record(ctx, failures)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects stock and order backlog metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectGaugeMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectGaugeMetrics(ctx)
		}
	}
}

// collectGaugeMetrics collects the stock, order backlog, and event delivery gauges.
func (bm *BusinessMetrics) collectGaugeMetrics(ctx context.Context) {
	if bm.catalogProvider != nil {
		lowStockCount, err := bm.catalogProvider.GetLowStockCount(ctx)
		if err != nil {
			bm.logger.Warn("Failed to get low stock count", zap.Error(err))
		} else {
			bm.RecordLowStockCount(ctx, lowStockCount)
		}
	}

	if bm.orderProvider != nil {
		pendingCount, err := bm.orderProvider.GetPendingOrderCount(ctx)
		if err != nil {
			bm.logger.Warn("Failed to get pending order count", zap.Error(err))
		} else {
			bm.RecordPendingOrderCount(ctx, pendingCount)
		}
	}

	if bm.eventProvider != nil {
		processed, duplicates, failures := bm.eventProvider.GetDeliveryStats()
		bm.RecordEventDeliveryStats(ctx, processed, duplicates, failures)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
