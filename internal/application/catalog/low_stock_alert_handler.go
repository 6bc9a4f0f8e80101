package catalog

import (
	"context"
	"fmt"

	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LowStockAlertHandler listens for ProductStockChanged events and raises an
// alert when a product's stock crosses down to the low-stock threshold.
// Restocks and movements that stay below the threshold do not re-alert.
type LowStockAlertHandler struct {
	logger    *zap.Logger
	notifier  StockAlertNotifier
	threshold int
}

// StockAlertNotifier is the interface for delivering stock alerts.
// Implementations can target different channels (log, email, seller inbox).
type StockAlertNotifier interface {
	// SendAlert delivers a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert describes a product whose stock dropped to a worrying level
type StockAlert struct {
	ProductID        string `json:"product_id"`
	SKU              string `json:"sku"`
	PreviousQuantity int    `json:"previous_quantity"`
	CurrentQuantity  int    `json:"current_quantity"`
	Threshold        int    `json:"threshold"`
	AlertType        string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewLowStockAlertHandler creates a handler with the default threshold
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{
		logger:    logger,
		threshold: telemetry.DefaultLowStockThreshold,
	}
}

// WithNotifier sets the notifier used to deliver alerts
func (h *LowStockAlertHandler) WithNotifier(notifier StockAlertNotifier) *LowStockAlertHandler {
	h.notifier = notifier
	return h
}

// WithThreshold overrides the low-stock threshold. Values <= 0 keep the default.
func (h *LowStockAlertHandler) WithThreshold(threshold int) *LowStockAlertHandler {
	if threshold > 0 {
		h.threshold = threshold
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductStockChanged}
}

// Handle processes a ProductStockChangedEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	stockEvent, ok := event.(*catalog.ProductStockChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", catalog.EventTypeProductStockChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeProductStockChanged, event.EventType())
	}

	// Only alert on the downward crossing, not while stock hovers below.
	if stockEvent.NewQuantity > h.threshold || stockEvent.OldQuantity <= h.threshold {
		return nil
	}

	alertType := "low_stock"
	if stockEvent.NewQuantity == 0 {
		alertType = "out_of_stock"
	}

	h.logger.Warn("product stock dropped to low level",
		zap.String("product_id", stockEvent.AggregateID().String()),
		zap.String("sku", stockEvent.SKU),
		zap.Int("previous_quantity", stockEvent.OldQuantity),
		zap.Int("current_quantity", stockEvent.NewQuantity),
		zap.Int("threshold", h.threshold),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}

	alert := StockAlert{
		ProductID:        stockEvent.AggregateID().String(),
		SKU:              stockEvent.SKU,
		PreviousQuantity: stockEvent.OldQuantity,
		CurrentQuantity:  stockEvent.NewQuantity,
		Threshold:        h.threshold,
		AlertType:        alertType,
	}

	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure should not fail event handling
		h.logger.Error("failed to send stock alert notification",
			zap.String("product_id", alert.ProductID),
			zap.String("sku", alert.SKU),
			zap.Error(err),
		)
	}

	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

// LoggingStockAlertNotifier logs alerts instead of delivering them anywhere.
// Useful for development and as the default until a real channel exists.
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("sku", alert.SKU),
		zap.Int("current_qty", alert.CurrentQuantity),
		zap.Int("threshold", alert.Threshold),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
