package catalog

import (
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for Product
const AggregateTypeProduct = "Product"

// Product domain event types
const (
	EventTypeProductCreated      = "ProductCreated"
	EventTypeProductUpdated      = "ProductUpdated"
	EventTypeProductPublished    = "ProductPublished"
	EventTypeProductArchived     = "ProductArchived"
	EventTypeProductPriceChanged = "ProductPriceChanged"
	EventTypeProductStockChanged = "ProductStockChanged"
	EventTypeProductImageAdded   = "ProductImageAdded"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	SellerID string `json:"seller_id"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		Name:            product.Name,
		SellerID:        product.SellerID.String(),
	}
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		Name:            product.Name,
	}
}

// ProductPublishedEvent is published when a product goes live
type ProductPublishedEvent struct {
	shared.BaseDomainEvent
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewProductPublishedEvent creates a new ProductPublishedEvent
func NewProductPublishedEvent(product *Product) *ProductPublishedEvent {
	return &ProductPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPublished, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		Name:            product.Name,
		Slug:            product.Slug,
	}
}

// ProductArchivedEvent is published when a product is taken off the marketplace
type ProductArchivedEvent struct {
	shared.BaseDomainEvent
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// NewProductArchivedEvent creates a new ProductArchivedEvent
func NewProductArchivedEvent(product *Product) *ProductArchivedEvent {
	return &ProductArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductArchived, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		Name:            product.Name,
	}
}

// ProductPriceChangedEvent is published when a product's price changes
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	SKU      string `json:"sku"`
	OldPrice string `json:"old_price"`
	NewPrice string `json:"new_price"`
	Currency string `json:"currency"`
}

// NewProductPriceChangedEvent creates a new ProductPriceChangedEvent
func NewProductPriceChangedEvent(product *Product, oldPrice valueobject.Money) *ProductPriceChangedEvent {
	return &ProductPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPriceChanged, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		OldPrice:        oldPrice.Amount().String(),
		NewPrice:        product.Price.Amount().String(),
		Currency:        string(product.Price.Currency()),
	}
}

// ProductStockChangedEvent is published when available stock changes
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	SKU         string `json:"sku"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// NewProductStockChangedEvent creates a new ProductStockChangedEvent
func NewProductStockChangedEvent(product *Product, oldQuantity int) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockChanged, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		OldQuantity:     oldQuantity,
		NewQuantity:     product.StockQuantity,
	}
}

// ProductImageAddedEvent is published when an image is attached to a product
type ProductImageAddedEvent struct {
	shared.BaseDomainEvent
	SKU       string `json:"sku"`
	ImageID   string `json:"image_id"`
	ObjectKey string `json:"object_key"`
}

// NewProductImageAddedEvent creates a new ProductImageAddedEvent
func NewProductImageAddedEvent(product *Product, image ProductImage) *ProductImageAddedEvent {
	return &ProductImageAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductImageAdded, AggregateTypeProduct, product.ID),
		SKU:             product.SKU,
		ImageID:         image.ID.String(),
		ObjectKey:       image.ObjectKey,
	}
}
