package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter defines the filter criteria for product queries
type ProductFilter struct {
	CategoryID  *uuid.UUID       // Filter by category
	SellerID    *uuid.UUID       // Filter by seller
	Status      *ProductStatus   // Filter by status
	Keyword     string           // Search in name and description
	MinPrice    *decimal.Decimal // Inclusive lower price bound
	MaxPrice    *decimal.Decimal // Inclusive upper price bound
	OriginState string           // Filter by Brazilian UF
	Technique   string           // Filter by craft technique
	InStockOnly bool             // Only products with stock available
	// Pagination and ordering
	Page     int
	Limit    int
	OrderBy  string // Whitelisted column
	OrderDir string // asc or desc
}

// ProductRepository defines the interface for product persistence operations
type ProductRepository interface {
	// Create creates a new product with its images
	Create(ctx context.Context, product *Product) error

	// Update updates an existing product
	Update(ctx context.Context, product *Product) error

	// Delete deletes a product by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a product by ID with images loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySlug finds a product by slug
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// FindBySKU finds a product by SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindByIDs finds multiple products by IDs with images loaded
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter *ProductFilter) ([]*Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter *ProductFilter) (int64, error)

	// ReserveStock atomically decrements stock, failing when insufficient
	ReserveStock(ctx context.Context, productID uuid.UUID, qty int) error

	// ReleaseStock atomically increments stock
	ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error

	// SaveImages persists the product's image set (replaces existing)
	SaveImages(ctx context.Context, product *Product) error

	// CountBySeller counts the products owned by a seller
	CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)

	// CountByCategory counts the products in a category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}
