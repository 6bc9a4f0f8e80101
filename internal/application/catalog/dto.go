package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=64"`
	Description string `json:"description" binding:"max=500"`
	SortOrder   *int   `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=64"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	SortOrder    int       `json:"sort_order"`
	ProductCount int64     `json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryListFilter represents filter options for category list
type CategoryListFilter struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CreateProductRequest represents a request to create a product listing
type CreateProductRequest struct {
	Name            string          `json:"name" binding:"required,min=2,max=128"`
	Description     string          `json:"description" binding:"max=5000"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	OriginCommunity string          `json:"origin_community" binding:"max=128"`
	OriginState     string          `json:"origin_state" binding:"omitempty,len=2"`
	Technique       string          `json:"technique" binding:"max=128"`
	Materials       []string        `json:"materials" binding:"max=20,dive,max=64"`
	InitialStock    int             `json:"initial_stock" binding:"min=0"`
}

// UpdateProductRequest represents a request to update a product listing
type UpdateProductRequest struct {
	Name            *string    `json:"name" binding:"omitempty,min=2,max=128"`
	Description     *string    `json:"description" binding:"omitempty,max=5000"`
	CategoryID      *uuid.UUID `json:"category_id"`
	OriginCommunity *string    `json:"origin_community" binding:"omitempty,max=128"`
	OriginState     *string    `json:"origin_state" binding:"omitempty,len=2"`
	Technique       *string    `json:"technique" binding:"omitempty,max=128"`
	Materials       []string   `json:"materials" binding:"omitempty,max=20,dive,max=64"`
}

// ChangePriceRequest represents a request to change a product's price
type ChangePriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

// AdjustStockRequest represents a request to adjust product stock
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ProductImageResponse represents a product image in API responses
type ProductImageResponse struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Position    int       `json:"position"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID              uuid.UUID              `json:"id"`
	SKU             string                 `json:"sku"`
	Name            string                 `json:"name"`
	Slug            string                 `json:"slug"`
	Description     string                 `json:"description"`
	CategoryID      *uuid.UUID             `json:"category_id"`
	SellerID        uuid.UUID              `json:"seller_id"`
	Price           decimal.Decimal        `json:"price"`
	Currency        string                 `json:"currency"`
	StockQuantity   int                    `json:"stock_quantity"`
	Status          string                 `json:"status"`
	OriginCommunity string                 `json:"origin_community,omitempty"`
	OriginState     string                 `json:"origin_state,omitempty"`
	Technique       string                 `json:"technique,omitempty"`
	Materials       []string               `json:"materials"`
	Images          []ProductImageResponse `json:"images"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Version         int                    `json:"version"`
}

// ProductListResponse represents a list item for products
type ProductListResponse struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	StockQuantity int             `json:"stock_quantity"`
	Status        string          `json:"status"`
	OriginState   string          `json:"origin_state,omitempty"`
	Technique     string          `json:"technique,omitempty"`
	PrimaryImage  string          `json:"primary_image,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search      string     `form:"search"`
	Status      string     `form:"status" binding:"omitempty,oneof=draft published archived"`
	CategoryID  *uuid.UUID `form:"category_id"`
	SellerID    *uuid.UUID `form:"seller_id"`
	MinPrice    *float64   `form:"min_price"`
	MaxPrice    *float64   `form:"max_price"`
	OriginState string     `form:"origin_state"`
	Technique   string     `form:"technique"`
	InStockOnly bool       `form:"in_stock_only"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductImageResponse converts a domain ProductImage to ProductImageResponse
func ToProductImageResponse(img *catalog.ProductImage) ProductImageResponse {
	return ProductImageResponse{
		ID:          img.ID,
		URL:         img.URL,
		ContentType: img.ContentType,
		SizeBytes:   img.SizeBytes,
		Position:    img.Position,
		IsPrimary:   img.IsPrimary,
		CreatedAt:   img.CreatedAt,
	}
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := make([]ProductImageResponse, len(p.Images))
	for i := range p.Images {
		images[i] = ToProductImageResponse(&p.Images[i])
	}
	return ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		CategoryID:      p.CategoryID,
		SellerID:        p.SellerID,
		Price:           p.Price.Amount(),
		Currency:        string(p.Price.Currency()),
		StockQuantity:   p.StockQuantity,
		Status:          string(p.Status),
		OriginCommunity: p.OriginCommunity,
		OriginState:     p.OriginState,
		Technique:       p.Technique,
		Materials:       p.Materials,
		Images:          images,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Version:         p.Version,
	}
}

// ToProductListResponse converts a domain Product to ProductListResponse
func ToProductListResponse(p *catalog.Product) ProductListResponse {
	resp := ProductListResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Slug:          p.Slug,
		CategoryID:    p.CategoryID,
		SellerID:      p.SellerID,
		Price:         p.Price.Amount(),
		Currency:      string(p.Price.Currency()),
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status),
		OriginState:   p.OriginState,
		Technique:     p.Technique,
		CreatedAt:     p.CreatedAt,
	}
	if primary := p.PrimaryImage(); primary != nil {
		resp.PrimaryImage = primary.URL
	}
	return resp
}

// ToProductListResponses converts domain Products to list responses
func ToProductListResponses(products []*catalog.Product) []ProductListResponse {
	responses := make([]ProductListResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductListResponse(p)
	}
	return responses
}
