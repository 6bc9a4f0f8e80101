package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(100);not null"`
	Slug        string `gorm:"type:varchar(120);not null;uniqueIndex:idx_categories_slug"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	category := &catalog.Category{
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		IsActive:    m.IsActive,
		SortOrder:   m.SortOrder,
	}
	m.PopulateAggregateRoot(&category.BaseAggregateRoot)
	return category
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Slug = c.Slug
	m.Description = c.Description
	m.IsActive = c.IsActive
	m.SortOrder = c.SortOrder
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	SKU             string                `gorm:"type:varchar(20);not null;uniqueIndex:idx_products_sku"`
	Name            string                `gorm:"type:varchar(200);not null"`
	Slug            string                `gorm:"type:varchar(220);not null;index"`
	Description     string                `gorm:"type:text"`
	CategoryID      *uuid.UUID            `gorm:"type:uuid;index"`
	SellerID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	PriceAmount     decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	PriceCurrency   string                `gorm:"type:varchar(3);not null;default:'BRL'"`
	StockQuantity   int                   `gorm:"not null;default:0"`
	Status          catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	OriginCommunity string                `gorm:"type:varchar(100)"`
	OriginState     string                `gorm:"type:varchar(2)"`
	Technique       string                `gorm:"type:varchar(100)"`
	Materials       string                `gorm:"type:jsonb;default:'[]'"`
	Images          []ProductImageModel   `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	materials := make([]string, 0)
	if m.Materials != "" {
		_ = json.Unmarshal([]byte(m.Materials), &materials)
	}

	product := &catalog.Product{
		SKU:             m.SKU,
		Name:            m.Name,
		Slug:            m.Slug,
		Description:     m.Description,
		CategoryID:      m.CategoryID,
		SellerID:        m.SellerID,
		Price:           moneyFromColumns(m.PriceAmount, m.PriceCurrency),
		StockQuantity:   m.StockQuantity,
		Status:          m.Status,
		OriginCommunity: m.OriginCommunity,
		OriginState:     m.OriginState,
		Technique:       m.Technique,
		Materials:       materials,
		Images:          make([]catalog.ProductImage, len(m.Images)),
	}
	m.PopulateAggregateRoot(&product.BaseAggregateRoot)
	for i, img := range m.Images {
		product.Images[i] = *img.ToDomain()
	}
	return product
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Slug = p.Slug
	m.Description = p.Description
	m.CategoryID = p.CategoryID
	m.SellerID = p.SellerID
	m.PriceAmount = p.Price.Amount()
	m.PriceCurrency = string(p.Price.Currency())
	m.StockQuantity = p.StockQuantity
	m.Status = p.Status
	m.OriginCommunity = p.OriginCommunity
	m.OriginState = p.OriginState
	m.Technique = p.Technique

	materialsJSON, _ := json.Marshal(p.Materials)
	m.Materials = string(materialsJSON)

	m.Images = make([]ProductImageModel, len(p.Images))
	for i, img := range p.Images {
		m.Images[i] = *ProductImageModelFromDomain(&img)
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductImageModel is the persistence model for the ProductImage entity.
type ProductImageModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ObjectKey   string    `gorm:"type:varchar(500);not null"`
	URL         string    `gorm:"type:varchar(1000);not null"`
	ContentType string    `gorm:"type:varchar(50);not null"`
	SizeBytes   int64     `gorm:"not null"`
	Position    int       `gorm:"not null;default:0"`
	IsPrimary   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the persistence model to a domain ProductImage entity.
func (m *ProductImageModel) ToDomain() *catalog.ProductImage {
	return &catalog.ProductImage{
		ID:          m.ID,
		ProductID:   m.ProductID,
		ObjectKey:   m.ObjectKey,
		URL:         m.URL,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		Position:    m.Position,
		IsPrimary:   m.IsPrimary,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductImage entity.
func (m *ProductImageModel) FromDomain(img *catalog.ProductImage) {
	m.ID = img.ID
	m.ProductID = img.ProductID
	m.ObjectKey = img.ObjectKey
	m.URL = img.URL
	m.ContentType = img.ContentType
	m.SizeBytes = img.SizeBytes
	m.Position = img.Position
	m.IsPrimary = img.IsPrimary
	m.CreatedAt = img.CreatedAt
}

// ProductImageModelFromDomain creates a new persistence model from a domain ProductImage entity.
func ProductImageModelFromDomain(img *catalog.ProductImage) *ProductImageModel {
	m := &ProductImageModel{}
	m.FromDomain(img)
	return m
}
