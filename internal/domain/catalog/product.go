package catalog

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"     // Visible only to the seller
	ProductStatusPublished ProductStatus = "published" // Listed on the marketplace
	ProductStatusArchived  ProductStatus = "archived"  // Permanently off the marketplace
)

// Maximum number of images per product
const maxProductImages = 12

// skuAlphabet excludes nothing; SKUs are uppercase alphanumeric
const skuAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Product represents an artisanal product listed on the marketplace
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	SKU             string
	Name            string
	Slug            string
	Description     string
	CategoryID      *uuid.UUID
	SellerID        uuid.UUID // Artisan user who owns the listing
	Price           valueobject.Money
	StockQuantity   int
	Status          ProductStatus
	OriginCommunity string   // Community or people of origin (e.g. "Yanomami")
	OriginState     string   // Brazilian UF where the piece was made
	Technique       string   // Craft technique (e.g. "cerâmica marajoara")
	Materials       []string // Raw materials (e.g. "barro", "palha de buriti")
	Images          []ProductImage
}

// NewProduct creates a new product in draft status
func NewProduct(sellerID uuid.UUID, name, description string, price valueobject.Money) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER_ID", "Seller ID cannot be empty")
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateProductPrice(price); err != nil {
		return nil, err
	}

	sku, err := GenerateSKU()
	if err != nil {
		return nil, shared.NewDomainError("SKU_GENERATION_FAILED", "Failed to generate SKU")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Slug:              Slugify(name),
		Description:       description,
		SellerID:          sellerID,
		Price:             price,
		StockQuantity:     0,
		Status:            ProductStatusDraft,
		Materials:         make([]string, 0),
		Images:            make([]ProductImage, 0),
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
// The slug is regenerated when the name changes
func (p *Product) Update(name, description string) error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Cannot update an archived product")
	}
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// SetOrigin records the provenance of the piece
func (p *Product) SetOrigin(community, state, technique string, materials []string) error {
	if community != "" && len(community) > 100 {
		return shared.NewDomainError("INVALID_ORIGIN", "Origin community cannot exceed 100 characters")
	}
	if state != "" {
		state = valueobject.NormalizeUF(state)
		if !valueobject.IsValidUF(state) {
			return shared.NewDomainError("INVALID_ORIGIN", "Origin state must be a valid Brazilian UF")
		}
	}
	if technique != "" && len(technique) > 100 {
		return shared.NewDomainError("INVALID_ORIGIN", "Technique cannot exceed 100 characters")
	}
	if len(materials) > 20 {
		return shared.NewDomainError("INVALID_ORIGIN", "At most 20 materials can be listed")
	}
	cleaned := make([]string, 0, len(materials))
	for _, m := range materials {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if len(m) > 50 {
			return shared.NewDomainError("INVALID_ORIGIN", "Material names cannot exceed 50 characters")
		}
		cleaned = append(cleaned, m)
	}

	p.OriginCommunity = strings.TrimSpace(community)
	p.OriginState = state
	p.Technique = strings.TrimSpace(technique)
	p.Materials = cleaned
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// ChangePrice updates the product price
func (p *Product) ChangePrice(price valueobject.Money) error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Cannot change the price of an archived product")
	}
	if err := validateProductPrice(price); err != nil {
		return err
	}

	oldPrice := p.Price
	p.Price = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))

	return nil
}

// Publish lists the product on the marketplace
// Requires a category, a positive price, and a description
func (p *Product) Publish() error {
	if p.Status == ProductStatusPublished {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Product is already published")
	}
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Cannot publish an archived product")
	}
	if p.CategoryID == nil {
		return shared.NewDomainError("CATEGORY_REQUIRED", "Product must have a category before publishing")
	}
	if !p.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Product price must be positive before publishing")
	}
	if strings.TrimSpace(p.Description) == "" {
		return shared.NewDomainError("DESCRIPTION_REQUIRED", "Product must have a description before publishing")
	}

	p.Status = ProductStatusPublished
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductPublishedEvent(p))

	return nil
}

// Archive takes the product off the marketplace permanently
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Product is already archived")
	}

	p.Status = ProductStatusArchived
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductArchivedEvent(p))

	return nil
}

// AdjustStock changes the stock level by delta (positive or negative)
func (p *Product) AdjustStock(delta int) error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("PRODUCT_ARCHIVED", "Cannot adjust stock of an archived product")
	}

	newQuantity := p.StockQuantity + delta
	if newQuantity < 0 {
		return shared.ErrInsufficientStock
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity = newQuantity
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))

	return nil
}

// ReserveStock removes qty units from available stock for an order
func (p *Product) ReserveStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockQuantity < qty {
		return shared.ErrInsufficientStock
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity -= qty
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))

	return nil
}

// ReleaseStock returns qty units to available stock (cancelled order)
func (p *Product) ReleaseStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	oldQuantity := p.StockQuantity
	p.StockQuantity += qty
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldQuantity))

	return nil
}

// InStock returns true if at least qty units are available
func (p *Product) InStock(qty int) bool {
	return p.StockQuantity >= qty
}

// AddImage attaches an uploaded image to the product
// The first image becomes the primary image automatically
func (p *Product) AddImage(image ProductImage) error {
	if len(p.Images) >= maxProductImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "Product cannot have more images")
	}
	for _, existing := range p.Images {
		if existing.ObjectKey == image.ObjectKey {
			return shared.NewDomainError("DUPLICATE_IMAGE", "Image is already attached to the product")
		}
	}

	image.ProductID = p.ID
	image.Position = len(p.Images)
	if len(p.Images) == 0 {
		image.IsPrimary = true
	}

	p.Images = append(p.Images, image)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductImageAddedEvent(p, image))

	return nil
}

// RemoveImage detaches an image from the product
// When the primary image is removed, the first remaining image is promoted
func (p *Product) RemoveImage(imageID uuid.UUID) error {
	found := false
	wasPrimary := false
	remaining := make([]ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		if img.ID == imageID {
			found = true
			wasPrimary = img.IsPrimary
			continue
		}
		remaining = append(remaining, img)
	}

	if !found {
		return shared.NewDomainError("IMAGE_NOT_FOUND", "Image is not attached to the product")
	}

	for i := range remaining {
		remaining[i].Position = i
	}
	if wasPrimary && len(remaining) > 0 {
		remaining[0].IsPrimary = true
	}

	p.Images = remaining
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetPrimaryImage marks the given image as the product's primary image
func (p *Product) SetPrimaryImage(imageID uuid.UUID) error {
	found := false
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			found = true
		}
	}
	if !found {
		return shared.NewDomainError("IMAGE_NOT_FOUND", "Image is not attached to the product")
	}

	for i := range p.Images {
		p.Images[i].IsPrimary = p.Images[i].ID == imageID
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// PrimaryImage returns the primary image, or nil when the product has none
func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// IsDraft returns true if the product is a draft
func (p *Product) IsDraft() bool {
	return p.Status == ProductStatusDraft
}

// IsPublished returns true if the product is published
func (p *Product) IsPublished() bool {
	return p.Status == ProductStatusPublished
}

// IsArchived returns true if the product is archived
func (p *Product) IsArchived() bool {
	return p.Status == ProductStatusArchived
}

// IsOwnedBy returns true if the product belongs to the given seller
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.SellerID == userID
}

// HasCategory returns true if the product has a category assigned
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil
}

// GenerateSKU returns a fresh SKU in the form MOA-XXXXXXXX
func GenerateSKU() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = skuAlphabet[int(b)%len(skuAlphabet)]
	}
	return fmt.Sprintf("MOA-%s", buf), nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) < 2 {
		return shared.NewDomainError("INVALID_NAME", "Product name must be at least 2 characters")
	}
	if len(name) > 128 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 128 characters")
	}
	return nil
}

// validateProductPrice validates the product price
func validateProductPrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	return nil
}
