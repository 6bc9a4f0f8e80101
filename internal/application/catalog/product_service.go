package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// Actor identifies the authenticated caller for ownership checks
// A nil *Actor means an unauthenticated (public) caller
type Actor struct {
	UserID    uuid.UUID
	CanManage bool // Granted a catalog management permission
}

// CanAccess reports whether the actor may see or modify the seller's listing
func (a *Actor) CanAccess(sellerID uuid.UUID) bool {
	if a == nil {
		return false
	}
	return a.CanManage || a.UserID == sellerID
}

// ProductService handles product listing operations
type ProductService struct {
	productRepo     catalog.ProductRepository
	categoryRepo    catalog.CategoryRepository
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// SetEventPublisher sets the event publisher for product lifecycle events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *ProductService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create creates a new draft product owned by the seller
func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	price := valueobject.NewMoneyBRL(req.Price)

	product, err := catalog.NewProduct(sellerID, req.Name, req.Description, price)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.validateCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.OriginCommunity != "" || req.OriginState != "" || req.Technique != "" || len(req.Materials) > 0 {
		if err := product.SetOrigin(req.OriginCommunity, req.OriginState, req.Technique, req.Materials); err != nil {
			return nil, err
		}
	}

	if req.InitialStock > 0 {
		if err := product.AdjustStock(req.InitialStock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product, hiding unpublished listings from outsiders
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, actor *Actor) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if !product.IsPublished() && !actor.CanAccess(product.SellerID) {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetBySlug retrieves a product by slug with the same visibility rules
func (s *ProductService) GetBySlug(ctx context.Context, slug string, actor *Actor) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}

	if !product.IsPublished() && !actor.CanAccess(product.SellerID) {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	}

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products matching the filter
// Public callers only see published listings; sellers also see their own
// drafts; catalog managers see everything
func (s *ProductService) List(ctx context.Context, filter ProductListFilter, actor *Actor) ([]ProductListResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := &catalog.ProductFilter{
		CategoryID:  filter.CategoryID,
		SellerID:    filter.SellerID,
		Keyword:     filter.Search,
		OriginState: filter.OriginState,
		Technique:   filter.Technique,
		InStockOnly: filter.InStockOnly,
		Page:        filter.Page,
		Limit:       filter.PageSize,
		OrderBy:     filter.OrderBy,
		OrderDir:    filter.OrderDir,
	}

	if filter.MinPrice != nil {
		min := decimal.NewFromFloat(*filter.MinPrice)
		domainFilter.MinPrice = &min
	}
	if filter.MaxPrice != nil {
		max := decimal.NewFromFloat(*filter.MaxPrice)
		domainFilter.MaxPrice = &max
	}

	if filter.Status != "" {
		status := catalog.ProductStatus(filter.Status)
		domainFilter.Status = &status
	}

	// Sellers may browse their own listings in any status. Everyone else
	// is restricted to the published catalog.
	ownListing := actor != nil && filter.SellerID != nil && *filter.SellerID == actor.UserID
	if actor == nil || (!actor.CanManage && !ownListing) {
		published := catalog.ProductStatusPublished
		domainFilter.Status = &published
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductListResponses(products), total, nil
}

// Update updates a product owned by the actor
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, actor Actor, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		description := product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if err := s.validateCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.OriginCommunity != nil || req.OriginState != nil || req.Technique != nil || req.Materials != nil {
		community := product.OriginCommunity
		state := product.OriginState
		technique := product.Technique
		materials := product.Materials
		if req.OriginCommunity != nil {
			community = *req.OriginCommunity
		}
		if req.OriginState != nil {
			state = *req.OriginState
		}
		if req.Technique != nil {
			technique = *req.Technique
		}
		if req.Materials != nil {
			materials = req.Materials
		}
		if err := product.SetOrigin(community, state, technique, materials); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// ChangePrice updates the price of a product owned by the actor
func (s *ProductService) ChangePrice(ctx context.Context, id uuid.UUID, actor Actor, price decimal.Decimal) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if err := product.ChangePrice(valueobject.NewMoneyBRL(price)); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Publish lists the product on the marketplace
// The category must exist and be active
func (s *ProductService) Publish(ctx context.Context, id uuid.UUID, actor Actor) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if product.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(ctx, *product.CategoryID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("CATEGORY_NOT_FOUND", "Product category no longer exists")
			}
			return nil, err
		}
		if !category.IsActive {
			return nil, shared.NewDomainError("CATEGORY_INACTIVE", "Cannot publish into an inactive category")
		}
	}

	if err := product.Publish(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordProductPublished(ctx)
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Archive takes the product off the marketplace
func (s *ProductService) Archive(ctx context.Context, id uuid.UUID, actor Actor) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if err := product.Archive(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// AdjustStock changes the stock level by delta
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, actor Actor, delta int) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if err := product.AdjustStock(delta); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a draft product
// Published listings must be archived instead so order history stays intact
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	product, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return err
	}

	if !product.IsDraft() {
		return shared.NewDomainError("PRODUCT_NOT_DRAFT", "Only draft products can be deleted")
	}

	return s.productRepo.Delete(ctx, id)
}

// CountByStatus returns product counts grouped by status
func (s *ProductService) CountByStatus(ctx context.Context, sellerID *uuid.UUID) (map[string]int64, error) {
	counts := make(map[string]int64)
	var total int64

	for _, status := range []catalog.ProductStatus{
		catalog.ProductStatusDraft,
		catalog.ProductStatusPublished,
		catalog.ProductStatusArchived,
	} {
		st := status
		count, err := s.productRepo.Count(ctx, &catalog.ProductFilter{
			SellerID: sellerID,
			Status:   &st,
		})
		if err != nil {
			return nil, err
		}
		counts[string(status)] = count
		total += count
	}
	counts["total"] = total

	return counts, nil
}

// findProduct loads a product or maps the not-found case to a domain error
func (s *ProductService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	return product, nil
}

// findOwned loads a product and verifies the actor may modify it
func (s *ProductService) findOwned(ctx context.Context, id uuid.UUID, actor Actor) (*catalog.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage && !product.IsOwnedBy(actor.UserID) {
		return nil, shared.NewDomainError("NOT_PRODUCT_OWNER", "You do not own this product listing")
	}
	return product, nil
}

// validateCategory checks that the category exists
func (s *ProductService) validateCategory(ctx context.Context, categoryID uuid.UUID) error {
	_, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
		}
		return err
	}
	return nil
}

// publishEvents publishes the aggregate's pending domain events
func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		product.ClearDomainEvents()
		return
	}
	for _, event := range product.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	product.ClearDomainEvents()
}
