package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moa/backend/internal/application/catalog"
	"github.com/moa/backend/internal/interfaces/http/middleware"
)

// ProductHandler handles product and product image HTTP requests
type ProductHandler struct {
	BaseHandler
	productService *catalog.ProductService
	imageService   *catalog.ProductImageService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalog.ProductService, imageService *catalog.ProductImageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		imageService:   imageService,
	}
}

// currentActor resolves the acting user for write operations. Moderators
// (products.moderate) and platform admins may act on any seller's listing.
func (h *ProductHandler) currentActor(c *gin.Context) (catalog.Actor, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return catalog.Actor{}, false
	}
	return catalog.Actor{
		UserID:    userID,
		CanManage: middleware.HasAnyPermission(c, "products.moderate", "system.manage"),
	}, true
}

// optionalActor resolves the actor for catalog reads. Anonymous requests
// get nil and see only published products.
func optionalActor(c *gin.Context) *catalog.Actor {
	userID, err := getUserID(c)
	if err != nil {
		return nil
	}
	return &catalog.Actor{
		UserID:    userID,
		CanManage: middleware.HasAnyPermission(c, "products.moderate", "system.manage"),
	}
}

// Create godoc
// @ID           createProduct
// @Summary      Create a new product
// @Description  Create a draft listing owned by the authenticated seller
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateProductRequest true "Product creation request"
// @Success      201 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// Get godoc
// @ID           getProduct
// @Summary      Get a product
// @Description  Retrieve a product by ID or by slug. Drafts and archived listings are visible only to their seller and moderators.
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID or slug"
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	param := c.Param("id")
	actor := optionalActor(c)

	var err error
	var product *catalog.ProductResponse
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		product, err = h.productService.GetByID(c.Request.Context(), id, actor)
	} else {
		product, err = h.productService.GetBySlug(c.Request.Context(), param, actor)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Description  Get a paginated product listing. Anonymous callers see published products only; sellers additionally see their own drafts when filtering by their seller ID.
// @Tags         products
// @Produce      json
// @Param        search query string false "Search over name, description, origin and technique"
// @Param        status query string false "Product status" Enums(draft, published, archived)
// @Param        category_id query string false "Filter by category" format(uuid)
// @Param        seller_id query string false "Filter by seller" format(uuid)
// @Param        min_price query number false "Minimum price in BRL"
// @Param        max_price query number false "Maximum price in BRL"
// @Param        origin_state query string false "Brazilian state code (UF)"
// @Param        technique query string false "Artisanal technique"
// @Param        in_stock_only query bool false "Only products with stock"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(created_at, price, name)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]catalog.ProductListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalog.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter, optionalActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, products, total, page, pageSize)
}

// Update godoc
// @ID           updateProduct
// @Summary      Update a product
// @Description  Update a product's descriptive fields. Only the owning seller or a moderator may update a listing.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.UpdateProductRequest true "Product update request"
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// ChangePrice godoc
// @ID           changeProductPrice
// @Summary      Change a product's price
// @Description  Set a new price in BRL for a listing
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.ChangePriceRequest true "New price"
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/price [put]
func (h *ProductHandler) ChangePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.ChangePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.productService.ChangePrice(c.Request.Context(), id, actor, req.Price)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Publish godoc
// @ID           publishProduct
// @Summary      Publish a product
// @Description  Move a draft listing into the public catalog. Requires an active category, a positive price and complete origin details.
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/publish [post]
func (h *ProductHandler) Publish(c *gin.Context) {
	h.lifecycle(c, h.productService.Publish)
}

// Archive godoc
// @ID           archiveProduct
// @Summary      Archive a product
// @Description  Remove a listing from the public catalog without deleting it
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/archive [post]
func (h *ProductHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.productService.Archive)
}

func (h *ProductHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor catalog.Actor) (*catalog.ProductResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	product, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// AdjustStock godoc
// @ID           adjustProductStock
// @Summary      Adjust product stock
// @Description  Apply a positive or negative delta to a product's stock quantity. Stock never goes below zero.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.AdjustStockRequest true "Stock delta"
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), id, actor, req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Description  Delete a listing. Only the owning seller or a moderator may delete it.
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id, actor); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Product deleted successfully"})
}

// CountByStatus godoc
// @ID           countProductsByStatus
// @Summary      Count products by status
// @Description  Count products per lifecycle status. Sellers see their own counts; moderators may pass seller_id or omit it for marketplace totals.
// @Tags         products
// @Produce      json
// @Param        seller_id query string false "Filter by seller" format(uuid)
// @Success      200 {object} APIResponse[map[string]int64]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/stats/count [get]
func (h *ProductHandler) CountByStatus(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var sellerID *uuid.UUID
	if raw := c.Query("seller_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid seller ID")
			return
		}
		sellerID = &id
	}

	// Sellers only ever see their own numbers
	if !actor.CanManage {
		sellerID = &actor.UserID
	}

	counts, err := h.productService.CountByStatus(c.Request.Context(), sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}

// PresignImageUpload godoc
// @ID           presignProductImageUpload
// @Summary      Presign an image upload
// @Description  Issue a short-lived S3 upload URL for a product image. The client uploads directly to object storage and then attaches the object key.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.PresignUploadRequest true "Upload descriptor"
// @Success      200 {object} APIResponse[catalog.PresignUploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/images/presign [post]
func (h *ProductHandler) PresignImageUpload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.imageService.PresignUpload(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AttachImage godoc
// @ID           attachProductImage
// @Summary      Attach an uploaded image
// @Description  Register an uploaded object as a product image. The first image becomes primary automatically.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalog.AttachImageRequest true "Uploaded object key"
// @Success      201 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/images [post]
func (h *ProductHandler) AttachImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	var req catalog.AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.imageService.Attach(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// RemoveImage godoc
// @ID           removeProductImage
// @Summary      Remove a product image
// @Description  Detach an image from a product and delete the stored object
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        imageID path string true "Image ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/images/{imageID} [delete]
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	h.imageAction(c, h.imageService.Remove)
}

// SetPrimaryImage godoc
// @ID           setPrimaryProductImage
// @Summary      Set the primary product image
// @Description  Mark an image as the product's primary picture
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        imageID path string true "Image ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/images/{imageID}/primary [put]
func (h *ProductHandler) SetPrimaryImage(c *gin.Context) {
	h.imageAction(c, h.imageService.SetPrimary)
}

func (h *ProductHandler) imageAction(c *gin.Context, fn func(ctx context.Context, productID, imageID uuid.UUID, actor catalog.Actor) (*catalog.ProductResponse, error)) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	imageID, err := uuid.Parse(c.Param("imageID"))
	if err != nil {
		h.BadRequest(c, "Invalid image ID")
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	product, err := fn(c.Request.Context(), productID, imageID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}
