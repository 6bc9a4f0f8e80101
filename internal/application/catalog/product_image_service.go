package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/shared"
)

// ObjectStat describes a stored object
type ObjectStat struct {
	Size        int64
	ContentType string
}

// ObjectStorage defines the interface for object storage operations
// Implemented by the infrastructure layer (S3 in production)
type ObjectStorage interface {
	// GenerateUploadURL generates a presigned URL for uploading an object
	GenerateUploadURL(ctx context.Context, objectKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, objectKey string, expiresIn time.Duration) (string, time.Time, error)

	// StatObject returns object metadata, or shared.ErrNotFound
	StatObject(ctx context.Context, objectKey string) (*ObjectStat, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, objectKey string) error

	// PublicURL returns the stable public URL for an object
	PublicURL(objectKey string) string
}

// PresignUploadRequest asks for a presigned upload slot for a product image
type PresignUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,min=1"`
}

// PresignUploadResponse carries the presigned upload URL
type PresignUploadResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AttachImageRequest registers an uploaded object as a product image
type AttachImageRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductImageServiceConfig holds configuration for the image service
type ProductImageServiceConfig struct {
	// UploadURLExpiry is the duration for which upload URLs are valid
	UploadURLExpiry time.Duration
}

// DefaultProductImageServiceConfig returns the default configuration
func DefaultProductImageServiceConfig() ProductImageServiceConfig {
	return ProductImageServiceConfig{
		UploadURLExpiry: 15 * time.Minute,
	}
}

// ProductImageService handles product image uploads and registration
type ProductImageService struct {
	productRepo catalog.ProductRepository
	storage     ObjectStorage
	config      ProductImageServiceConfig
}

// NewProductImageService creates a new ProductImageService
func NewProductImageService(
	productRepo catalog.ProductRepository,
	storage ObjectStorage,
) *ProductImageService {
	return &ProductImageService{
		productRepo: productRepo,
		storage:     storage,
		config:      DefaultProductImageServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *ProductImageService) SetConfig(config ProductImageServiceConfig) {
	s.config = config
}

// PresignUpload validates the upload and returns a presigned PUT URL
// The object key follows products/{productID}/{uuid}.{ext}
func (s *ProductImageService) PresignUpload(ctx context.Context, productID uuid.UUID, actor Actor, req PresignUploadRequest) (*PresignUploadResponse, error) {
	product, err := s.findOwned(ctx, productID, actor)
	if err != nil {
		return nil, err
	}

	if !catalog.IsAllowedImageContentType(req.ContentType) {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			"Content type must be image/jpeg, image/png, or image/webp")
	}
	if req.SizeBytes > catalog.MaxImageFileSize {
		return nil, shared.NewDomainError("IMAGE_TOO_LARGE",
			fmt.Sprintf("Image size cannot exceed %d bytes", catalog.MaxImageFileSize))
	}

	ext, err := catalog.ImageExtensionForContentType(req.ContentType)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("products/%s/%s.%s", product.ID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, objectKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &PresignUploadResponse{
		ObjectKey: objectKey,
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Attach registers an uploaded object as a product image
// The object must already exist in storage
func (s *ProductImageService) Attach(ctx context.Context, productID uuid.UUID, actor Actor, req AttachImageRequest) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, productID, actor)
	if err != nil {
		return nil, err
	}

	// Only accept keys under this product's prefix
	expectedPrefix := fmt.Sprintf("products/%s/", product.ID)
	if len(req.ObjectKey) <= len(expectedPrefix) || req.ObjectKey[:len(expectedPrefix)] != expectedPrefix {
		return nil, shared.NewDomainError("INVALID_OBJECT_KEY", "Object key does not belong to this product")
	}

	stat, err := s.storage.StatObject(ctx, req.ObjectKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("OBJECT_NOT_UPLOADED", "Upload the object before attaching it")
		}
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to verify the uploaded object")
	}

	image, err := catalog.NewProductImage(req.ObjectKey, s.storage.PublicURL(req.ObjectKey), stat.ContentType, stat.Size)
	if err != nil {
		return nil, err
	}

	if err := product.AddImage(*image); err != nil {
		return nil, err
	}
	if req.IsPrimary {
		if err := product.SetPrimaryImage(image.ID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.SaveImages(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Remove detaches an image and deletes the stored object
func (s *ProductImageService) Remove(ctx context.Context, productID, imageID uuid.UUID, actor Actor) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, productID, actor)
	if err != nil {
		return nil, err
	}

	var objectKey string
	for i := range product.Images {
		if product.Images[i].ID == imageID {
			objectKey = product.Images[i].ObjectKey
			break
		}
	}

	if err := product.RemoveImage(imageID); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveImages(ctx, product); err != nil {
		return nil, err
	}

	// Storage cleanup failing is tolerable, the object is orphaned but unreferenced
	if objectKey != "" {
		_ = s.storage.DeleteObject(ctx, objectKey)
	}

	response := ToProductResponse(product)
	return &response, nil
}

// SetPrimary marks an image as the product's primary image
func (s *ProductImageService) SetPrimary(ctx context.Context, productID, imageID uuid.UUID, actor Actor) (*ProductResponse, error) {
	product, err := s.findOwned(ctx, productID, actor)
	if err != nil {
		return nil, err
	}

	if err := product.SetPrimaryImage(imageID); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveImages(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// findOwned loads a product and verifies the actor may modify it
func (s *ProductImageService) findOwned(ctx context.Context, id uuid.UUID, actor Actor) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	if !actor.CanManage && !product.IsOwnedBy(actor.UserID) {
		return nil, shared.NewDomainError("NOT_PRODUCT_OWNER", "You do not own this product listing")
	}
	return product, nil
}
