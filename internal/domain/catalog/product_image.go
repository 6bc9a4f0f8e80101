package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/shared"
)

// MaxImageFileSize is the maximum allowed image size (10MB)
const MaxImageFileSize = 10 * 1024 * 1024

// AllowedImageContentTypes lists the accepted upload MIME types
var AllowedImageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
}

// IsAllowedImageContentType reports whether the MIME type can be uploaded
func IsAllowedImageContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range AllowedImageContentTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// ImageExtensionForContentType returns the file extension for an allowed MIME type
func ImageExtensionForContentType(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "", shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be image/jpeg, image/png, or image/webp")
	}
}

// ProductImage represents an image attached to a product listing
// It is a sub-entity of the Product aggregate
type ProductImage struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ObjectKey   string // Key in object storage
	URL         string // Public URL served to clients
	ContentType string
	SizeBytes   int64
	Position    int
	IsPrimary   bool
	CreatedAt   time.Time
}

// NewProductImage creates a new product image after a confirmed upload
func NewProductImage(objectKey, url, contentType string, sizeBytes int64) (*ProductImage, error) {
	if err := validateObjectKey(objectKey); err != nil {
		return nil, err
	}
	if err := validateImageURL(url); err != nil {
		return nil, err
	}
	if !IsAllowedImageContentType(contentType) {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be image/jpeg, image/png, or image/webp")
	}
	if err := validateImageSize(sizeBytes); err != nil {
		return nil, err
	}

	return &ProductImage{
		ID:          uuid.New(),
		ObjectKey:   objectKey,
		URL:         url,
		ContentType: strings.ToLower(strings.TrimSpace(contentType)),
		SizeBytes:   sizeBytes,
		CreatedAt:   time.Now(),
	}, nil
}

// validation functions

func validateObjectKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_OBJECT_KEY", "Object key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_OBJECT_KEY", "Object key cannot exceed 500 characters")
	}
	// Prevent path traversal
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_OBJECT_KEY", "Object key cannot contain path traversal sequences")
	}
	// Keys are relative within the bucket
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_OBJECT_KEY", "Object key must be a relative path")
	}
	return nil
}

func validateImageURL(url string) error {
	if url == "" {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot be empty")
	}
	if len(url) > 1000 {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 1000 characters")
	}
	return nil
}

func validateImageSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_IMAGE_SIZE", "Image size must be greater than 0")
	}
	if size > MaxImageFileSize {
		return shared.NewDomainError("IMAGE_TOO_LARGE", "Image size cannot exceed 10MB")
	}
	return nil
}
