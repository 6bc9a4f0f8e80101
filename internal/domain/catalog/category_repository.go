package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryFilter defines the filter criteria for category queries
type CategoryFilter struct {
	Keyword    string // Search in name and description
	ActiveOnly bool   // Only active categories (public listing)
	// Pagination
	Page  int
	Limit int
}

// CategoryRepository defines the interface for category persistence operations
type CategoryRepository interface {
	// Create creates a new category
	Create(ctx context.Context, category *Category) error

	// Update updates an existing category
	Update(ctx context.Context, category *Category) error

	// Delete deletes a category by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindBySlug finds a category by slug
	FindBySlug(ctx context.Context, slug string) (*Category, error)

	// FindByName finds a category by name (case-insensitive)
	FindByName(ctx context.Context, name string) (*Category, error)

	// FindAll finds categories matching the filter
	FindAll(ctx context.Context, filter *CategoryFilter) ([]*Category, error)

	// Count counts categories matching the filter
	Count(ctx context.Context, filter *CategoryFilter) (int64, error)

	// ExistsByName checks if a category with the given name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// ExistsBySlug checks if a category with the given slug exists
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// CountProducts counts the products referencing a category
	CountProducts(ctx context.Context, categoryID uuid.UUID) (int64, error)
}
