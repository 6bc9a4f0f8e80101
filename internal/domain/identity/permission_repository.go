package identity

import (
	"context"

	"github.com/google/uuid"
)

// PermissionFilter defines the filter criteria for permission queries
type PermissionFilter struct {
	Keyword   string // Search in code, name, and description
	Resource  string // Filter by resource prefix
	IsEnabled *bool  // Filter by enabled status
	// Pagination
	Page  int
	Limit int
}

// ResourceCount pairs a resource with the number of permissions under it
type ResourceCount struct {
	Resource string
	Count    int64
}

// PermissionUsage pairs a permission code with the number of roles holding it
type PermissionUsage struct {
	Code      string
	RoleCount int64
}

// PermissionRepository defines the interface for permission persistence operations
type PermissionRepository interface {
	// Create creates a new permission
	Create(ctx context.Context, perm *Permission) error

	// Update updates an existing permission
	Update(ctx context.Context, perm *Permission) error

	// Delete deletes a permission by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a permission by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Permission, error)

	// FindByCode finds a permission by code
	FindByCode(ctx context.Context, code string) (*Permission, error)

	// FindByCodes finds permissions matching any of the given codes
	FindByCodes(ctx context.Context, codes []string) ([]*Permission, error)

	// FindByIDs finds multiple permissions by IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Permission, error)

	// FindAll finds permissions matching the filter
	FindAll(ctx context.Context, filter *PermissionFilter) ([]*Permission, error)

	// Count counts permissions matching the filter
	Count(ctx context.Context, filter *PermissionFilter) (int64, error)

	// ExistsByCode checks if a permission with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// FindByResource finds all permissions under a resource
	FindByResource(ctx context.Context, resource string) ([]*Permission, error)

	// ListResources returns the distinct resources in sorted order
	ListResources(ctx context.Context) ([]string, error)

	// CountByResource returns permission counts grouped by resource
	CountByResource(ctx context.Context) ([]ResourceCount, error)

	// CountRoleReferences counts how many roles hold the permission
	CountRoleReferences(ctx context.Context, permissionID uuid.UUID) (int64, error)

	// MostReferenced returns the permissions held by the most roles
	MostReferenced(ctx context.Context, limit int) ([]PermissionUsage, error)
}
