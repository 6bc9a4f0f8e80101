package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserFilter defines the filter criteria for user queries
type UserFilter struct {
	Keyword string      // Search in username, email, and full name
	Status  *UserStatus // Filter by status
	RoleID  *uuid.UUID  // Filter by assigned role
	// Sorting
	OrderBy  string // Whitelisted column
	OrderDir string // asc or desc
	// Pagination
	Page  int
	Limit int
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Delete deletes a user by ID
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds a user by ID with roles loaded
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername finds a user by username (case-insensitive)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll finds users matching the filter
	FindAll(ctx context.Context, filter *UserFilter) ([]*User, error)

	// Count counts users matching the filter
	Count(ctx context.Context, filter *UserFilter) (int64, error)

	// ExistsByEmail checks if a user with the given email exists
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername checks if a user with the given username exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SaveRoles saves the user's role assignments (replaces existing)
	SaveRoles(ctx context.Context, user *User) error

	// LoadRoles loads the user's roles with their permissions
	LoadRoles(ctx context.Context, user *User) error

	// CountByRole counts how many users hold the given role
	CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error)
}
