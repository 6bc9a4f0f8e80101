package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/moa/backend/internal/domain/shared"
)

// Permission codes use dotted resource.action form, e.g. "products.create"
// The resource part may itself be dotted ("orders.items"); the action is
// always the last segment.
var permissionCodeRegex = regexp.MustCompile(`^[a-z_]+(\.[a-z_]+)+$`)

// Permission represents a named capability that can be granted to roles
// It is an aggregate root with its own CRUD lifecycle
type Permission struct {
	shared.BaseAggregateRoot
	Code        string // e.g. "products.create"
	Name        string
	Description string
	IsEnabled   bool
}

// NewPermission creates a new permission with the given dotted code
func NewPermission(code, name, description string) (*Permission, error) {
	code, err := NormalizePermissionCode(code)
	if err != nil {
		return nil, err
	}
	if err := validatePermissionName(name); err != nil {
		return nil, err
	}

	perm := &Permission{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(name),
		Description:       strings.TrimSpace(description),
		IsEnabled:         true,
	}

	return perm, nil
}

// Update updates the permission's name and description
func (p *Permission) Update(name, description string) error {
	if err := validatePermissionName(name); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Enable enables the permission
func (p *Permission) Enable() error {
	if p.IsEnabled {
		return shared.NewDomainError("ALREADY_ENABLED", "Permission is already enabled")
	}

	p.IsEnabled = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Disable disables the permission
func (p *Permission) Disable() error {
	if !p.IsEnabled {
		return shared.NewDomainError("ALREADY_DISABLED", "Permission is already disabled")
	}

	p.IsEnabled = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Resource returns the resource part of the code (all segments but the last)
func (p *Permission) Resource() string {
	idx := strings.LastIndex(p.Code, ".")
	if idx < 0 {
		return p.Code
	}
	return p.Code[:idx]
}

// Action returns the action part of the code (the last segment)
func (p *Permission) Action() string {
	idx := strings.LastIndex(p.Code, ".")
	if idx < 0 {
		return ""
	}
	return p.Code[idx+1:]
}

// Equals checks if two permissions refer to the same capability
func (p Permission) Equals(other Permission) bool {
	return p.Code == other.Code
}

// IsEmpty returns true if the permission has no code
func (p Permission) IsEmpty() bool {
	return p.Code == ""
}

// NormalizePermissionCode lowercases, trims, and validates a permission code
func NormalizePermissionCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", shared.NewDomainError("INVALID_PERMISSION_CODE", "Permission code cannot be empty")
	}
	if len(code) > 100 {
		return "", shared.NewDomainError("INVALID_PERMISSION_CODE", "Permission code cannot exceed 100 characters")
	}
	if !permissionCodeRegex.MatchString(code) {
		return "", shared.NewDomainError("INVALID_PERMISSION_CODE", "Permission code must be in dotted 'resource.action' form")
	}
	return code, nil
}

// SplitPermissionCode splits a code into its resource and action parts
func SplitPermissionCode(code string) (resource, action string, err error) {
	code, err = NormalizePermissionCode(code)
	if err != nil {
		return "", "", err
	}
	idx := strings.LastIndex(code, ".")
	return code[:idx], code[idx+1:], nil
}

func validatePermissionName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_PERMISSION_NAME", "Permission name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_PERMISSION_NAME", "Permission name cannot exceed 100 characters")
	}
	return nil
}

// Well-known permission codes seeded at install time
const (
	PermissionUsersRead         = "users.read"
	PermissionUsersCreate       = "users.create"
	PermissionUsersUpdate       = "users.update"
	PermissionUsersDelete       = "users.delete"
	PermissionUsersAssignRoles  = "users.assign_roles"
	PermissionRolesRead         = "roles.read"
	PermissionRolesCreate       = "roles.create"
	PermissionRolesUpdate       = "roles.update"
	PermissionRolesDelete       = "roles.delete"
	PermissionPermissionsRead   = "permissions.read"
	PermissionPermissionsManage = "permissions.manage"
	PermissionCategoriesManage  = "categories.manage"
	PermissionProductsRead      = "products.read"
	PermissionProductsCreate    = "products.create"
	PermissionProductsUpdate    = "products.update"
	PermissionProductsDelete    = "products.delete"
	PermissionProductsPublish   = "products.publish"
	PermissionOrdersRead        = "orders.read"
	PermissionOrdersReadAll     = "orders.read_all"
	PermissionOrdersUpdate      = "orders.update"
	PermissionOrdersShip        = "orders.ship"
	PermissionOrdersCancel      = "orders.cancel"
)
