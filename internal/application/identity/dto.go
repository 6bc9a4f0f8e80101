package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared/valueobject"
)

// RegisterInput contains the data needed to register a new account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
}

// LoginInput contains the credentials for a login attempt
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains tokens and user info after a successful login
type LoginResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	ExpiresIn             int64     `json:"expires_in"` // Access token lifetime in seconds
	User                  UserInfo  `json:"user"`
}

// RefreshTokenInput contains the refresh token to rotate
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the rotated token pair
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	TokenType             string    `json:"token_type"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	ExpiresIn             int64     `json:"expires_in"`
}

// LogoutInput contains the data needed to revoke tokens on logout
type LogoutInput struct {
	UserID     uuid.UUID
	JTI        string    // Access token ID to blacklist
	ExpiresAt  time.Time // Access token expiry (blacklist TTL)
	Everywhere bool      // Invalidate all outstanding sessions
}

// ChangePasswordInput contains the data for a password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UserInfo is the user representation embedded in auth responses
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Status      string    `json:"status"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserInfo builds a UserInfo from a user aggregate with roles loaded
func NewUserInfo(user *identity.User) UserInfo {
	roleCodes := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roleCodes = append(roleCodes, r.Code)
	}
	return UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		Avatar:      user.Avatar,
		Status:      string(user.Status),
		Roles:       roleCodes,
		Permissions: user.PermissionCodes(),
		CreatedAt:   user.CreatedAt,
	}
}

// UserResponse is the full user representation for admin endpoints
type UserResponse struct {
	ID            uuid.UUID                `json:"id"`
	Username      string                   `json:"username"`
	Email         string                   `json:"email"`
	FullName      string                   `json:"full_name"`
	Phone         string                   `json:"phone,omitempty"`
	Avatar        string                   `json:"avatar,omitempty"`
	Status        string                   `json:"status"`
	Roles         []RoleSummary            `json:"roles"`
	Addresses     []valueobject.AddressDTO `json:"addresses"`
	LastLoginAt   *time.Time               `json:"last_login_at,omitempty"`
	LoginFailures int                      `json:"login_failures"`
	LockedUntil   *time.Time               `json:"locked_until,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Version       int                      `json:"version"`
}

// UserListItem is the compact user representation for list endpoints
type UserListItem struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewUserResponse builds a UserResponse from a user aggregate
func NewUserResponse(user *identity.User) *UserResponse {
	roles := make([]RoleSummary, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, RoleSummary{ID: r.ID, Code: r.Code, Name: r.Name})
	}
	addresses := make([]valueobject.AddressDTO, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		addresses = append(addresses, a.ToDTO())
	}
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		Phone:         user.Phone,
		Avatar:        user.Avatar,
		Status:        string(user.Status),
		Roles:         roles,
		Addresses:     addresses,
		LastLoginAt:   user.LastLoginAt,
		LoginFailures: user.LoginFailures,
		LockedUntil:   user.LockedUntil,
		Notes:         user.Notes,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
		Version:       user.Version,
	}
}

// NewUserListItem builds a UserListItem from a user aggregate
func NewUserListItem(user *identity.User) UserListItem {
	return UserListItem{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Status:      string(user.Status),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// CreateUserInput contains the fields for an admin-provisioned account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	RoleIDs  []uuid.UUID
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	FullName string
	Phone    string
	Avatar   string
}

// ListUsersInput contains the filter options for user listing
type ListUsersInput struct {
	Keyword string
	Status  string
	RoleID  *uuid.UUID
	SortBy  string
	SortDir string
	Page    int
	Limit   int
}

// ListUsersResult contains a page of users
type ListUsersResult struct {
	Items      []UserListItem `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// RoleSummary is the compact role representation embedded in user responses
type RoleSummary struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// RoleResponse is the full role representation
type RoleResponse struct {
	ID           uuid.UUID            `json:"id"`
	Code         string               `json:"code"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	IsSystemRole bool                 `json:"is_system_role"`
	IsEnabled    bool                 `json:"is_enabled"`
	SortOrder    int                  `json:"sort_order"`
	Permissions  []PermissionResponse `json:"permissions,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// NewRoleResponse builds a RoleResponse from a role aggregate
func NewRoleResponse(role *identity.Role) *RoleResponse {
	perms := make([]PermissionResponse, 0, len(role.Permissions))
	for i := range role.Permissions {
		perms = append(perms, *NewPermissionResponse(&role.Permissions[i]))
	}
	return &RoleResponse{
		ID:           role.ID,
		Code:         role.Code,
		Name:         role.Name,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		IsEnabled:    role.IsEnabled,
		SortOrder:    role.SortOrder,
		Permissions:  perms,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
}

// CreateRoleInput contains the data for role creation
type CreateRoleInput struct {
	Code        string
	Name        string
	Description string
	SortOrder   int
}

// UpdateRoleInput contains the editable role fields
type UpdateRoleInput struct {
	Name        *string
	Description *string
	SortOrder   *int
	IsEnabled   *bool
}

// ListRolesInput contains the filter options for role listing
type ListRolesInput struct {
	Keyword   string
	IsEnabled *bool
	Page      int
	Limit     int
}

// ListRolesResult contains a page of roles
type ListRolesResult struct {
	Items      []RoleResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// PermissionResponse is the permission representation
type PermissionResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	IsEnabled   bool      `json:"is_enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPermissionResponse builds a PermissionResponse from a permission
func NewPermissionResponse(perm *identity.Permission) *PermissionResponse {
	return &PermissionResponse{
		ID:          perm.ID,
		Code:        perm.Code,
		Name:        perm.Name,
		Description: perm.Description,
		Resource:    perm.Resource(),
		Action:      perm.Action(),
		IsEnabled:   perm.IsEnabled,
		CreatedAt:   perm.CreatedAt,
		UpdatedAt:   perm.UpdatedAt,
	}
}

// CreatePermissionInput contains the data for permission creation
type CreatePermissionInput struct {
	Code        string
	Name        string
	Description string
}

// UpdatePermissionInput contains the editable permission fields
type UpdatePermissionInput struct {
	Name        *string
	Description *string
	IsEnabled   *bool
}

// ListPermissionsInput contains the filter options for permission listing
type ListPermissionsInput struct {
	Keyword  string
	Resource string
	Page     int
	Limit    int
}

// ListPermissionsResult contains a page of permissions
type ListPermissionsResult struct {
	Items      []PermissionResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

// BulkCreatePermissionsInput contains the permissions to create in bulk
type BulkCreatePermissionsInput struct {
	Permissions []CreatePermissionInput
}

// BulkCreateItemError describes a failed item in a bulk create
type BulkCreateItemError struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkCreatePermissionsResult summarizes a bulk permission create
type BulkCreatePermissionsResult struct {
	Created      []PermissionResponse  `json:"created"`
	Skipped      []string              `json:"skipped"` // Codes that already existed
	Errors       []BulkCreateItemError `json:"errors"`
	TotalCreated int                   `json:"total_created"`
	TotalSkipped int                   `json:"total_skipped"`
	TotalErrors  int                   `json:"total_errors"`
}

// ResourceActions pairs a resource with its available actions
type ResourceActions struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// GroupedPermissions pairs a resource with its permissions
type GroupedPermissions struct {
	Resource    string               `json:"resource"`
	Permissions []PermissionResponse `json:"permissions"`
}

// PermissionUsageItem pairs a permission code with its role reference count
type PermissionUsageItem struct {
	Code      string `json:"code"`
	RoleCount int64  `json:"role_count"`
}

// PermissionStats summarizes the permission catalog
type PermissionStats struct {
	TotalPermissions int64                 `json:"total_permissions"`
	TotalResources   int64                 `json:"total_resources"`
	ByResource       []ResourceCountItem   `json:"by_resource"`
	MostUsed         []PermissionUsageItem `json:"most_used"`
}

// ResourceCountItem pairs a resource with its permission count
type ResourceCountItem struct {
	Resource string `json:"resource"`
	Count    int64  `json:"count"`
}

// totalPages computes the number of pages for a paginated result
func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}
