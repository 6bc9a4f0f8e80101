package handler

// =====================
// User Request DTOs
// =====================

// CreateUserRequest represents the request body for creating a user
// @Name HandlerCreateUserRequest
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=32"`
	Email    string   `json:"email" binding:"required,email,max=254"`
	Password string   `json:"password" binding:"required,min=8,max=128"`
	FullName string   `json:"full_name" binding:"omitempty,max=128"`
	Phone    string   `json:"phone" binding:"omitempty,max=20"`
	RoleIDs  []string `json:"role_ids" binding:"omitempty,dive,uuid"`
}

// UpdateUserRequest represents the request body for updating a user's
// profile. The submitted fields replace the stored ones.
// @Name HandlerUpdateUserRequest
type UpdateUserRequest struct {
	FullName string `json:"full_name" binding:"omitempty,max=128"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Avatar   string `json:"avatar" binding:"omitempty,max=500"`
}

// ResetPasswordRequest represents the request body for resetting a user's password
// @Name HandlerResetPasswordRequest
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// AssignRolesRequest represents the request body for assigning roles to a user
// @Name HandlerAssignRolesRequest
type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required,min=1,dive,uuid"`
}

// LockUserRequest represents the request body for locking a user
// @Name HandlerLockUserRequest
type LockUserRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"omitempty,min=1,max=43200"`
}

// UserListQuery represents query parameters for listing users
// @Name HandlerUserListQuery
type UserListQuery struct {
	Keyword  string `form:"keyword" binding:"omitempty"`
	Status   string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	RoleID   string `form:"role_id" binding:"omitempty,uuid"`
	SortBy   string `form:"sort_by" binding:"omitempty"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// Role Request DTOs
// =====================

// CreateRoleRequest represents the request body for creating a role
// @Name HandlerCreateRoleRequest
type CreateRoleRequest struct {
	Code        string `json:"code" binding:"required,min=2,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=255"`
	SortOrder   int    `json:"sort_order" binding:"omitempty"`
}

// UpdateRoleRequest represents the request body for updating a role
// @Name HandlerUpdateRoleRequest
type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	SortOrder   *int    `json:"sort_order" binding:"omitempty"`
	IsEnabled   *bool   `json:"is_enabled" binding:"omitempty"`
}

// SetPermissionsRequest represents the request body for replacing a role's permissions
// @Name HandlerSetPermissionsRequest
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

// GrantPermissionRequest represents the request body for granting a single permission
// @Name HandlerGrantPermissionRequest
type GrantPermissionRequest struct {
	Code string `json:"code" binding:"required"`
}

// RoleListQuery represents query parameters for listing roles
// @Name HandlerRoleListQuery
type RoleListQuery struct {
	Keyword   string `form:"keyword" binding:"omitempty"`
	IsEnabled *bool  `form:"is_enabled" binding:"omitempty"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// Permission Request DTOs
// =====================

// CreatePermissionRequest represents the request body for creating a permission
// @Name HandlerCreatePermissionRequest
type CreatePermissionRequest struct {
	Code        string `json:"code" binding:"required,min=3,max=100"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

// UpdatePermissionRequest represents the request body for updating a permission
// @Name HandlerUpdatePermissionRequest
type UpdatePermissionRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	IsEnabled   *bool   `json:"is_enabled" binding:"omitempty"`
}

// BulkCreatePermissionsRequest represents the request body for bulk permission creation
// @Name HandlerBulkCreatePermissionsRequest
type BulkCreatePermissionsRequest struct {
	Permissions []CreatePermissionRequest `json:"permissions" binding:"required,min=1,max=100,dive"`
}

// PermissionListQuery represents query parameters for listing permissions
// @Name HandlerPermissionListQuery
type PermissionListQuery struct {
	Keyword  string `form:"keyword" binding:"omitempty"`
	Resource string `form:"resource" binding:"omitempty"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
