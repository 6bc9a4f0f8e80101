package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moa/backend/internal/application/identity"
)

// PermissionHandler handles permission catalog HTTP requests
type PermissionHandler struct {
	BaseHandler
	permissionService *identity.PermissionService
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permissionService *identity.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
	}
}

// Create godoc
// @ID           createPermission
// @Summary      Create a new permission
// @Description  Register a permission code in the catalog
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body CreatePermissionRequest true "Permission creation request"
// @Success      201 {object} APIResponse[identity.PermissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions [post]
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	perm, err := h.permissionService.Create(c.Request.Context(), identity.CreatePermissionInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, perm)
}

// BulkCreate godoc
// @ID           bulkCreatePermissions
// @Summary      Create permissions in bulk
// @Description  Register multiple permission codes at once. Already existing codes are skipped; invalid entries are reported per item.
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        request body BulkCreatePermissionsRequest true "Permissions to create"
// @Success      200 {object} APIResponse[identity.BulkCreatePermissionsResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/bulk [post]
func (h *PermissionHandler) BulkCreate(c *gin.Context) {
	var req BulkCreatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := identity.BulkCreatePermissionsInput{
		Permissions: make([]identity.CreatePermissionInput, len(req.Permissions)),
	}
	for i, p := range req.Permissions {
		input.Permissions[i] = identity.CreatePermissionInput{
			Code:        p.Code,
			Name:        p.Name,
			Description: p.Description,
		}
	}

	result, err := h.permissionService.BulkCreate(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetByID godoc
// @ID           getPermissionById
// @Summary      Get a permission by ID
// @Description  Retrieve a single permission from the catalog
// @Tags         permissions
// @Produce      json
// @Param        id path string true "Permission ID" format(uuid)
// @Success      200 {object} APIResponse[identity.PermissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/{id} [get]
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	perm, err := h.permissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, perm)
}

// List godoc
// @ID           listPermissions
// @Summary      List permissions
// @Description  Get a paginated list of permissions
// @Tags         permissions
// @Produce      json
// @Param        keyword query string false "Search over code and name"
// @Param        resource query string false "Filter by resource"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]identity.PermissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	var query PermissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.permissionService.List(c.Request.Context(), identity.ListPermissionsInput{
		Keyword:  query.Keyword,
		Resource: query.Resource,
		Page:     query.Page,
		Limit:    query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Limit)
}

// Update godoc
// @ID           updatePermission
// @Summary      Update a permission
// @Description  Update a permission's name, description or enabled state. The code is immutable.
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Permission ID" format(uuid)
// @Param        request body UpdatePermissionRequest true "Permission update request"
// @Success      200 {object} APIResponse[identity.PermissionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/{id} [put]
func (h *PermissionHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	perm, err := h.permissionService.Update(c.Request.Context(), id, identity.UpdatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
		IsEnabled:   req.IsEnabled,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, perm)
}

// Delete godoc
// @ID           deletePermission
// @Summary      Delete a permission
// @Description  Delete a permission that is not referenced by any role
// @Tags         permissions
// @Produce      json
// @Param        id path string true "Permission ID" format(uuid)
// @Success      200 {object} APIResponse[MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/{id} [delete]
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	if err := h.permissionService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Permission deleted successfully"})
}

// ListResources godoc
// @ID           listPermissionResources
// @Summary      List permission resources
// @Description  List the distinct resources with their registered actions
// @Tags         permissions
// @Produce      json
// @Success      200 {object} APIResponse[[]identity.ResourceActions]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/resources/list [get]
func (h *PermissionHandler) ListResources(c *gin.Context) {
	resources, err := h.permissionService.ListResources(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resources)
}

// ActionsForResource godoc
// @ID           listResourceActions
// @Summary      List actions for a resource
// @Description  List the actions registered under a single resource
// @Tags         permissions
// @Produce      json
// @Param        resource path string true "Resource name"
// @Success      200 {object} APIResponse[identity.ResourceActions]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/resources/{resource}/actions [get]
func (h *PermissionHandler) ActionsForResource(c *gin.Context) {
	resource := c.Param("resource")
	if resource == "" {
		h.BadRequest(c, "Resource name is required")
		return
	}

	actions, err := h.permissionService.ActionsForResource(c.Request.Context(), resource)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, actions)
}

// Grouped godoc
// @ID           groupPermissionsByResource
// @Summary      Group permissions by resource
// @Description  List all permissions grouped by their resource
// @Tags         permissions
// @Produce      json
// @Success      200 {object} APIResponse[[]identity.GroupedPermissions]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/grouped-by-resource [get]
func (h *PermissionHandler) Grouped(c *gin.Context) {
	groups, err := h.permissionService.Grouped(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, groups)
}

// Stats godoc
// @ID           getPermissionStats
// @Summary      Get permission statistics
// @Description  Summarize the permission catalog: totals, per-resource counts and most referenced codes
// @Tags         permissions
// @Produce      json
// @Success      200 {object} APIResponse[identity.PermissionStats]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /permissions/stats [get]
func (h *PermissionHandler) Stats(c *gin.Context) {
	stats, err := h.permissionService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
