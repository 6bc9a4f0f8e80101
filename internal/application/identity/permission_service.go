package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PermissionService handles permission catalog management
type PermissionService struct {
	permRepo identity.PermissionRepository
	roleRepo identity.RoleRepository
	logger   *zap.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	permRepo identity.PermissionRepository,
	roleRepo identity.RoleRepository,
	logger *zap.Logger,
) *PermissionService {
	return &PermissionService{
		permRepo: permRepo,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// Create creates a new permission
func (s *PermissionService) Create(ctx context.Context, input CreatePermissionInput) (*PermissionResponse, error) {
	code, err := identity.NormalizePermissionCode(input.Code)
	if err != nil {
		return nil, err
	}

	exists, err := s.permRepo.ExistsByCode(ctx, code)
	if err != nil {
		s.logger.Error("Failed to check permission code existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check permission code availability")
	}
	if exists {
		return nil, shared.NewDomainError("PERMISSION_CODE_EXISTS", "Permission code already exists")
	}

	perm, err := identity.NewPermission(code, input.Name, input.Description)
	if err != nil {
		return nil, err
	}

	if err := s.permRepo.Create(ctx, perm); err != nil {
		s.logger.Error("Failed to create permission", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create permission")
	}

	s.logger.Info("Permission created",
		zap.String("permission_id", perm.ID.String()),
		zap.String("code", perm.Code))

	return NewPermissionResponse(perm), nil
}

// BulkCreate creates multiple permissions, skipping codes that already exist
func (s *PermissionService) BulkCreate(ctx context.Context, input BulkCreatePermissionsInput) (*BulkCreatePermissionsResult, error) {
	result := &BulkCreatePermissionsResult{
		Created: make([]PermissionResponse, 0, len(input.Permissions)),
		Skipped: make([]string, 0),
		Errors:  make([]BulkCreateItemError, 0),
	}

	for i, item := range input.Permissions {
		code, err := identity.NormalizePermissionCode(item.Code)
		if err != nil {
			result.Errors = append(result.Errors, BulkCreateItemError{
				Index:   i,
				Code:    item.Code,
				Message: err.Error(),
			})
			continue
		}

		exists, err := s.permRepo.ExistsByCode(ctx, code)
		if err != nil {
			s.logger.Error("Failed to check permission code", zap.String("code", code), zap.Error(err))
			result.Errors = append(result.Errors, BulkCreateItemError{
				Index:   i,
				Code:    code,
				Message: "failed to check code availability",
			})
			continue
		}
		if exists {
			result.Skipped = append(result.Skipped, code)
			continue
		}

		perm, err := identity.NewPermission(code, item.Name, item.Description)
		if err != nil {
			result.Errors = append(result.Errors, BulkCreateItemError{
				Index:   i,
				Code:    code,
				Message: err.Error(),
			})
			continue
		}

		if err := s.permRepo.Create(ctx, perm); err != nil {
			s.logger.Error("Failed to create permission", zap.String("code", code), zap.Error(err))
			result.Errors = append(result.Errors, BulkCreateItemError{
				Index:   i,
				Code:    code,
				Message: "failed to persist permission",
			})
			continue
		}

		result.Created = append(result.Created, *NewPermissionResponse(perm))
	}

	result.TotalCreated = len(result.Created)
	result.TotalSkipped = len(result.Skipped)
	result.TotalErrors = len(result.Errors)

	s.logger.Info("Bulk permission create finished",
		zap.Int("created", result.TotalCreated),
		zap.Int("skipped", result.TotalSkipped),
		zap.Int("errors", result.TotalErrors))

	return result, nil
}

// GetByID retrieves a permission by ID
func (s *PermissionService) GetByID(ctx context.Context, id uuid.UUID) (*PermissionResponse, error) {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewPermissionResponse(perm), nil
}

// GetByCode retrieves a permission by its dotted code
func (s *PermissionService) GetByCode(ctx context.Context, code string) (*PermissionResponse, error) {
	normalized, err := identity.NormalizePermissionCode(code)
	if err != nil {
		return nil, err
	}
	perm, err := s.permRepo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PERMISSION_NOT_FOUND", "Permission not found")
		}
		s.logger.Error("Failed to find permission by code", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find permission")
	}
	return NewPermissionResponse(perm), nil
}

// List retrieves a paginated list of permissions
func (s *PermissionService) List(ctx context.Context, input ListPermissionsInput) (*ListPermissionsResult, error) {
	filter := &identity.PermissionFilter{
		Keyword:  input.Keyword,
		Resource: input.Resource,
		Page:     input.Page,
		Limit:    input.Limit,
	}

	perms, err := s.permRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list permissions")
	}

	total, err := s.permRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list permissions")
	}

	items := make([]PermissionResponse, len(perms))
	for i, perm := range perms {
		items[i] = *NewPermissionResponse(perm)
	}

	return &ListPermissionsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// Update updates a permission's editable fields
func (s *PermissionService) Update(ctx context.Context, id uuid.UUID, input UpdatePermissionInput) (*PermissionResponse, error) {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	name := perm.Name
	description := perm.Description
	if input.Name != nil {
		name = *input.Name
	}
	if input.Description != nil {
		description = *input.Description
	}
	if err := perm.Update(name, description); err != nil {
		return nil, err
	}

	if input.IsEnabled != nil {
		if *input.IsEnabled {
			if err := perm.Enable(); err != nil {
				return nil, err
			}
		} else {
			if err := perm.Disable(); err != nil {
				return nil, err
			}
		}
	}

	if err := s.permRepo.Update(ctx, perm); err != nil {
		s.logger.Error("Failed to update permission", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update permission")
	}

	s.logger.Info("Permission updated", zap.String("permission_id", id.String()))

	return NewPermissionResponse(perm), nil
}

// Delete removes a permission that is not referenced by any role
func (s *PermissionService) Delete(ctx context.Context, id uuid.UUID) error {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.permRepo.CountRoleReferences(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count permission references", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check permission usage")
	}
	if refs > 0 {
		return shared.NewDomainError("PERMISSION_IN_USE", "Permission is granted to roles and cannot be deleted")
	}

	if err := s.permRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete permission", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete permission")
	}

	s.logger.Info("Permission deleted",
		zap.String("permission_id", id.String()),
		zap.String("code", perm.Code))

	return nil
}

// ListResources returns the distinct permission resources
func (s *PermissionService) ListResources(ctx context.Context) ([]ResourceActions, error) {
	resources, err := s.permRepo.ListResources(ctx)
	if err != nil {
		s.logger.Error("Failed to list resources", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list resources")
	}

	result := make([]ResourceActions, 0, len(resources))
	for _, resource := range resources {
		perms, err := s.permRepo.FindByResource(ctx, resource)
		if err != nil {
			s.logger.Error("Failed to load resource permissions",
				zap.String("resource", resource),
				zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list resources")
		}
		actions := make([]string, 0, len(perms))
		for _, p := range perms {
			actions = append(actions, p.Action())
		}
		result = append(result, ResourceActions{Resource: resource, Actions: actions})
	}

	return result, nil
}

// ActionsForResource returns the actions registered for a single resource
func (s *PermissionService) ActionsForResource(ctx context.Context, resource string) (*ResourceActions, error) {
	perms, err := s.permRepo.FindByResource(ctx, resource)
	if err != nil {
		s.logger.Error("Failed to load resource permissions",
			zap.String("resource", resource),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list resource actions")
	}
	if len(perms) == 0 {
		return nil, shared.NewDomainError("RESOURCE_NOT_FOUND", "No permissions registered for this resource")
	}

	actions := make([]string, 0, len(perms))
	for _, p := range perms {
		actions = append(actions, p.Action())
	}
	return &ResourceActions{Resource: resource, Actions: actions}, nil
}

// Grouped returns all permissions grouped by resource
func (s *PermissionService) Grouped(ctx context.Context) ([]GroupedPermissions, error) {
	resources, err := s.permRepo.ListResources(ctx)
	if err != nil {
		s.logger.Error("Failed to list resources", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to group permissions")
	}

	result := make([]GroupedPermissions, 0, len(resources))
	for _, resource := range resources {
		perms, err := s.permRepo.FindByResource(ctx, resource)
		if err != nil {
			s.logger.Error("Failed to load resource permissions",
				zap.String("resource", resource),
				zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to group permissions")
		}
		items := make([]PermissionResponse, len(perms))
		for i, p := range perms {
			items[i] = *NewPermissionResponse(p)
		}
		result = append(result, GroupedPermissions{Resource: resource, Permissions: items})
	}

	return result, nil
}

// Stats summarizes the permission catalog
func (s *PermissionService) Stats(ctx context.Context) (*PermissionStats, error) {
	total, err := s.permRepo.Count(ctx, &identity.PermissionFilter{})
	if err != nil {
		s.logger.Error("Failed to count permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to compute permission stats")
	}

	byResource, err := s.permRepo.CountByResource(ctx)
	if err != nil {
		s.logger.Error("Failed to count permissions by resource", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to compute permission stats")
	}

	mostUsed, err := s.permRepo.MostReferenced(ctx, 10)
	if err != nil {
		s.logger.Error("Failed to find most referenced permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to compute permission stats")
	}

	stats := &PermissionStats{
		TotalPermissions: total,
		TotalResources:   int64(len(byResource)),
		ByResource:       make([]ResourceCountItem, len(byResource)),
		MostUsed:         make([]PermissionUsageItem, len(mostUsed)),
	}
	for i, rc := range byResource {
		stats.ByResource[i] = ResourceCountItem{Resource: rc.Resource, Count: rc.Count}
	}
	for i, usage := range mostUsed {
		stats.MostUsed[i] = PermissionUsageItem{Code: usage.Code, RoleCount: usage.RoleCount}
	}

	return stats, nil
}

// findPermission loads a permission or maps the not-found case to a domain error
func (s *PermissionService) findPermission(ctx context.Context, id uuid.UUID) (*identity.Permission, error) {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PERMISSION_NOT_FOUND", "Permission not found")
		}
		s.logger.Error("Failed to find permission", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find permission")
	}
	return perm, nil
}
