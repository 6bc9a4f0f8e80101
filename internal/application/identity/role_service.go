package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RoleService handles role management operations
type RoleService struct {
	roleRepo       identity.RoleRepository
	userRepo       identity.UserRepository
	permRepo       identity.PermissionRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo identity.RoleRepository,
	userRepo identity.UserRepository,
	permRepo identity.PermissionRepository,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		userRepo: userRepo,
		permRepo: permRepo,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for role administration events
func (s *RoleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new role
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*RoleResponse, error) {
	s.logger.Info("Creating new role", zap.String("code", input.Code))

	if identity.IsReservedRoleCode(input.Code) {
		return nil, shared.NewDomainError("ROLE_CODE_RESERVED", "Role code is reserved for system roles")
	}

	exists, err := s.roleRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		s.logger.Error("Failed to check role code existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check role code availability")
	}
	if exists {
		return nil, shared.NewDomainError("ROLE_CODE_EXISTS", "Role code already exists")
	}

	role, err := identity.NewRole(input.Code, input.Name)
	if err != nil {
		return nil, err
	}

	if input.Description != "" {
		role.SetDescription(input.Description)
	}
	if input.SortOrder != 0 {
		role.SetSortOrder(input.SortOrder)
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		s.logger.Error("Failed to create role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create role")
	}

	s.publishEvents(ctx, role)

	s.logger.Info("Role created",
		zap.String("role_id", role.ID.String()),
		zap.String("code", role.Code))

	return NewRoleResponse(role), nil
}

// GetByID retrieves a role by ID with permissions loaded
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewRoleResponse(role), nil
}

// List retrieves a paginated list of roles
func (s *RoleService) List(ctx context.Context, input ListRolesInput) (*ListRolesResult, error) {
	filter := &identity.RoleFilter{
		Keyword:   input.Keyword,
		IsEnabled: input.IsEnabled,
		Page:      input.Page,
		Limit:     input.Limit,
	}

	roles, err := s.roleRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list roles")
	}

	total, err := s.roleRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list roles")
	}

	items := make([]RoleResponse, len(roles))
	for i, role := range roles {
		items[i] = *NewRoleResponse(role)
	}

	return &ListRolesResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// Update updates a role's editable fields
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, input UpdateRoleInput) (*RoleResponse, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := role.SetName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		role.SetDescription(*input.Description)
	}
	if input.SortOrder != nil {
		role.SetSortOrder(*input.SortOrder)
	}
	if input.IsEnabled != nil {
		if *input.IsEnabled {
			if err := role.Enable(); err != nil {
				return nil, err
			}
		} else {
			if err := role.Disable(); err != nil {
				return nil, err
			}
		}
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		s.logger.Error("Failed to update role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update role")
	}

	s.publishEvents(ctx, role)

	s.logger.Info("Role updated", zap.String("role_id", id.String()))

	return NewRoleResponse(role), nil
}

// Delete removes a role that is not a system role and not assigned to any user
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return err
	}

	if !role.CanDelete() {
		return shared.NewDomainError("SYSTEM_ROLE_PROTECTED", "System roles cannot be deleted")
	}

	userCount, err := s.userRepo.CountByRole(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count role assignments", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check role usage")
	}
	if userCount > 0 {
		return shared.NewDomainError("ROLE_IN_USE", "Role is assigned to users and cannot be deleted")
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete role", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete role")
	}

	role.AddDomainEvent(identity.NewRoleDeletedEvent(role))
	s.publishEvents(ctx, role)

	s.logger.Info("Role deleted", zap.String("role_id", id.String()))

	return nil
}

// SetPermissions replaces the role's permission grants with the given codes
func (s *RoleService) SetPermissions(ctx context.Context, roleID uuid.UUID, codes []string) (*RoleResponse, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perms, err := s.permRepo.FindByCodes(ctx, codes)
	if err != nil {
		s.logger.Error("Failed to load permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load permissions")
	}
	if len(perms) != len(codes) {
		missing := missingCodes(codes, perms)
		return nil, shared.NewDomainError("PERMISSION_NOT_FOUND", "Unknown permission codes: "+strings.Join(missing, ", "))
	}

	permValues := make([]identity.Permission, len(perms))
	for i, p := range perms {
		permValues[i] = *p
	}
	if err := role.SetPermissions(permValues); err != nil {
		return nil, err
	}

	if err := s.roleRepo.SavePermissions(ctx, role); err != nil {
		s.logger.Error("Failed to save role permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save permissions")
	}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		s.logger.Error("Failed to update role after permission change", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update role")
	}

	s.publishEvents(ctx, role)

	s.logger.Info("Role permissions updated",
		zap.String("role_id", roleID.String()),
		zap.Int("permission_count", len(codes)))

	return NewRoleResponse(role), nil
}

// GrantPermission adds a single permission to the role
func (s *RoleService) GrantPermission(ctx context.Context, roleID uuid.UUID, code string) (*RoleResponse, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perm, err := s.permRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PERMISSION_NOT_FOUND", "Permission not found: "+code)
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load permission")
	}

	if err := role.GrantPermission(*perm); err != nil {
		return nil, err
	}

	if err := s.roleRepo.SavePermissions(ctx, role); err != nil {
		s.logger.Error("Failed to save role permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save permissions")
	}

	s.publishEvents(ctx, role)

	s.logger.Info("Permission granted",
		zap.String("role_id", roleID.String()),
		zap.String("permission", code))

	return NewRoleResponse(role), nil
}

// RevokePermission removes a single permission from the role
func (s *RoleService) RevokePermission(ctx context.Context, roleID uuid.UUID, code string) (*RoleResponse, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if err := role.RevokePermission(code); err != nil {
		return nil, err
	}

	if err := s.roleRepo.SavePermissions(ctx, role); err != nil {
		s.logger.Error("Failed to save role permissions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save permissions")
	}

	s.publishEvents(ctx, role)

	s.logger.Info("Permission revoked",
		zap.String("role_id", roleID.String()),
		zap.String("permission", code))

	return NewRoleResponse(role), nil
}

// publishEvents publishes the aggregate's pending domain events
func (s *RoleService) publishEvents(ctx context.Context, role *identity.Role) {
	if s.eventPublisher == nil {
		role.ClearDomainEvents()
		return
	}
	for _, event := range role.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	role.ClearDomainEvents()
}

// findRole loads a role or maps the not-found case to a domain error
func (s *RoleService) findRole(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ROLE_NOT_FOUND", "Role not found")
		}
		s.logger.Error("Failed to find role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find role")
	}
	return role, nil
}

// missingCodes returns the requested codes that were not resolved
func missingCodes(requested []string, found []*identity.Permission) []string {
	present := make(map[string]bool, len(found))
	for _, p := range found {
		present[p.Code] = true
	}
	var missing []string
	for _, code := range requested {
		if !present[code] {
			missing = append(missing, code)
		}
	}
	return missing
}
