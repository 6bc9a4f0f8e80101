package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createRoleService(roleRepo *MockRoleRepository, userRepo *MockUserRepository, permRepo *MockPermissionRepository) *RoleService {
	return NewRoleService(roleRepo, userRepo, permRepo, zap.NewNop())
}

func TestRoleService_Create(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	roleRepo.On("ExistsByCode", ctx, "curator").Return(false, nil)
	roleRepo.On("Create", ctx, mock.Anything).Return(nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.Create(ctx, CreateRoleInput{
		Code:        "curator",
		Name:        "Curator",
		Description: "Reviews product listings",
	})

	require.NoError(t, err)
	assert.Equal(t, "curator", result.Code)
	assert.False(t, result.IsSystemRole)
	roleRepo.AssertExpectations(t)
}

func TestRoleService_Create_ReservedCode(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.Create(ctx, CreateRoleInput{
		Code: identity.RoleCodeAdmin,
		Name: "Fake Admin",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ROLE_CODE_RESERVED", domainErr.Code)
	roleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoleService_Create_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	roleRepo.On("ExistsByCode", ctx, "curator").Return(true, nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.Create(ctx, CreateRoleInput{Code: "curator", Name: "Curator"})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ROLE_CODE_EXISTS", domainErr.Code)
}

func TestRoleService_Delete_SystemRoleProtected(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role := createCustomerRole(t) // system role

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	err := svc.Delete(ctx, role.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "SYSTEM_ROLE_PROTECTED", domainErr.Code)
	roleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRoleService_Delete_RoleInUse(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	userRepo.On("CountByRole", ctx, role.ID).Return(int64(3), nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	err = svc.Delete(ctx, role.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ROLE_IN_USE", domainErr.Code)
}

func TestRoleService_Delete_Success(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	userRepo.On("CountByRole", ctx, role.ID).Return(int64(0), nil)
	roleRepo.On("Delete", ctx, role.ID).Return(nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	require.NoError(t, svc.Delete(ctx, role.ID))
	roleRepo.AssertExpectations(t)
}

func TestRoleService_SetPermissions(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	p1, err := identity.NewPermission("product.review", "Review products", "")
	require.NoError(t, err)
	p2, err := identity.NewPermission("product.publish", "Publish products", "")
	require.NoError(t, err)

	codes := []string{"product.review", "product.publish"}
	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	permRepo.On("FindByCodes", ctx, codes).Return([]*identity.Permission{p1, p2}, nil)
	roleRepo.On("SavePermissions", ctx, role).Return(nil)
	roleRepo.On("Update", ctx, role).Return(nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.SetPermissions(ctx, role.ID, codes)

	require.NoError(t, err)
	assert.Len(t, result.Permissions, 2)
	roleRepo.AssertExpectations(t)
}

func TestRoleService_SetPermissions_UnknownCode(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	codes := []string{"product.review", "ghost.permission"}
	p1, err := identity.NewPermission("product.review", "Review products", "")
	require.NoError(t, err)

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	permRepo.On("FindByCodes", ctx, codes).Return([]*identity.Permission{p1}, nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.SetPermissions(ctx, role.ID, codes)

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PERMISSION_NOT_FOUND", domainErr.Code)
	assert.Contains(t, domainErr.Message, "ghost.permission")
}

func TestRoleService_GrantAndRevokePermission(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)
	perm, err := identity.NewPermission("product.review", "Review products", "")
	require.NoError(t, err)

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	permRepo.On("FindByCode", ctx, "product.review").Return(perm, nil)
	roleRepo.On("SavePermissions", ctx, role).Return(nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.GrantPermission(ctx, role.ID, "product.review")
	require.NoError(t, err)
	assert.Len(t, result.Permissions, 1)

	result, err = svc.RevokePermission(ctx, role.ID, "product.review")
	require.NoError(t, err)
	assert.Empty(t, result.Permissions)
}

func TestRoleService_Update(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
	roleRepo.On("Update", ctx, role).Return(nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	newName := "Senior Curator"
	enabled := false
	result, err := svc.Update(ctx, role.ID, UpdateRoleInput{
		Name:      &newName,
		IsEnabled: &enabled,
	})

	require.NoError(t, err)
	assert.Equal(t, "Senior Curator", result.Name)
	assert.False(t, result.IsEnabled)
}

func TestRoleService_List(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	role, err := identity.NewRole("curator", "Curator")
	require.NoError(t, err)

	roleRepo.On("FindAll", ctx, mock.Anything).Return([]*identity.Role{role}, nil)
	roleRepo.On("Count", ctx, mock.Anything).Return(int64(1), nil)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.List(ctx, ListRolesInput{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
}

func TestRoleService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	roleRepo := new(MockRoleRepository)
	userRepo := new(MockUserRepository)
	permRepo := new(MockPermissionRepository)

	id := uuid.New()
	roleRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	svc := createRoleService(roleRepo, userRepo, permRepo)

	result, err := svc.GetByID(ctx, id)

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ROLE_NOT_FOUND", domainErr.Code)
}

// capturingPublisher records published domain events
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

func TestRoleService_PublishesEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("created roles announce themselves", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		userRepo := new(MockUserRepository)
		permRepo := new(MockPermissionRepository)

		roleRepo.On("ExistsByCode", ctx, "curator").Return(false, nil)
		roleRepo.On("Create", ctx, mock.Anything).Return(nil)

		publisher := &capturingPublisher{}
		svc := createRoleService(roleRepo, userRepo, permRepo)
		svc.SetEventPublisher(publisher)

		_, err := svc.Create(ctx, CreateRoleInput{Code: "curator", Name: "Curator"})

		require.NoError(t, err)
		assert.Equal(t, []string{identity.EventTypeRoleCreated}, publisher.eventTypes())
	})

	t.Run("deletion is announced after the row is gone", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		userRepo := new(MockUserRepository)
		permRepo := new(MockPermissionRepository)

		role, err := identity.NewRole("curator", "Curator")
		require.NoError(t, err)
		role.ClearDomainEvents() // the repository hands back a settled aggregate

		roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
		userRepo.On("CountByRole", ctx, role.ID).Return(int64(0), nil)
		roleRepo.On("Delete", ctx, role.ID).Return(nil)

		publisher := &capturingPublisher{}
		svc := createRoleService(roleRepo, userRepo, permRepo)
		svc.SetEventPublisher(publisher)

		require.NoError(t, svc.Delete(ctx, role.ID))
		assert.Equal(t, []string{identity.EventTypeRoleDeleted}, publisher.eventTypes())
	})

	t.Run("permission grants carry the permission details", func(t *testing.T) {
		roleRepo := new(MockRoleRepository)
		userRepo := new(MockUserRepository)
		permRepo := new(MockPermissionRepository)

		role, err := identity.NewRole("curator", "Curator")
		require.NoError(t, err)
		role.ClearDomainEvents()

		perm, err := identity.NewPermission("products.moderate", "Moderate products", "")
		require.NoError(t, err)

		roleRepo.On("FindByID", ctx, role.ID).Return(role, nil)
		permRepo.On("FindByCode", ctx, "products.moderate").Return(perm, nil)
		roleRepo.On("SavePermissions", ctx, mock.Anything).Return(nil)

		publisher := &capturingPublisher{}
		svc := createRoleService(roleRepo, userRepo, permRepo)
		svc.SetEventPublisher(publisher)

		_, err = svc.GrantPermission(ctx, role.ID, "products.moderate")

		require.NoError(t, err)
		require.Len(t, publisher.events, 1)
		granted, ok := publisher.events[0].(*identity.RolePermissionGrantedEvent)
		require.True(t, ok)
		assert.Equal(t, "curator", granted.RoleCode)
		assert.Equal(t, "products.moderate", granted.PermissionCode)
	})
}
