package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"github.com/moa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user together with its address book
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return r.replaceAddresses(tx, user)
	})
}

// Update updates an existing user and rewrites its address book
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		result := tx.Save(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return r.replaceAddresses(tx, user)
	})
}

// Delete deletes a user by ID along with its addresses and role assignments
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserAddressModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.UserModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a user by ID with addresses and roles loaded
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	user := model.ToDomain()
	if err := r.loadAddresses(ctx, user); err != nil {
		return nil, err
	}
	if err := r.LoadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail finds a user by email (case-insensitive), with addresses and roles loaded
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	user := model.ToDomain()
	if err := r.loadAddresses(ctx, user); err != nil {
		return nil, err
	}
	if err := r.LoadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername finds a user by username (case-insensitive), with addresses and roles loaded
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	user := model.ToDomain()
	if err := r.loadAddresses(ctx, user); err != nil {
		return nil, err
	}
	if err := r.LoadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindAll finds users matching the filter with pagination.
// List results carry base columns only; addresses and roles are loaded on demand.
func (r *GormUserRepository) FindAll(ctx context.Context, filter *identity.UserFilter) ([]*identity.User, error) {
	var userModels []*models.UserModel

	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	query = r.applyFilter(query, filter)

	orderBy := "created_at"
	orderDir := "DESC"
	if filter != nil {
		orderBy = ValidateSortField(filter.OrderBy, UserSortFields, "created_at")
		orderDir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter != nil && filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		query = query.Offset(offset).Limit(filter.Limit)
	}

	if err := query.Find(&userModels).Error; err != nil {
		return nil, err
	}

	users := make([]*identity.User, len(userModels))
	for i, model := range userModels {
		users[i] = model.ToDomain()
	}
	return users, nil
}

// Count counts users matching the filter
func (r *GormUserRepository) Count(ctx context.Context, filter *identity.UserFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	query = r.applyFilter(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByEmail checks if an email already exists
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByUsername checks if a username already exists
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(username) = ?", strings.ToLower(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveRoles saves the user's role assignments (replaces existing)
func (r *GormUserRepository) SaveRoles(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}

		roleIDs := user.RoleIDs()
		if len(roleIDs) > 0 {
			userRoleModels := make([]models.UserRoleModel, len(roleIDs))
			for i, roleID := range roleIDs {
				userRoleModels[i] = models.UserRoleModel{
					UserID:    user.ID,
					RoleID:    roleID,
					CreatedAt: time.Now(),
				}
			}
			if err := tx.Create(&userRoleModels).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// LoadRoles loads the user's roles with their permissions from the database
func (r *GormUserRepository) LoadRoles(ctx context.Context, user *identity.User) error {
	var roleModels []*models.RoleModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", user.ID).
		Order("roles.sort_order ASC, roles.code ASC").
		Find(&roleModels).Error; err != nil {
		return err
	}

	roles := make([]identity.Role, len(roleModels))
	for i, model := range roleModels {
		role := model.ToDomain()
		if err := r.loadRolePermissions(ctx, role); err != nil {
			return err
		}
		roles[i] = *role
	}
	user.Roles = roles

	return nil
}

// CountByRole counts how many users hold the given role
func (r *GormUserRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserRoleModel{}).
		Where("role_id = ?", roleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// loadAddresses loads the user's address book ordered by position
func (r *GormUserRepository) loadAddresses(ctx context.Context, user *identity.User) error {
	var addressModels []models.UserAddressModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("position ASC").
		Find(&addressModels).Error; err != nil {
		return err
	}

	addresses := make([]valueobject.Address, 0, len(addressModels))
	for _, model := range addressModels {
		addr, err := model.ToDomain()
		if err != nil {
			return err
		}
		addresses = append(addresses, addr)
	}
	user.Addresses = addresses

	return nil
}

// replaceAddresses rewrites the user's address rows to match the aggregate
func (r *GormUserRepository) replaceAddresses(tx *gorm.DB, user *identity.User) error {
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserAddressModel{}).Error; err != nil {
		return err
	}

	if len(user.Addresses) == 0 {
		return nil
	}

	addressModels := make([]models.UserAddressModel, len(user.Addresses))
	for i, addr := range user.Addresses {
		addressModels[i].FromDomain(user.ID, i, addr)
	}
	return tx.Create(&addressModels).Error
}

// loadRolePermissions loads the permissions granted to a role
func (r *GormUserRepository) loadRolePermissions(ctx context.Context, role *identity.Role) error {
	var permissionModels []*models.PermissionModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ?", role.ID).
		Order("permissions.code ASC").
		Find(&permissionModels).Error; err != nil {
		return err
	}

	permissions := make([]identity.Permission, len(permissionModels))
	for i, model := range permissionModels {
		permissions[i] = *model.ToDomain()
	}
	role.Permissions = permissions

	return nil
}

// applyFilter applies filter options to the query
func (r *GormUserRepository) applyFilter(query *gorm.DB, filter *identity.UserFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.Keyword != "" {
		searchPattern := "%" + filter.Keyword + "%"
		query = query.Where(
			"username ILIKE ? OR email ILIKE ? OR full_name ILIKE ? OR phone ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern,
		)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.RoleID != nil {
		query = query.Joins("JOIN user_roles ON users.id = user_roles.user_id").
			Where("user_roles.role_id = ?", *filter.RoleID)
	}

	return query
}

// Ensure GormUserRepository implements UserRepository
var _ identity.UserRepository = (*GormUserRepository)(nil)
