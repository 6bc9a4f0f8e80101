package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPermissionRepository implements PermissionRepository using GORM
type GormPermissionRepository struct {
	db *gorm.DB
}

// NewGormPermissionRepository creates a new GormPermissionRepository
func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	return &GormPermissionRepository{db: db}
}

// Create creates a new permission
func (r *GormPermissionRepository) Create(ctx context.Context, perm *identity.Permission) error {
	model := models.PermissionModelFromDomain(perm)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing permission
func (r *GormPermissionRepository) Update(ctx context.Context, perm *identity.Permission) error {
	model := models.PermissionModelFromDomain(perm)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes a permission by ID along with its role grants
func (r *GormPermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermissionModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.PermissionModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a permission by ID
func (r *GormPermissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Permission, error) {
	var model models.PermissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a permission by code (case-insensitive)
func (r *GormPermissionRepository) FindByCode(ctx context.Context, code string) (*identity.Permission, error) {
	var model models.PermissionModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCodes finds permissions matching any of the given codes
func (r *GormPermissionRepository) FindByCodes(ctx context.Context, codes []string) ([]*identity.Permission, error) {
	if len(codes) == 0 {
		return []*identity.Permission{}, nil
	}

	normalized := make([]string, len(codes))
	for i, code := range codes {
		normalized[i] = strings.ToLower(strings.TrimSpace(code))
	}

	var permissionModels []*models.PermissionModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(code) IN ?", normalized).
		Order("code ASC").
		Find(&permissionModels).Error; err != nil {
		return nil, err
	}

	permissions := make([]*identity.Permission, len(permissionModels))
	for i, model := range permissionModels {
		permissions[i] = model.ToDomain()
	}
	return permissions, nil
}

// FindByIDs finds multiple permissions by IDs
func (r *GormPermissionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Permission, error) {
	if len(ids) == 0 {
		return []*identity.Permission{}, nil
	}

	var permissionModels []*models.PermissionModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&permissionModels).Error; err != nil {
		return nil, err
	}

	permissions := make([]*identity.Permission, len(permissionModels))
	for i, model := range permissionModels {
		permissions[i] = model.ToDomain()
	}
	return permissions, nil
}

// FindAll finds permissions matching the filter
func (r *GormPermissionRepository) FindAll(ctx context.Context, filter *identity.PermissionFilter) ([]*identity.Permission, error) {
	var permissionModels []*models.PermissionModel
	query := r.db.WithContext(ctx).Model(&models.PermissionModel{})

	query = r.applyFilter(query, filter)
	query = query.Order("code ASC")

	if filter != nil {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Page > 0 && filter.Limit > 0 {
			offset := (filter.Page - 1) * filter.Limit
			query = query.Offset(offset)
		}
	}

	if err := query.Find(&permissionModels).Error; err != nil {
		return nil, err
	}

	permissions := make([]*identity.Permission, len(permissionModels))
	for i, model := range permissionModels {
		permissions[i] = model.ToDomain()
	}
	return permissions, nil
}

// Count counts permissions matching the filter
func (r *GormPermissionRepository) Count(ctx context.Context, filter *identity.PermissionFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PermissionModel{})

	query = r.applyFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a permission with the given code exists
func (r *GormPermissionRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PermissionModel{}).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByResource finds all permissions under a resource
func (r *GormPermissionRepository) FindByResource(ctx context.Context, resource string) ([]*identity.Permission, error) {
	var permissionModels []*models.PermissionModel
	if err := r.db.WithContext(ctx).
		Where("code LIKE ?", strings.ToLower(strings.TrimSpace(resource))+".%").
		Order("code ASC").
		Find(&permissionModels).Error; err != nil {
		return nil, err
	}

	permissions := make([]*identity.Permission, len(permissionModels))
	for i, model := range permissionModels {
		permissions[i] = model.ToDomain()
	}
	return permissions, nil
}

// ListResources returns the distinct resources in sorted order
func (r *GormPermissionRepository) ListResources(ctx context.Context) ([]string, error) {
	var resources []string
	if err := r.db.WithContext(ctx).
		Table("permissions").
		Distinct("split_part(code, '.', 1)").
		Order("split_part(code, '.', 1) ASC").
		Pluck("split_part(code, '.', 1)", &resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

// CountByResource returns permission counts grouped by resource
func (r *GormPermissionRepository) CountByResource(ctx context.Context) ([]identity.ResourceCount, error) {
	type resourceResult struct {
		Resource string
		Count    int64
	}

	var results []resourceResult

	err := r.db.WithContext(ctx).
		Table("permissions").
		Select(`
			split_part(code, '.', 1) as resource,
			COUNT(*) as count
		`).
		Group("split_part(code, '.', 1)").
		Order("resource ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make([]identity.ResourceCount, len(results))
	for i, result := range results {
		counts[i] = identity.ResourceCount{
			Resource: result.Resource,
			Count:    result.Count,
		}
	}
	return counts, nil
}

// CountRoleReferences counts how many roles hold the permission
func (r *GormPermissionRepository) CountRoleReferences(ctx context.Context, permissionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RolePermissionModel{}).
		Where("permission_id = ?", permissionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MostReferenced returns the permissions held by the most roles
func (r *GormPermissionRepository) MostReferenced(ctx context.Context, limit int) ([]identity.PermissionUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	type usageResult struct {
		Code      string
		RoleCount int64
	}

	var results []usageResult

	err := r.db.WithContext(ctx).
		Table("permissions p").
		Select(`
			p.code as code,
			COUNT(rp.role_id) as role_count
		`).
		Joins("LEFT JOIN role_permissions rp ON rp.permission_id = p.id").
		Group("p.code").
		Order("role_count DESC, code ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	usages := make([]identity.PermissionUsage, len(results))
	for i, result := range results {
		usages[i] = identity.PermissionUsage{
			Code:      result.Code,
			RoleCount: result.RoleCount,
		}
	}
	return usages, nil
}

// applyFilter applies filter options to the query
func (r *GormPermissionRepository) applyFilter(query *gorm.DB, filter *identity.PermissionFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	// Apply keyword search
	if filter.Keyword != "" {
		searchPattern := "%" + filter.Keyword + "%"
		query = query.Where(
			"code ILIKE ? OR name ILIKE ? OR description ILIKE ?",
			searchPattern, searchPattern, searchPattern,
		)
	}

	// Apply resource prefix filter
	if filter.Resource != "" {
		query = query.Where("code LIKE ?", strings.ToLower(strings.TrimSpace(filter.Resource))+".%")
	}

	// Apply enabled filter
	if filter.IsEnabled != nil {
		query = query.Where("is_enabled = ?", *filter.IsEnabled)
	}

	return query
}

// Ensure GormPermissionRepository implements PermissionRepository
var _ identity.PermissionRepository = (*GormPermissionRepository)(nil)
