package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared/valueobject"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username           string              `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_username"`
	Email              string              `gorm:"type:varchar(200);not null;uniqueIndex:idx_users_email"`
	Phone              string              `gorm:"type:varchar(50)"`
	PasswordHash       string              `gorm:"type:varchar(255);not null"`
	FullName           string              `gorm:"type:varchar(200)"`
	Avatar             string              `gorm:"type:varchar(500)"`
	Status             identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	LastLoginAt        *time.Time          `gorm:"index"`
	LastLoginIP        string              `gorm:"type:varchar(45)"`
	LoginFailures      int                 `gorm:"not null;default:0"`
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool   `gorm:"not null;default:false"`
	Notes              string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
// Note: Addresses and Roles must be loaded separately by the repository.
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		Username:           m.Username,
		Email:              m.Email,
		Phone:              m.Phone,
		PasswordHash:       m.PasswordHash,
		FullName:           m.FullName,
		Avatar:             m.Avatar,
		Status:             m.Status,
		Addresses:          make([]valueobject.Address, 0),
		Roles:              make([]identity.Role, 0),
		LastLoginAt:        m.LastLoginAt,
		LastLoginIP:        m.LastLoginIP,
		LoginFailures:      m.LoginFailures,
		LockedUntil:        m.LockedUntil,
		PasswordChangedAt:  m.PasswordChangedAt,
		MustChangePassword: m.MustChangePassword,
		Notes:              m.Notes,
	}
	m.PopulateAggregateRoot(&user.BaseAggregateRoot)
	return user
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.Phone = u.Phone
	m.PasswordHash = u.PasswordHash
	m.FullName = u.FullName
	m.Avatar = u.Avatar
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.LoginFailures = u.LoginFailures
	m.LockedUntil = u.LockedUntil
	m.PasswordChangedAt = u.PasswordChangedAt
	m.MustChangePassword = u.MustChangePassword
	m.Notes = u.Notes
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// UserAddressModel is the persistence model for a user's delivery address.
// Position preserves address book ordering.
type UserAddressModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null;default:0"`
	Street     string    `gorm:"type:varchar(200);not null"`
	Number     string    `gorm:"type:varchar(20);not null"`
	Complement string    `gorm:"type:varchar(100)"`
	District   string    `gorm:"type:varchar(100);not null"`
	City       string    `gorm:"type:varchar(100);not null"`
	State      string    `gorm:"type:varchar(2);not null"`
	PostalCode string    `gorm:"type:varchar(9);not null"`
	Country    string    `gorm:"type:varchar(60);not null;default:'Brasil'"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserAddressModel) TableName() string {
	return "user_addresses"
}

// ToDomain converts the persistence model to a domain Address value object.
func (m *UserAddressModel) ToDomain() (valueobject.Address, error) {
	return valueobject.NewAddressFull(
		m.Street, m.Number, m.Complement, m.District,
		m.City, m.State, m.PostalCode, m.Country,
	)
}

// FromDomain populates the persistence model from a domain Address value object.
func (m *UserAddressModel) FromDomain(userID uuid.UUID, position int, addr valueobject.Address) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.UserID = userID
	m.Position = position
	m.Street = addr.Street()
	m.Number = addr.Number()
	m.Complement = addr.Complement()
	m.District = addr.District()
	m.City = addr.City()
	m.State = addr.State()
	m.PostalCode = addr.PostalCode().String()
	m.Country = addr.Country()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
}

// UserRoleModel is the persistence model for the UserRole relationship.
type UserRoleModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserRoleModel) TableName() string {
	return "user_roles"
}

// ToDomain converts the persistence model to a domain UserRole.
func (m *UserRoleModel) ToDomain() identity.UserRole {
	return identity.UserRole{
		UserID:    m.UserID,
		RoleID:    m.RoleID,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain UserRole.
func (m *UserRoleModel) FromDomain(ur identity.UserRole) {
	m.UserID = ur.UserID
	m.RoleID = ur.RoleID
	m.CreatedAt = ur.CreatedAt
}

// RoleModel is the persistence model for the Role domain entity.
type RoleModel struct {
	AggregateModel
	Code         string `gorm:"type:varchar(50);not null;uniqueIndex:idx_roles_code"`
	Name         string `gorm:"type:varchar(100);not null"`
	Description  string `gorm:"type:text"`
	IsSystemRole bool   `gorm:"not null;default:false"`
	IsEnabled    bool   `gorm:"not null;default:true"`
	SortOrder    int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (RoleModel) TableName() string {
	return "roles"
}

// ToDomain converts the persistence model to a domain Role entity.
// Note: Permissions must be loaded separately by the repository.
func (m *RoleModel) ToDomain() *identity.Role {
	role := &identity.Role{
		Code:         m.Code,
		Name:         m.Name,
		Description:  m.Description,
		IsSystemRole: m.IsSystemRole,
		IsEnabled:    m.IsEnabled,
		SortOrder:    m.SortOrder,
		Permissions:  make([]identity.Permission, 0),
	}
	m.PopulateAggregateRoot(&role.BaseAggregateRoot)
	return role
}

// FromDomain populates the persistence model from a domain Role entity.
func (m *RoleModel) FromDomain(r *identity.Role) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.Code = r.Code
	m.Name = r.Name
	m.Description = r.Description
	m.IsSystemRole = r.IsSystemRole
	m.IsEnabled = r.IsEnabled
	m.SortOrder = r.SortOrder
}

// RoleModelFromDomain creates a new persistence model from a domain Role entity.
func RoleModelFromDomain(r *identity.Role) *RoleModel {
	m := &RoleModel{}
	m.FromDomain(r)
	return m
}

// PermissionModel is the persistence model for the Permission domain entity.
type PermissionModel struct {
	AggregateModel
	Code        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_permissions_code"`
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	IsEnabled   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PermissionModel) TableName() string {
	return "permissions"
}

// ToDomain converts the persistence model to a domain Permission entity.
func (m *PermissionModel) ToDomain() *identity.Permission {
	perm := &identity.Permission{
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		IsEnabled:   m.IsEnabled,
	}
	m.PopulateAggregateRoot(&perm.BaseAggregateRoot)
	return perm
}

// FromDomain populates the persistence model from a domain Permission entity.
func (m *PermissionModel) FromDomain(p *identity.Permission) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.IsEnabled = p.IsEnabled
}

// PermissionModelFromDomain creates a new persistence model from a domain Permission entity.
func PermissionModelFromDomain(p *identity.Permission) *PermissionModel {
	m := &PermissionModel{}
	m.FromDomain(p)
	return m
}

// RolePermissionModel is the persistence model for the role-permission relationship.
type RolePermissionModel struct {
	RoleID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PermissionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RolePermissionModel) TableName() string {
	return "role_permissions"
}

// ToDomain converts the persistence model to a domain RolePermission.
func (m *RolePermissionModel) ToDomain() identity.RolePermission {
	return identity.RolePermission{
		RoleID:       m.RoleID,
		PermissionID: m.PermissionID,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain RolePermission.
func (m *RolePermissionModel) FromDomain(rp identity.RolePermission) {
	m.RoleID = rp.RoleID
	m.PermissionID = rp.PermissionID
	m.CreatedAt = rp.CreatedAt
}
