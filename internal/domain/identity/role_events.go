package identity

import (
	"github.com/moa/backend/internal/domain/shared"
)

// Aggregate type constant for Role
const AggregateTypeRole = "Role"

// Role domain event types. Role administration is infrequent but security
// sensitive, so every mutation leaves an event for the audit trail.
const (
	EventTypeRoleCreated           = "RoleCreated"
	EventTypeRoleUpdated           = "RoleUpdated"
	EventTypeRoleDeleted           = "RoleDeleted"
	EventTypeRoleEnabled           = "RoleEnabled"
	EventTypeRoleDisabled          = "RoleDisabled"
	EventTypeRolePermissionGranted = "RolePermissionGranted"
	EventTypeRolePermissionRevoked = "RolePermissionRevoked"
)

// RoleCreatedEvent is published when a new role enters the catalog
type RoleCreatedEvent struct {
	shared.BaseDomainEvent
	Code         string `json:"code"`
	Name         string `json:"name"`
	IsSystemRole bool   `json:"is_system_role"`
}

// NewRoleCreatedEvent creates a new RoleCreatedEvent
func NewRoleCreatedEvent(role *Role) *RoleCreatedEvent {
	event := &RoleCreatedEvent{Code: role.Code, Name: role.Name, IsSystemRole: role.IsSystemRole}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRoleCreated, AggregateTypeRole, role.ID)
	return event
}

// RoleUpdatedEvent is published when a role's descriptive fields change
type RoleUpdatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewRoleUpdatedEvent creates a new RoleUpdatedEvent
func NewRoleUpdatedEvent(role *Role) *RoleUpdatedEvent {
	event := &RoleUpdatedEvent{Code: role.Code, Name: role.Name}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRoleUpdated, AggregateTypeRole, role.ID)
	return event
}

// RoleDeletedEvent is published after a role's row is removed. Only roles
// with no user assignments reach this point.
type RoleDeletedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewRoleDeletedEvent creates a new RoleDeletedEvent
func NewRoleDeletedEvent(role *Role) *RoleDeletedEvent {
	event := &RoleDeletedEvent{Code: role.Code}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRoleDeleted, AggregateTypeRole, role.ID)
	return event
}

// RoleEnabledEvent is published when a role is put back into service
type RoleEnabledEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewRoleEnabledEvent creates a new RoleEnabledEvent
func NewRoleEnabledEvent(role *Role) *RoleEnabledEvent {
	event := &RoleEnabledEvent{Code: role.Code}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRoleEnabled, AggregateTypeRole, role.ID)
	return event
}

// RoleDisabledEvent is published when a role is taken out of service.
// Users keep the assignment but stop receiving its permissions.
type RoleDisabledEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewRoleDisabledEvent creates a new RoleDisabledEvent
func NewRoleDisabledEvent(role *Role) *RoleDisabledEvent {
	event := &RoleDisabledEvent{Code: role.Code}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRoleDisabled, AggregateTypeRole, role.ID)
	return event
}

// RolePermissionGrantedEvent is published when a permission is granted to a
// role. The resource and action are denormalized into the payload so audit
// consumers need no permission lookup.
type RolePermissionGrantedEvent struct {
	shared.BaseDomainEvent
	RoleCode           string `json:"role_code"`
	PermissionCode     string `json:"permission_code"`
	PermissionResource string `json:"permission_resource"`
	PermissionAction   string `json:"permission_action"`
}

// NewRolePermissionGrantedEvent creates a new RolePermissionGrantedEvent
func NewRolePermissionGrantedEvent(role *Role, perm Permission) *RolePermissionGrantedEvent {
	event := &RolePermissionGrantedEvent{
		RoleCode:           role.Code,
		PermissionCode:     perm.Code,
		PermissionResource: perm.Resource(),
		PermissionAction:   perm.Action(),
	}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRolePermissionGranted, AggregateTypeRole, role.ID)
	return event
}

// RolePermissionRevokedEvent is published when a permission is revoked from
// a role, with the same denormalized payload as the grant event.
type RolePermissionRevokedEvent struct {
	shared.BaseDomainEvent
	RoleCode           string `json:"role_code"`
	PermissionCode     string `json:"permission_code"`
	PermissionResource string `json:"permission_resource"`
	PermissionAction   string `json:"permission_action"`
}

// NewRolePermissionRevokedEvent creates a new RolePermissionRevokedEvent
func NewRolePermissionRevokedEvent(role *Role, perm Permission) *RolePermissionRevokedEvent {
	event := &RolePermissionRevokedEvent{
		RoleCode:           role.Code,
		PermissionCode:     perm.Code,
		PermissionResource: perm.Resource(),
		PermissionAction:   perm.Action(),
	}
	event.BaseDomainEvent = shared.NewBaseDomainEvent(EventTypeRolePermissionRevoked, AggregateTypeRole, role.ID)
	return event
}
