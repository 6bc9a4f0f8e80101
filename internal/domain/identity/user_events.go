package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type identifier for user events
const AggregateTypeUser = "User"

// Event types for user domain
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserActivated       = "UserActivated"
	EventTypeUserDeactivated     = "UserDeactivated"
	EventTypeUserLocked          = "UserLocked"
	EventTypeUserUnlocked        = "UserUnlocked"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserProfileUpdated  = "UserProfileUpdated"
	EventTypeUserRolesChanged    = "UserRolesChanged"
	EventTypeUserLoggedIn        = "UserLoggedIn"
)

// UserRegisteredEvent is published when a new user registers
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserRegisteredEvent creates a new user registered event
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Username:        user.Username,
		Email:           user.Email,
	}
}

// UserActivatedEvent is published when a user becomes active
type UserActivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserActivatedEvent creates a new user activated event
func NewUserActivatedEvent(user *User) *UserActivatedEvent {
	return &UserActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserActivated, AggregateTypeUser, user.ID),
		Username:        user.Username,
	}
}

// UserDeactivatedEvent is published when a user is deactivated
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserDeactivatedEvent creates a new user deactivated event
func NewUserDeactivatedEvent(user *User) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeactivated, AggregateTypeUser, user.ID),
		Username:        user.Username,
	}
}

// UserLockedEvent is published when a user account is locked
type UserLockedEvent struct {
	shared.BaseDomainEvent
	Username    string     `json:"username"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// NewUserLockedEvent creates a new user locked event
func NewUserLockedEvent(user *User) *UserLockedEvent {
	return &UserLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLocked, AggregateTypeUser, user.ID),
		Username:        user.Username,
		LockedUntil:     user.LockedUntil,
	}
}

// UserUnlockedEvent is published when a user account is unlocked
type UserUnlockedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserUnlockedEvent creates a new user unlocked event
func NewUserUnlockedEvent(user *User) *UserUnlockedEvent {
	return &UserUnlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserUnlocked, AggregateTypeUser, user.ID),
		Username:        user.Username,
	}
}

// UserPasswordChangedEvent is published when a user's password changes
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserPasswordChangedEvent creates a new password changed event
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID),
		Username:        user.Username,
	}
}

// UserProfileUpdatedEvent is published when a user's profile is updated
type UserProfileUpdatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// NewUserProfileUpdatedEvent creates a new profile updated event
func NewUserProfileUpdatedEvent(user *User) *UserProfileUpdatedEvent {
	return &UserProfileUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserProfileUpdated, AggregateTypeUser, user.ID),
		Username:        user.Username,
		FullName:        user.FullName,
	}
}

// UserRolesChangedEvent is published when a user's role set changes
type UserRolesChangedEvent struct {
	shared.BaseDomainEvent
	Username string      `json:"username"`
	RoleIDs  []uuid.UUID `json:"role_ids"`
}

// NewUserRolesChangedEvent creates a new roles changed event
func NewUserRolesChangedEvent(user *User) *UserRolesChangedEvent {
	return &UserRolesChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRolesChanged, AggregateTypeUser, user.ID),
		Username:        user.Username,
		RoleIDs:         user.RoleIDs(),
	}
}

// UserLoggedInEvent is published on successful login
type UserLoggedInEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	IP       string `json:"ip"`
}

// NewUserLoggedInEvent creates a new logged in event
func NewUserLoggedInEvent(user *User, ip string) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLoggedIn, AggregateTypeUser, user.ID),
		Username:        user.Username,
		IP:              ip,
	}
}
