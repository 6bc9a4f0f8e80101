package event

import (
	"github.com/moa/backend/internal/domain/catalog"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/order"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The outbox processor cannot deserialize stored payloads for types that
// are missing here, so new events must be added when they are introduced.
func RegisterAllEvents(serializer *EventSerializer) {
	// Identity - user events
	serializer.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
	serializer.Register(identity.EventTypeUserActivated, &identity.UserActivatedEvent{})
	serializer.Register(identity.EventTypeUserDeactivated, &identity.UserDeactivatedEvent{})
	serializer.Register(identity.EventTypeUserLocked, &identity.UserLockedEvent{})
	serializer.Register(identity.EventTypeUserUnlocked, &identity.UserUnlockedEvent{})
	serializer.Register(identity.EventTypeUserPasswordChanged, &identity.UserPasswordChangedEvent{})
	serializer.Register(identity.EventTypeUserProfileUpdated, &identity.UserProfileUpdatedEvent{})
	serializer.Register(identity.EventTypeUserRolesChanged, &identity.UserRolesChangedEvent{})
	serializer.Register(identity.EventTypeUserLoggedIn, &identity.UserLoggedInEvent{})

	// Identity - role events
	serializer.Register(identity.EventTypeRoleCreated, &identity.RoleCreatedEvent{})
	serializer.Register(identity.EventTypeRoleUpdated, &identity.RoleUpdatedEvent{})
	serializer.Register(identity.EventTypeRoleDeleted, &identity.RoleDeletedEvent{})
	serializer.Register(identity.EventTypeRoleEnabled, &identity.RoleEnabledEvent{})
	serializer.Register(identity.EventTypeRoleDisabled, &identity.RoleDisabledEvent{})
	serializer.Register(identity.EventTypeRolePermissionGranted, &identity.RolePermissionGrantedEvent{})
	serializer.Register(identity.EventTypeRolePermissionRevoked, &identity.RolePermissionRevokedEvent{})

	// Catalog - category events
	serializer.Register(catalog.EventTypeCategoryCreated, &catalog.CategoryCreatedEvent{})
	serializer.Register(catalog.EventTypeCategoryUpdated, &catalog.CategoryUpdatedEvent{})
	serializer.Register(catalog.EventTypeCategoryStatusChanged, &catalog.CategoryStatusChangedEvent{})
	serializer.Register(catalog.EventTypeCategoryDeleted, &catalog.CategoryDeletedEvent{})

	// Catalog - product events
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductPublished, &catalog.ProductPublishedEvent{})
	serializer.Register(catalog.EventTypeProductArchived, &catalog.ProductArchivedEvent{})
	serializer.Register(catalog.EventTypeProductPriceChanged, &catalog.ProductPriceChangedEvent{})
	serializer.Register(catalog.EventTypeProductStockChanged, &catalog.ProductStockChangedEvent{})
	serializer.Register(catalog.EventTypeProductImageAdded, &catalog.ProductImageAddedEvent{})

	// Order events
	serializer.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	serializer.Register(order.EventTypeOrderPaid, &order.OrderPaidEvent{})
	serializer.Register(order.EventTypeOrderShipped, &order.OrderShippedEvent{})
	serializer.Register(order.EventTypeOrderDelivered, &order.OrderDeliveredEvent{})
	serializer.Register(order.EventTypeOrderCancelled, &order.OrderCancelledEvent{})
}
