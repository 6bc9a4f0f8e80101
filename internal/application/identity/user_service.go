package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo       identity.UserRepository
	roleRepo       identity.RoleRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for account lifecycle events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents publishes the aggregate's pending domain events
func (s *UserService) publishEvents(ctx context.Context, user *identity.User) {
	if s.eventPublisher == nil {
		user.ClearDomainEvents()
		return
	}
	for _, event := range user.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	user.ClearDomainEvents()
}

// Create provisions a new account on behalf of an administrator. Unlike
// self-registration the caller picks the roles; with none given the account
// falls back to the customer role.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserResponse, error) {
	emailTaken, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if emailTaken {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}

	usernameTaken, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error("Failed to check username uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check username availability")
	}
	if usernameTaken {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "This username is already in use")
	}

	user, err := identity.NewActiveUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	if input.FullName != "" || input.Phone != "" {
		if err := user.UpdateProfile(input.FullName, input.Phone, ""); err != nil {
			return nil, err
		}
	}

	if len(input.RoleIDs) > 0 {
		roles, err := s.roleRepo.FindByIDs(ctx, input.RoleIDs)
		if err != nil {
			s.logger.Error("Failed to load roles", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to validate roles")
		}
		if len(roles) != len(input.RoleIDs) {
			return nil, shared.NewDomainError("ROLE_NOT_FOUND", "One or more roles do not exist")
		}
		for _, r := range roles {
			if err := user.AssignRole(*r); err != nil {
				return nil, err
			}
		}
	} else {
		customerRole, err := s.roleRepo.FindByCode(ctx, identity.RoleCodeCustomer)
		if err != nil {
			s.logger.Error("Customer role not found", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Default role is not configured")
		}
		if err := user.AssignRole(*customerRole); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to persist new user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}
	if err := s.userRepo.SaveRoles(ctx, user); err != nil {
		s.logger.Error("Failed to persist user roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Int("role_count", len(user.Roles)))

	return NewUserResponse(user), nil
}

// GetByID retrieves a user by ID with roles loaded
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewUserResponse(user), nil
}

// List retrieves a paginated list of users
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*ListUsersResult, error) {
	filter := &identity.UserFilter{
		Keyword:  input.Keyword,
		RoleID:   input.RoleID,
		OrderBy:  input.SortBy,
		OrderDir: input.SortDir,
		Page:     input.Page,
		Limit:    input.Limit,
	}
	if input.Status != "" {
		status := identity.UserStatus(input.Status)
		filter.Status = &status
	}

	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	items := make([]UserListItem, len(users))
	for i, user := range users {
		items[i] = NewUserListItem(user)
	}

	return &ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// UpdateProfile updates the user's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(input.FullName, input.Phone, input.Avatar); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update profile")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User profile updated", zap.String("user_id", userID.String()))

	return NewUserResponse(user), nil
}

// AddAddress appends a shipping address to the user's address book
func (s *UserService) AddAddress(ctx context.Context, userID uuid.UUID, dto valueobject.AddressDTO) (*UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr, err := dto.ToAddress()
	if err != nil {
		return nil, err
	}

	if err := user.AddAddress(addr); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to save address", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save address")
	}

	s.logger.Info("Address added",
		zap.String("user_id", userID.String()),
		zap.Int("address_count", len(user.Addresses)))

	return NewUserResponse(user), nil
}

// RemoveAddress removes the address at the given index
func (s *UserService) RemoveAddress(ctx context.Context, userID uuid.UUID, index int) (*UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.RemoveAddress(index); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to remove address", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to remove address")
	}

	s.logger.Info("Address removed",
		zap.String("user_id", userID.String()),
		zap.Int("index", index))

	return NewUserResponse(user), nil
}

// ListAddresses returns the user's address book
func (s *UserService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]valueobject.AddressDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	addresses := make([]valueobject.AddressDTO, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		addresses = append(addresses, a.ToDTO())
	}
	return addresses, nil
}

// AssignRoles replaces a user's role assignments
func (s *UserService) AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (*UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.roleRepo.FindByIDs(ctx, roleIDs)
	if err != nil {
		s.logger.Error("Failed to load roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to validate roles")
	}
	if len(roles) != len(roleIDs) {
		return nil, shared.NewDomainError("ROLE_NOT_FOUND", "One or more roles do not exist")
	}

	roleValues := make([]identity.Role, len(roles))
	for i, r := range roles {
		roleValues[i] = *r
	}
	if err := user.SetRoles(roleValues); err != nil {
		return nil, err
	}

	if err := s.userRepo.SaveRoles(ctx, user); err != nil {
		s.logger.Error("Failed to save user roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to assign roles")
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after role change", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User roles assigned",
		zap.String("user_id", userID.String()),
		zap.Int("role_count", len(roleIDs)))

	return NewUserResponse(user), nil
}

// Activate activates a user account
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, id, "activate", func(u *identity.User) error {
		return u.Activate()
	})
}

// Deactivate deactivates a user account
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, id, "deactivate", func(u *identity.User) error {
		return u.Deactivate()
	})
}

// Lock locks a user account for the given duration
func (s *UserService) Lock(ctx context.Context, id uuid.UUID, duration time.Duration) (*UserResponse, error) {
	return s.transition(ctx, id, "lock", func(u *identity.User) error {
		return u.Lock(duration)
	})
}

// Unlock unlocks a locked user account
func (s *UserService) Unlock(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, id, "unlock", func(u *identity.User) error {
		return u.Unlock()
	})
}

// ResetPassword sets a new password for the user (admin action)
func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	user.ForcePasswordChange()

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to reset password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User password reset", zap.String("user_id", userID.String()))

	return nil
}

// Delete removes a user. Administrators cannot delete their own account;
// that path goes through deactivation instead.
func (s *UserService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if id == actorID {
		return shared.NewDomainError("FORBIDDEN", "You cannot delete your own account")
	}

	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete user")
	}

	s.logger.Info("User deleted", zap.String("user_id", id.String()))

	return nil
}

// Count returns the total number of users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx, &identity.UserFilter{})
}

// transition applies a status change and persists the user
func (s *UserService) transition(ctx context.Context, id uuid.UUID, action string, fn func(*identity.User) error) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user status",
			zap.String("action", action),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User status changed",
		zap.String("user_id", id.String()),
		zap.String("action", action),
		zap.String("status", string(user.Status)))

	return NewUserResponse(user), nil
}

// findUser loads a user or maps the not-found case to a domain error
func (s *UserService) findUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		s.logger.Error("Failed to find user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find user")
	}
	return user, nil
}
