package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appidentity "github.com/moa/backend/internal/application/identity"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/domain/shared"
	"github.com/moa/backend/internal/infrastructure/auth"
	"github.com/moa/backend/internal/infrastructure/config"
	"github.com/moa/backend/internal/infrastructure/event"
	"github.com/moa/backend/internal/infrastructure/persistence"
	"github.com/moa/backend/tests/testutil"
)

// newAuthService wires an auth service against the test database
func newAuthService(db *TestDB, cfg appidentity.AuthServiceConfig) (*appidentity.AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "moa-integration-test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "moa-backend-test",
		MaxRefreshCount:        10,
	})

	svc := appidentity.NewAuthService(
		persistence.NewGormUserRepository(db.DB),
		persistence.NewGormRoleRepository(db.DB),
		jwtService,
		auth.NewInMemoryTokenBlacklist(),
		cfg,
		zap.NewNop(),
	)
	return svc, jwtService
}

// requireDomainErrorCode asserts that err is a domain error with the given code
func requireDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

// TestAuthFlow_Integration tests registration, login and session lifecycle
// against a real database with the seeded RBAC roles
func TestAuthFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	userRepo := persistence.NewGormUserRepository(db.DB)
	ctx := context.Background()

	t.Run("Register and Login round trip", func(t *testing.T) {
		svc, jwtService := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		bus := event.NewInMemoryEventBus(zap.NewNop())
		require.NoError(t, bus.Start(ctx))
		t.Cleanup(func() { _ = bus.Stop(context.Background()) })
		events := testutil.NewEventRecorder(identity.EventTypeUserRegistered, identity.EventTypeUserLoggedIn)
		bus.Subscribe(events)
		svc.SetEventPublisher(bus)

		resp, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "tainara.lima",
			Email:    "tainara@exemplo.com.br",
			Password: "SenhaForte1",
			FullName: "Tainara Lima",
			Phone:    "+55 92 98888-1234",
		})
		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, "Tainara Lima", resp.FullName)
		require.Len(t, resp.Roles, 1)
		assert.Equal(t, "customer", resp.Roles[0].Code)

		result, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "tainara@exemplo.com.br",
			Password: "SenhaForte1",
			IP:       "203.0.113.10",
		})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "tainara.lima", result.User.Username)
		assert.Contains(t, result.User.Roles, "customer")
		assert.Contains(t, result.User.Permissions, "orders.create")
		assert.Contains(t, result.User.Permissions, "products.read")

		claims, err := jwtService.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.ID.String(), claims.UserID)
		assert.Contains(t, claims.Permissions, "orders.create")

		found, err := userRepo.FindByEmail(ctx, "tainara@exemplo.com.br")
		require.NoError(t, err)
		require.NotNil(t, found.LastLoginAt)
		assert.Equal(t, "203.0.113.10", found.LastLoginIP)

		// Registration and login each landed one event on the bus
		assert.Equal(t, []string{identity.EventTypeUserRegistered, identity.EventTypeUserLoggedIn}, events.TypeSequence())
		registered, ok := events.LastOf(identity.EventTypeUserRegistered).(*identity.UserRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, resp.ID, registered.AggregateID())
		assert.Equal(t, "tainara@exemplo.com.br", registered.Email)
	})

	t.Run("Register rejects duplicate email and username", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		_, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "ademir.souza",
			Email:    "ademir@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		_, err = svc.Register(ctx, appidentity.RegisterInput{
			Username: "ademir.outro",
			Email:    "ADEMIR@exemplo.com.br",
			Password: "SenhaForte1",
		})
		requireDomainErrorCode(t, err, "EMAIL_TAKEN")

		_, err = svc.Register(ctx, appidentity.RegisterInput{
			Username: "ademir.souza",
			Email:    "outro@exemplo.com.br",
			Password: "SenhaForte1",
		})
		requireDomainErrorCode(t, err, "USERNAME_TAKEN")
	})

	t.Run("repeated login failures lock the account", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.AuthServiceConfig{
			MaxLoginAttempts: 3,
			LockDuration:     time.Hour,
		})

		_, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "karai.mirim",
			Email:    "karai@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		wrong := appidentity.LoginInput{Email: "karai@exemplo.com.br", Password: "SenhaErrada9"}
		for i := 0; i < 2; i++ {
			_, err = svc.Login(ctx, wrong)
			requireDomainErrorCode(t, err, "INVALID_CREDENTIALS")
		}

		_, err = svc.Login(ctx, wrong)
		requireDomainErrorCode(t, err, "ACCOUNT_LOCKED")

		// Even the right password is rejected while the lock holds
		_, err = svc.Login(ctx, appidentity.LoginInput{Email: "karai@exemplo.com.br", Password: "SenhaForte1"})
		requireDomainErrorCode(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("expired lock is lifted on the next login", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.AuthServiceConfig{
			MaxLoginAttempts: 2,
			LockDuration:     time.Hour,
		})

		resp, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "jurema.batista",
			Email:    "jurema@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		wrong := appidentity.LoginInput{Email: "jurema@exemplo.com.br", Password: "SenhaErrada9"}
		_, err = svc.Login(ctx, wrong)
		requireDomainErrorCode(t, err, "INVALID_CREDENTIALS")
		_, err = svc.Login(ctx, wrong)
		requireDomainErrorCode(t, err, "ACCOUNT_LOCKED")

		// Simulate the lock window passing
		require.NoError(t, db.DB.Exec(
			"UPDATE users SET locked_until = ? WHERE id = ?",
			time.Now().Add(-time.Minute), resp.ID,
		).Error)

		result, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "jurema@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)

		found, err := userRepo.FindByID(ctx, resp.ID)
		require.NoError(t, err)
		assert.True(t, found.IsActive())
		assert.Equal(t, 0, found.LoginFailures)
	})

	t.Run("RefreshToken rotates the pair", func(t *testing.T) {
		svc, jwtService := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		_, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "moacir.alves",
			Email:    "moacir@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		login, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "moacir@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		rotated, err := svc.RefreshToken(ctx, appidentity.RefreshTokenInput{
			RefreshToken: login.RefreshToken,
		})
		require.NoError(t, err)
		assert.NotEqual(t, login.AccessToken, rotated.AccessToken)
		assert.NotEmpty(t, rotated.RefreshToken)

		claims, err := jwtService.ValidateAccessToken(rotated.AccessToken)
		require.NoError(t, err)
		assert.Contains(t, claims.Permissions, "orders.create")

		_, err = svc.RefreshToken(ctx, appidentity.RefreshTokenInput{
			RefreshToken: "nem-um-token",
		})
		requireDomainErrorCode(t, err, "TOKEN_INVALID")
	})

	t.Run("logout everywhere revokes outstanding refresh tokens", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		resp, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "marina.tukano",
			Email:    "marina@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		login, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "marina@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, appidentity.LogoutInput{
			UserID:     resp.ID,
			Everywhere: true,
		}))

		_, err = svc.RefreshToken(ctx, appidentity.RefreshTokenInput{
			RefreshToken: login.RefreshToken,
		})
		requireDomainErrorCode(t, err, "TOKEN_REVOKED")
	})

	t.Run("ChangePassword revokes sessions and accepts the new password", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		resp, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "rosa.kaingang",
			Email:    "rosa@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		login, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "rosa@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, appidentity.ChangePasswordInput{
			UserID:      resp.ID,
			OldPassword: "SenhaErrada9",
			NewPassword: "NovaSenha22",
		})
		requireDomainErrorCode(t, err, "INVALID_PASSWORD")

		require.NoError(t, svc.ChangePassword(ctx, appidentity.ChangePasswordInput{
			UserID:      resp.ID,
			OldPassword: "SenhaForte1",
			NewPassword: "NovaSenha22",
		}))

		_, err = svc.RefreshToken(ctx, appidentity.RefreshTokenInput{
			RefreshToken: login.RefreshToken,
		})
		requireDomainErrorCode(t, err, "TOKEN_REVOKED")

		_, err = svc.Login(ctx, appidentity.LoginInput{
			Email:    "rosa@exemplo.com.br",
			Password: "SenhaForte1",
		})
		requireDomainErrorCode(t, err, "INVALID_CREDENTIALS")

		relogin, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "rosa@exemplo.com.br",
			Password: "NovaSenha22",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, relogin.AccessToken)
	})

	t.Run("seeded admin signs in with the bootstrap password", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		admin, err := userRepo.FindByEmail(ctx, "admin@moa.com.br")
		require.NoError(t, err)
		assert.True(t, admin.MustChangePassword, "bootstrap admin must be forced to rotate the password")

		result, err := svc.Login(ctx, appidentity.LoginInput{
			Email:    "admin@moa.com.br",
			Password: "Trocar@123",
		})
		require.NoError(t, err)
		assert.Contains(t, result.User.Roles, "admin")
		assert.Contains(t, result.User.Permissions, "system.manage")

		current, err := svc.GetCurrentUser(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin", current.Username)
	})

	t.Run("GetCurrentUser rejects unknown users", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		_, err := svc.GetCurrentUser(ctx, uuid.New())
		requireDomainErrorCode(t, err, "USER_NOT_FOUND")
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		svc, _ := newAuthService(db, appidentity.DefaultAuthServiceConfig())

		resp, err := svc.Register(ctx, appidentity.RegisterInput{
			Username: "conta.encerrada",
			Email:    "encerrada@exemplo.com.br",
			Password: "SenhaForte1",
		})
		require.NoError(t, err)

		user, err := userRepo.FindByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NoError(t, user.Deactivate())
		require.NoError(t, userRepo.Update(ctx, user))

		_, err = svc.Login(ctx, appidentity.LoginInput{
			Email:    "encerrada@exemplo.com.br",
			Password: "SenhaForte1",
		})
		requireDomainErrorCode(t, err, "ACCOUNT_DEACTIVATED")
	})
}
