package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/moa/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "unit-test-access-secret-32-chars!",
		RefreshSecret:          "unit-test-refresh-secret-32-char!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "moa-backend",
		MaxRefreshCount:        10,
	}
}

func newTestJWTService() *JWTService {
	return NewJWTService(testJWTConfig())
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		UserID:      uuid.New(),
		Username:    "maria.artesana",
		Email:       "maria@tecelagem.example.br",
		RoleIDs:     []uuid.UUID{uuid.New(), uuid.New()},
		Permissions: []string{"product.review", "product.publish", "order.read"},
	}
}

func mintPair(t *testing.T, svc *JWTService, input GenerateTokenInput) *TokenPair {
	t.Helper()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair
}

// craftToken signs arbitrary claims with the service's own secret, for
// exercising validation branches the public API never produces.
func craftToken(t *testing.T, svc *JWTService, claims *Claims, secret []byte) string {
	t.Helper()
	token, err := svc.sign(claims, secret)
	require.NoError(t, err)
	return token
}

func TestNewJWTService(t *testing.T) {
	cfg := testJWTConfig()
	svc := NewJWTService(cfg)

	require.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.accessSecret)
	assert.Equal(t, []byte(cfg.RefreshSecret), svc.refreshSecret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.accessExpiration)
	assert.Equal(t, cfg.RefreshTokenExpiration, svc.refreshExpiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.Equal(t, cfg.MaxRefreshCount, svc.maxRefreshCount)
}

func TestNewJWTService_RefreshSecretFallback(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = ""

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	pair := mintPair(t, newTestJWTService(), newTestInput())

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.AccessTokenExpiresAt.After(time.Now()))
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestGenerateTokenPair_RegisteredClaims(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair := mintPair(t, svc, input)

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, "moa-backend", access.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"moa-backend"}, access.Audience)
	assert.Equal(t, input.UserID.String(), access.Subject)
	assert.NotEmpty(t, access.ID)
	assert.NotEmpty(t, refresh.ID)
	// Each token gets its own jti, so one can be revoked without the other.
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair := mintPair(t, svc, input)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Equal(t, input.Email, claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Len(t, claims.RoleIDs, len(input.RoleIDs))
	assert.Equal(t, input.Permissions, claims.Permissions)
}

func TestValidateAccessToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) (*JWTService, string)
		wantErr error
	}{
		{
			name: "malformed string",
			setup: func(t *testing.T) (*JWTService, string) {
				return newTestJWTService(), "not-a-jwt"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			setup: func(t *testing.T) (*JWTService, string) {
				cfg := testJWTConfig()
				cfg.AccessTokenExpiration = -time.Hour
				svc := NewJWTService(cfg)
				return svc, mintPair(t, svc, newTestInput()).AccessToken
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "signed with another secret",
			setup: func(t *testing.T) (*JWTService, string) {
				pair := mintPair(t, newTestJWTService(), newTestInput())
				cfg := testJWTConfig()
				cfg.Secret = "a-completely-different-secret-32!"
				return NewJWTService(cfg), pair.AccessToken
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token presented as access",
			setup: func(t *testing.T) (*JWTService, string) {
				// Shared secret so only the type check can reject it.
				cfg := testJWTConfig()
				cfg.RefreshSecret = cfg.Secret
				svc := NewJWTService(cfg)
				return svc, mintPair(t, svc, newTestInput()).RefreshToken
			},
			wantErr: ErrInvalidTokenType,
		},
		{
			name: "unsigned token",
			setup: func(t *testing.T) (*JWTService, string) {
				svc := newTestJWTService()
				claims := &Claims{
					RegisteredClaims: svc.registeredClaims(time.Now(), uuid.New().String(), time.Hour),
					UserID:           uuid.New().String(),
					TokenType:        TokenTypeAccess,
				}
				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return svc, token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "not yet valid",
			setup: func(t *testing.T) (*JWTService, string) {
				svc := newTestJWTService()
				now := time.Now()
				claims := &Claims{
					RegisteredClaims: svc.registeredClaims(now, uuid.New().String(), 2*time.Hour),
					UserID:           uuid.New().String(),
					TokenType:        TokenTypeAccess,
				}
				claims.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
				return svc, craftToken(t, svc, claims, svc.accessSecret)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "no user id claim",
			setup: func(t *testing.T) (*JWTService, string) {
				svc := newTestJWTService()
				claims := &Claims{
					RegisteredClaims: svc.registeredClaims(time.Now(), uuid.New().String(), time.Hour),
					TokenType:        TokenTypeAccess,
				}
				return svc, craftToken(t, svc, claims, svc.accessSecret)
			},
			wantErr: ErrMissingUserID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, token := tt.setup(t)

			_, err := svc.ValidateAccessToken(token)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair := mintPair(t, svc, input)

	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, 0, claims.RefreshCount)
	// Refresh tokens stay minimal; roles and permissions live only in
	// access tokens.
	assert.Empty(t, claims.RoleIDs)
	assert.Empty(t, claims.Permissions)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = cfg.Secret
	svc := NewJWTService(cfg)
	pair := mintPair(t, svc, newTestInput())

	_, err := svc.ValidateRefreshToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	pair := mintPair(t, svc, newTestInput())

	rotated, err := svc.RefreshTokenPair(pair.RefreshToken, []string{"order.update"})

	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The new access token carries the permissions passed in, not the
	// ones from login.
	claims, err := svc.ValidateAccessToken(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"order.update"}, claims.Permissions)
}

func TestRefreshTokenPair_IncrementsRefreshCount(t *testing.T) {
	svc := newTestJWTService()
	pair := mintPair(t, svc, newTestInput())

	for want := 1; want <= 3; want++ {
		rotated, err := svc.RefreshTokenPair(pair.RefreshToken, nil)
		require.NoError(t, err)

		claims, err := svc.ValidateRefreshToken(rotated.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, want, claims.RefreshCount)

		pair = rotated
	}
}

func TestRefreshTokenPair_MaxRefreshExceeded(t *testing.T) {
	cfg := testJWTConfig()
	cfg.MaxRefreshCount = 2
	svc := NewJWTService(cfg)
	pair := mintPair(t, svc, newTestInput())

	var err error
	for range 2 {
		pair, err = svc.RefreshTokenPair(pair.RefreshToken, nil)
		require.NoError(t, err)
	}

	// The count now equals the cap, so the next rotation is refused.
	_, err = svc.RefreshTokenPair(pair.RefreshToken, nil)

	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestRefreshTokenPair_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) (*JWTService, string)
		wantErr error
	}{
		{
			name: "malformed string",
			setup: func(t *testing.T) (*JWTService, string) {
				return newTestJWTService(), "not-a-jwt"
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "access token presented for refresh",
			setup: func(t *testing.T) (*JWTService, string) {
				cfg := testJWTConfig()
				cfg.RefreshSecret = cfg.Secret
				svc := NewJWTService(cfg)
				return svc, mintPair(t, svc, newTestInput()).AccessToken
			},
			wantErr: ErrInvalidTokenType,
		},
		{
			name: "user id is not a uuid",
			setup: func(t *testing.T) (*JWTService, string) {
				svc := newTestJWTService()
				claims := &Claims{
					RegisteredClaims: svc.registeredClaims(time.Now(), "vendedor-1", time.Hour),
					UserID:           "vendedor-1",
					TokenType:        TokenTypeRefresh,
				}
				return svc, craftToken(t, svc, claims, svc.refreshSecret)
			},
			wantErr: ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, token := tt.setup(t)

			_, err := svc.RefreshTokenPair(token, nil)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaims_UUIDGetters(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair := mintPair(t, svc, input)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	userUUID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userUUID)

	roleUUIDs, err := claims.GetRoleUUIDs()
	require.NoError(t, err)
	assert.Equal(t, input.RoleIDs, roleUUIDs)
}

func TestClaims_GetRoleUUIDs_Invalid(t *testing.T) {
	claims := &Claims{RoleIDs: []string{uuid.New().String(), "not-a-uuid"}}

	_, err := claims.GetRoleUUIDs()

	assert.Error(t, err)
}

func TestClaims_PermissionChecks(t *testing.T) {
	claims := &Claims{
		Permissions: []string{"product.review", "product.publish", "order.read"},
	}

	assert.True(t, claims.HasPermission("product.review"))
	assert.False(t, claims.HasPermission("user.delete"))

	assert.True(t, claims.HasAnyPermission("user.delete", "order.read"))
	assert.False(t, claims.HasAnyPermission("user.delete", "user.create"))

	assert.True(t, claims.HasAllPermissions("product.review", "order.read"))
	assert.False(t, claims.HasAllPermissions("product.review", "user.delete"))
	assert.True(t, claims.HasAllPermissions())
}

func TestClaims_TimeGetters(t *testing.T) {
	svc := newTestJWTService()
	before := time.Now()
	pair := mintPair(t, svc, newTestInput())

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.WithinDuration(t, before, claims.GetIssuedAtTime(), 5*time.Second)
	assert.WithinDuration(t, before.Add(15*time.Minute), claims.GetExpiresAtTime(), 5*time.Second)

	ttl := claims.GetRemainingTTL()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 15*time.Minute)
}

func TestClaims_TimeGetters_ZeroValues(t *testing.T) {
	claims := &Claims{}

	assert.True(t, claims.GetIssuedAtTime().IsZero())
	assert.True(t, claims.GetExpiresAtTime().IsZero())
	assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())
}

func TestClaims_GetRemainingTTL_Expired(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}

	assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())
}

func TestExpirationGetters(t *testing.T) {
	svc := newTestJWTService()

	assert.Equal(t, 15*time.Minute, svc.GetAccessTokenExpiration())
	assert.Equal(t, 7*24*time.Hour, svc.GetRefreshTokenExpiration())
}
