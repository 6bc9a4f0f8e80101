package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appidentity "github.com/moa/backend/internal/application/identity"
	"github.com/moa/backend/internal/domain/identity"
	"github.com/moa/backend/internal/infrastructure/auth"
	"github.com/moa/backend/internal/infrastructure/config"
	"github.com/moa/backend/internal/interfaces/http/middleware"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter *identity.UserFilter) ([]*identity.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter *identity.UserFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SaveRoles(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) LoadRoles(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRoleRepository is a mock implementation of identity.RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByCode(ctx context.Context, code string) (*identity.Role, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) FindAll(ctx context.Context, filter *identity.RoleFilter) ([]*identity.Role, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) Count(ctx context.Context, filter *identity.RoleFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Role, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) FindSystemRoles(ctx context.Context) ([]*identity.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) SavePermissions(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) LoadPermissions(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) FindRolesWithPermission(ctx context.Context, permissionCode string) ([]*identity.Role, error) {
	args := m.Called(ctx, permissionCode)
	return args.Get(0).([]*identity.Role), args.Error(1)
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func newAuthServiceForHandler(userRepo *MockUserRepository, roleRepo *MockRoleRepository, jwtService *auth.JWTService) *appidentity.AuthService {
	return appidentity.NewAuthService(
		userRepo,
		roleRepo,
		jwtService,
		auth.NewInMemoryTokenBlacklist(),
		appidentity.DefaultAuthServiceConfig(),
		zap.NewNop(),
	)
}

func setupAuthRouter(handler *AuthHandler, jwtService *auth.JWTService) *gin.Engine {
	r := gin.New()

	// Public auth routes
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.RefreshToken)
	}

	// Protected auth routes
	protectedGroup := r.Group("/api/v1/auth")
	protectedGroup.Use(middleware.JWTAuthMiddleware(jwtService))
	{
		protectedGroup.POST("/logout", handler.Logout)
		protectedGroup.GET("/me", handler.GetCurrentUser)
		protectedGroup.PUT("/password", handler.ChangePassword)
	}

	return r
}

// newCustomerTestUser creates an active user holding the customer role
func newCustomerTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewActiveUser("mariana", "mariana@moa.com.br", "Password123")
	require.NoError(t, err)

	role, err := identity.NewSystemRole(identity.RoleCodeCustomer, "Customer")
	require.NoError(t, err)
	perm, err := identity.NewPermission("orders.create", "Place orders", "")
	require.NoError(t, err)
	require.NoError(t, role.GrantPermission(*perm))
	require.NoError(t, user.AssignRole(*role))

	user.ClearDomainEvents()
	return user
}

// loginAs performs a login through the router and returns the access token
func loginAs(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	return data["access_token"].(string)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	customerRole, err := identity.NewSystemRole(identity.RoleCodeCustomer, "Customer")
	require.NoError(t, err)

	userRepo.On("ExistsByEmail", mock.Anything, "joao@moa.com.br").Return(false, nil)
	userRepo.On("ExistsByUsername", mock.Anything, "joao").Return(false, nil)
	roleRepo.On("FindByCode", mock.Anything, identity.RoleCodeCustomer).Return(customerRole, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	userRepo.On("SaveRoles", mock.Anything, mock.Anything).Return(nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	body, _ := json.Marshal(RegisterRequest{
		Username: "joao",
		Email:    "joao@moa.com.br",
		Password: "Password123",
		FullName: "João da Silva",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "joao", data["username"])
	assert.Equal(t, "active", data["status"])

	userRepo.AssertExpectations(t)
	roleRepo.AssertExpectations(t)
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	userRepo.On("ExistsByEmail", mock.Anything, "joao@moa.com.br").Return(true, nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	body, _ := json.Marshal(RegisterRequest{
		Username: "joao",
		Email:    "joao@moa.com.br",
		Password: "Password123",
		FullName: "João da Silva",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errInfo := response["error"].(map[string]interface{})
	assert.Equal(t, "ERR_EMAIL_TAKEN", errInfo["code"])
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(new(MockUserRepository), new(MockRoleRepository), jwtService))
	router := setupAuthRouter(handler, jwtService)

	// Invalid email and a password below the minimum length
	body := []byte(`{"username":"joao","email":"not-an-email","password":"short","full_name":"João"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errInfo := response["error"].(map[string]interface{})
	assert.Equal(t, "ERR_VALIDATION", errInfo["code"])
	assert.NotEmpty(t, errInfo["details"])
}

func TestAuthHandler_Login_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	body, _ := json.Marshal(LoginRequest{
		Email:    "mariana@moa.com.br",
		Password: "Password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))

	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.Equal(t, "Bearer", data["token_type"])

	userData := data["user"].(map[string]interface{})
	assert.Equal(t, "mariana", userData["username"])
	assert.Contains(t, userData["permissions"], "orders.create")
}

func TestAuthHandler_Login_InvalidRequestBody(t *testing.T) {
	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(new(MockUserRepository), new(MockRoleRepository), jwtService))
	router := setupAuthRouter(handler, jwtService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	body, _ := json.Marshal(LoginRequest{
		Email:    "mariana@moa.com.br",
		Password: "WrongPassword1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errInfo := response["error"].(map[string]interface{})
	assert.Equal(t, "ERR_INVALID_CREDENTIALS", errInfo["code"])
}

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	// Login to obtain the refresh token
	loginBody, _ := json.Marshal(LoginRequest{Email: "mariana@moa.com.br", Password: "Password123"})
	loginReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(loginBody))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	router.ServeHTTP(loginW, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code)

	var loginResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(loginW.Body.Bytes(), &loginResponse))
	refreshToken := loginResponse["data"].(map[string]interface{})["refresh_token"].(string)

	body, _ := json.Marshal(RefreshTokenRequest{RefreshToken: refreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.NotEqual(t, refreshToken, data["refresh_token"], "refresh token should rotate")
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(new(MockUserRepository), new(MockRoleRepository), jwtService))
	router := setupAuthRouter(handler, jwtService)

	body, _ := json.Marshal(RefreshTokenRequest{RefreshToken: "not-a-valid-token"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	accessToken := loginAs(t, router, "mariana@moa.com.br", "Password123")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Logged out successfully", data["message"])
}

func TestAuthHandler_Logout_Everywhere(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	accessToken := loginAs(t, router, "mariana@moa.com.br", "Password123")

	body := []byte(`{"everywhere": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Logout_Unauthorized(t *testing.T) {
	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(new(MockUserRepository), new(MockRoleRepository), jwtService))
	router := setupAuthRouter(handler, jwtService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, user).Return(nil)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	accessToken := loginAs(t, router, "mariana@moa.com.br", "Password123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "mariana", data["username"])
	assert.Equal(t, "mariana@moa.com.br", data["email"])
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	roleRepo := new(MockRoleRepository)

	user := newCustomerTestUser(t)
	userRepo.On("FindByEmail", mock.Anything, "mariana@moa.com.br").Return(user, nil)
	userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	jwtService := testJWTService()
	handler := NewAuthHandler(newAuthServiceForHandler(userRepo, roleRepo, jwtService))
	router := setupAuthRouter(handler, jwtService)

	accessToken := loginAs(t, router, "mariana@moa.com.br", "Password123")

	body, _ := json.Marshal(ChangePasswordRequest{
		OldPassword: "Password123",
		NewPassword: "NewPassword456",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response["success"].(bool))
}
