package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
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

func (m *MockUserRepository) FindAll(ctx context.Context, query identity.UserQuery, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, query identity.UserQuery, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret",
		RefreshSecret:          "test-refresh-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "storefront-test",
	})
}

func newTestAuthService(userRepo *MockUserRepository) *AuthService {
	return NewAuthService(userRepo, newTestJWTService(), auth.NewInMemoryTokenBlacklist(), zap.NewNop())
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("ada@example.com", "correct horse battery", "Ada")
	require.NoError(t, err)
	return user
}

func TestAuthService_Register_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	mockUserRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	result, err := service.Register(ctx, RegisterRequest{
		Email:       "Ada@Example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, "customer", result.User.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	mockUserRepo.On("ExistsByEmail", ctx, "ada@example.com").Return(true, nil)

	result, err := service.Register(ctx, RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMAIL_TAKEN", domainErr.Code)
	mockUserRepo.AssertNotCalled(t, "Save")
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	user := newTestUser(t)

	mockUserRepo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)
	mockUserRepo.On("Save", ctx, user).Return(nil)

	result, err := service.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotNil(t, user.LastLoginAt)

	claims, err := newTestJWTService().ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	user := newTestUser(t)

	mockUserRepo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)

	result, err := service.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	mockUserRepo.AssertNotCalled(t, "Save")
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	mockUserRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, shared.ErrNotFound)

	result, err := service.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	user := newTestUser(t)
	require.NoError(t, user.Deactivate())

	mockUserRepo.On("FindByEmail", ctx, "ada@example.com").Return(user, nil)

	result, err := service.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_INACTIVE", domainErr.Code)
}

func TestAuthService_Refresh_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	user := newTestUser(t)

	pair, err := newTestJWTService().GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	require.NoError(t, err)

	mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	result, err := service.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	service := newTestAuthService(mockUserRepo)

	ctx := context.Background()
	user := newTestUser(t)

	pair, err := newTestJWTService().GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	require.NoError(t, err)

	result, err := service.Refresh(ctx, RefreshRequest{RefreshToken: pair.AccessToken})

	assert.Error(t, err)
	assert.Nil(t, result)
	mockUserRepo.AssertNotCalled(t, "FindByID")
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	jwtService := newTestJWTService()
	blacklist := auth.NewInMemoryTokenBlacklist()
	service := NewAuthService(mockUserRepo, jwtService, blacklist, zap.NewNop())

	ctx := context.Background()
	user := newTestUser(t)

	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	require.NoError(t, err)

	accessClaims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, accessClaims, pair.RefreshToken))

	// the revoked refresh token must no longer mint new pairs
	result, err := service.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_REVOKED", domainErr.Code)

	blacklisted, err := blacklist.IsBlacklisted(ctx, accessClaims.RegisteredClaims.ID)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := newTestAuthService(mockUserRepo)

		user := newTestUser(t)
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		mockUserRepo.On("Save", ctx, user).Return(nil)

		err := service.ChangePassword(ctx, user.ID, ChangePasswordRequest{
			CurrentPassword: "correct horse battery",
			NewPassword:     "staple gun overflow",
		})

		assert.NoError(t, err)
		assert.True(t, user.VerifyPassword("staple gun overflow"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := newTestAuthService(mockUserRepo)

		user := newTestUser(t)
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		err := service.ChangePassword(ctx, user.ID, ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "staple gun overflow",
		})

		assert.Error(t, err)
		mockUserRepo.AssertNotCalled(t, "Save")
	})
}

func TestUserService_SetRoleAndDeactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("set role", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewUserService(mockUserRepo, zap.NewNop())

		user := newTestUser(t)
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		mockUserRepo.On("Save", ctx, user).Return(nil)

		result, err := service.SetRole(ctx, user.ID, "trader")
		assert.NoError(t, err)
		assert.Equal(t, "trader", result.Role)
	})

	t.Run("invalid role", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewUserService(mockUserRepo, zap.NewNop())

		user := newTestUser(t)
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		result, err := service.SetRole(ctx, user.ID, "superuser")
		assert.Error(t, err)
		assert.Nil(t, result)
		mockUserRepo.AssertNotCalled(t, "Save")
	})

	t.Run("deactivate admin is rejected", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewUserService(mockUserRepo, zap.NewNop())

		user := newTestUser(t)
		require.NoError(t, user.SetRole(identity.RoleAdmin))
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		result, err := service.Deactivate(ctx, user.ID)
		assert.Error(t, err)
		assert.Nil(t, result)
		mockUserRepo.AssertNotCalled(t, "Save")
	})

	t.Run("deactivate customer", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewUserService(mockUserRepo, zap.NewNop())

		user := newTestUser(t)
		mockUserRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		mockUserRepo.On("Save", ctx, user).Return(nil)

		result, err := service.Deactivate(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, "deactivated", result.Status)
	})
}
