package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymmanager/internal/models"
	"gymmanager/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-secret"

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo   *MockUserRepository
	tenantRepo *MockTenantRepository
	service    AuthService
	ctx        context.Context
	owner      *models.User
	tenant     *models.Tenant
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.userRepo = &MockUserRepository{}
	suite.tenantRepo = &MockTenantRepository{}
	suite.service = NewAuthService(suite.userRepo, suite.tenantRepo, testJWTSecret, 30*time.Minute)
	suite.ctx = context.Background()

	hash, err := HashPassword("s3cret!")
	require.NoError(suite.T(), err)
	tenantID := uuid.New()
	suite.tenant = &models.Tenant{ID: tenantID, Name: "Acme Gym", SchemaName: "acme_gym", Status: models.TenantStatusTrial}
	suite.owner = &models.User{
		ID:           uuid.New(),
		Email:        "owner@acme.test",
		TaxID:        "12345678900",
		PasswordHash: hash,
		TenantID:     &tenantID,
	}
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.userRepo.AssertExpectations(suite.T())
	suite.tenantRepo.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestAuthenticate_Success() {
	suite.userRepo.On("GetByEmail", suite.ctx, "owner@acme.test").Return(suite.owner, nil).Once()
	suite.tenantRepo.On("GetByID", suite.ctx, *suite.owner.TenantID).Return(suite.tenant, nil).Once()

	token, err := suite.service.Authenticate(suite.ctx, " Owner@Acme.test ", "s3cret!")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "bearer", token.TokenType)
	assert.Equal(suite.T(), 1800, token.ExpiresIn)

	claims, err := suite.service.ValidateToken(token.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.owner.ID, claims.UserID)
	assert.Equal(suite.T(), "acme_gym", claims.Namespace)
	assert.Equal(suite.T(), suite.owner.TenantID, claims.TenantID)
	assert.Equal(suite.T(), "owner@acme.test", claims.Subject)
	assert.False(suite.T(), claims.Admin)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_WrongPassword() {
	suite.userRepo.On("GetByEmail", suite.ctx, "owner@acme.test").Return(suite.owner, nil).Once()

	_, err := suite.service.Authenticate(suite.ctx, "owner@acme.test", "wrong")

	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_UnknownEmailLooksTheSame() {
	suite.userRepo.On("GetByEmail", suite.ctx, "ghost@acme.test").Return(nil, repositories.ErrNotFound).Once()

	_, err := suite.service.Authenticate(suite.ctx, "ghost@acme.test", "s3cret!")

	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_RepositoryError() {
	suite.userRepo.On("GetByEmail", suite.ctx, "owner@acme.test").Return(nil, errors.New("db down")).Once()

	_, err := suite.service.Authenticate(suite.ctx, "owner@acme.test", "s3cret!")

	require.Error(suite.T(), err)
	assert.NotErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestAuthenticate_PlatformAdminHasNoNamespace() {
	hash, err := HashPassword("admin-pass")
	require.NoError(suite.T(), err)
	admin := &models.User{ID: uuid.New(), Email: "root@platform.test", PasswordHash: hash, IsSaaSAdmin: true}
	suite.userRepo.On("GetByEmail", suite.ctx, "root@platform.test").Return(admin, nil).Once()

	token, err := suite.service.Authenticate(suite.ctx, "root@platform.test", "admin-pass")
	require.NoError(suite.T(), err)

	claims, err := suite.service.ValidateToken(token.AccessToken)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), claims.Admin)
	assert.Empty(suite.T(), claims.Namespace)
	assert.Nil(suite.T(), claims.TenantID)
}

func (suite *AuthServiceTestSuite) TestValidateToken_RejectsForeignSecret() {
	other := NewAuthService(suite.userRepo, suite.tenantRepo, "another-secret", time.Minute)
	token, err := other.IssueToken(suite.owner, "acme_gym")
	require.NoError(suite.T(), err)

	_, err = suite.service.ValidateToken(token.AccessToken)

	assert.Error(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestValidateToken_RejectsExpired() {
	expired := NewAuthService(suite.userRepo, suite.tenantRepo, testJWTSecret, -time.Minute)
	token, err := expired.IssueToken(suite.owner, "acme_gym")
	require.NoError(suite.T(), err)

	_, err = suite.service.ValidateToken(token.AccessToken)

	assert.ErrorIs(suite.T(), err, jwt.ErrTokenExpired)
}

func (suite *AuthServiceTestSuite) TestValidateToken_RejectsOtherIssuer() {
	claims := &models.TokenClaims{
		UserID:           suite.owner.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(suite.T(), err)

	_, err = suite.service.ValidateToken(signed)

	assert.ErrorIs(suite.T(), err, jwt.ErrTokenInvalidIssuer)
}

func (suite *AuthServiceTestSuite) TestGetProfile() {
	profile := &models.UserProfile{User: *suite.owner, Tenant: suite.tenant.Summary()}
	suite.userRepo.On("GetProfile", suite.ctx, suite.owner.ID).Return(profile, nil).Once()

	got, err := suite.service.GetProfile(suite.ctx, suite.owner.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "acme_gym", got.Tenant.SchemaName)
}

func (suite *AuthServiceTestSuite) TestGetProfile_DeletedUser() {
	id := uuid.New()
	suite.userRepo.On("GetProfile", suite.ctx, id).Return(nil, repositories.ErrNotFound).Once()

	_, err := suite.service.GetProfile(suite.ctx, id)

	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}
