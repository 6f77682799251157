package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gymmanager/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type UserRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    UserRepository
	context context.Context
}

func (suite *UserRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewUserRepo(mock)
	suite.context = context.Background()
}

func (suite *UserRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestUserRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepoTestSuite))
}

func (suite *UserRepoTestSuite) TestCreate_DuplicateEmail() {
	tenantID := uuid.New()
	user := &models.User{ID: uuid.New(), Email: "owner@acme.test", TaxID: "12345678900", PasswordHash: "hash", TenantID: &tenantID}

	suite.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO public.users`)).
		WithArgs(user.ID, user.Email, user.TaxID, user.PasswordHash, user.IsSaaSAdmin, user.TenantID).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintUserEmail})

	err := suite.repo.Create(suite.context, user)
	var uniqueErr *UniqueViolationError
	require.ErrorAs(suite.T(), err, &uniqueErr)
	assert.Equal(suite.T(), ConstraintUserEmail, uniqueErr.Constraint)
}

func (suite *UserRepoTestSuite) TestGetByEmail_Success() {
	tenantID := uuid.New()
	userID := uuid.New()
	createdAt := time.Now().UTC()

	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM public.users WHERE email = $1`)).
		WithArgs("owner@acme.test").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "cpf", "password_hash", "is_saas_admin", "tenant_id", "created_at"}).
			AddRow(userID, "owner@acme.test", "12345678900", "hash", false, &tenantID, createdAt))

	user, err := suite.repo.GetByEmail(suite.context, "owner@acme.test")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), userID, user.ID)
	assert.Equal(suite.T(), tenantID, *user.TenantID)
	assert.Equal(suite.T(), "hash", user.PasswordHash)
}

func (suite *UserRepoTestSuite) TestGetByEmail_NotFound() {
	suite.mock.ExpectQuery(regexp.QuoteMeta(`FROM public.users WHERE email = $1`)).
		WithArgs("nobody@acme.test").
		WillReturnError(pgx.ErrNoRows)

	user, err := suite.repo.GetByEmail(suite.context, "nobody@acme.test")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), user)
}

func (suite *UserRepoTestSuite) TestEmailAndTaxIDExists() {
	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE email = $1)`)).
		WithArgs("owner@acme.test").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	suite.mock.ExpectQuery(regexp.QuoteMeta(`WHERE cpf = $1)`)).
		WithArgs("12345678900").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	emailTaken, err := suite.repo.EmailExists(suite.context, "owner@acme.test")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), emailTaken)

	taxIDTaken, err := suite.repo.TaxIDExists(suite.context, "12345678900")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), taxIDTaken)
}

func (suite *UserRepoTestSuite) TestGetProfile_WithTenant() {
	userID := uuid.New()
	tenantID := uuid.New()
	trialEnds := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	name, schema := "Acme Gym", "acme_gym"
	status := models.TenantStatusTrial

	suite.mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN public.tenants t ON t.id = u.tenant_id`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "cpf", "is_saas_admin", "tenant_id", "created_at",
			"name", "schema_name", "status", "trial_ends_at"}).
			AddRow(userID, "owner@acme.test", "12345678900", false, &tenantID, time.Now().UTC(), &name, &schema, &status, &trialEnds))

	profile, err := suite.repo.GetProfile(suite.context, userID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), profile.Tenant)
	assert.Equal(suite.T(), "acme_gym", profile.Tenant.SchemaName)
	assert.Equal(suite.T(), "2026-02-09", profile.Tenant.TrialEndsAt)
}

func (suite *UserRepoTestSuite) TestGetProfile_PlatformAdmin() {
	userID := uuid.New()

	suite.mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN public.tenants t ON t.id = u.tenant_id`)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "cpf", "is_saas_admin", "tenant_id", "created_at",
			"name", "schema_name", "status", "trial_ends_at"}).
			AddRow(userID, "admin@platform.test", "00000000000", true, (*uuid.UUID)(nil), time.Now().UTC(),
				(*string)(nil), (*string)(nil), (*models.TenantStatus)(nil), (*time.Time)(nil)))

	profile, err := suite.repo.GetProfile(suite.context, userID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), profile.IsSaaSAdmin)
	assert.Nil(suite.T(), profile.Tenant)
}
