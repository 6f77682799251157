package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"gymmanager/internal/models"
	"gymmanager/internal/repositories"
	"gymmanager/internal/tenancy"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type registeredNamespaces map[string]bool

func (r registeredNamespaces) NamespaceExists(_ context.Context, namespace string) (bool, error) {
	return r[namespace], nil
}

type StudentServiceTestSuite struct {
	suite.Suite
	pool    pgxmock.PgxPoolIface
	repo    *MockStudentRepository
	store   *MockObjectStore
	service StudentService
	ctx     context.Context
}

func (suite *StudentServiceTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.pool = pool
	suite.repo = &MockStudentRepository{}
	suite.store = &MockObjectStore{}
	router := tenancy.NewRouter(pool, registeredNamespaces{"acme_gym": true}, nil)
	suite.service = NewStudentService(router, suite.repo, suite.store)
	suite.ctx = context.Background()
}

func (suite *StudentServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.pool.ExpectationsWereMet())
	suite.repo.AssertExpectations(suite.T())
	suite.store.AssertExpectations(suite.T())
	suite.pool.Close()
}

func TestStudentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StudentServiceTestSuite))
}

func (suite *StudentServiceTestSuite) expectScope() {
	suite.pool.ExpectBegin()
	suite.pool.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "acme_gym", public`)).
		WillReturnResult(pgxmock.NewResult("SET", 0))
}

func inNamespace(namespace string) interface{} {
	return mock.MatchedBy(func(scope *tenancy.Scope) bool { return scope.Namespace() == namespace })
}

func newStudent() *models.Student {
	return &models.Student{
		FullName:  " Maria Silva ",
		BirthDate: time.Date(2010, 5, 4, 0, 0, 0, 0, time.UTC),
		WhatsApp:  "+55 11 99999-0000",
		DueDay:    10,
	}
}

func (suite *StudentServiceTestSuite) TestCreate_Success() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	student := newStudent()
	blank := "  "
	student.TaxID = &blank
	suite.repo.On("Create", mock.Anything, inNamespace("acme_gym"), student).
		Run(func(args mock.Arguments) { args.Get(2).(*models.Student).ID = 7 }).
		Return(nil).Once()

	err := suite.service.Create(suite.ctx, "acme_gym", student)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(7), student.ID)
	assert.Equal(suite.T(), "Maria Silva", student.FullName)
	assert.Nil(suite.T(), student.TaxID)
}

func (suite *StudentServiceTestSuite) TestCreate_ValidationTouchesNoScope() {
	cases := map[string]func(s *models.Student){
		"nome_completo":   func(s *models.Student) { s.FullName = "" },
		"whatsapp":        func(s *models.Student) { s.WhatsApp = " " },
		"data_nascimento": func(s *models.Student) { s.BirthDate = time.Time{} },
		"dia_vencimento":  func(s *models.Student) { s.DueDay = 32 },
	}
	for field, mutate := range cases {
		student := newStudent()
		mutate(student)

		err := suite.service.Create(suite.ctx, "acme_gym", student)

		var validationErr *ValidationError
		require.ErrorAs(suite.T(), err, &validationErr, field)
		assert.Equal(suite.T(), field, validationErr.Field)
	}
}

func (suite *StudentServiceTestSuite) TestCreate_DuplicateTaxID() {
	suite.expectScope()
	suite.pool.ExpectRollback()
	suite.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&repositories.UniqueViolationError{Constraint: "alunos_cpf_key"}).Once()

	err := suite.service.Create(suite.ctx, "acme_gym", newStudent())

	var conflictErr *ConflictError
	require.ErrorAs(suite.T(), err, &conflictErr)
	assert.Equal(suite.T(), "cpf", conflictErr.Field)
}

func (suite *StudentServiceTestSuite) TestCreate_UnknownNamespaceOpensNothing() {
	err := suite.service.Create(suite.ctx, "ghost_gym", newStudent())

	assert.ErrorIs(suite.T(), err, tenancy.ErrUnknownNamespace)
}

func (suite *StudentServiceTestSuite) TestGet_NotFound() {
	suite.expectScope()
	suite.pool.ExpectRollback()
	suite.repo.On("GetByID", mock.Anything, inNamespace("acme_gym"), int64(99)).Return(nil, repositories.ErrNotFound).Once()

	_, err := suite.service.Get(suite.ctx, "acme_gym", 99)

	assert.ErrorIs(suite.T(), err, ErrStudentNotFound)
}

func (suite *StudentServiceTestSuite) TestList_ClampsPagination() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	suite.repo.On("List", mock.Anything, inNamespace("acme_gym"), 100, 0).Return([]*models.Student{{ID: 1}}, nil).Once()

	students, err := suite.service.List(suite.ctx, "acme_gym", 0, 0)

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), students, 1)
}

func (suite *StudentServiceTestSuite) TestUpdate_AppliesOnlyPresentFields() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	current := newStudent()
	current.ID = 7
	belt := "azul"
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(current, nil).Once()
	suite.repo.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(s *models.Student) bool {
		return s.ID == 7 && *s.Belt == "azul" && s.DueDay == 10 && s.WhatsApp == "+55 11 99999-0000"
	})).Return(nil).Once()

	updated, err := suite.service.Update(suite.ctx, "acme_gym", 7, &models.StudentPatch{Belt: &belt})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "azul", *updated.Belt)
}

func (suite *StudentServiceTestSuite) TestUpdate_InvalidPatchRollsBack() {
	suite.expectScope()
	suite.pool.ExpectRollback()
	current := newStudent()
	current.ID = 7
	zero := 0
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(current, nil).Once()

	_, err := suite.service.Update(suite.ctx, "acme_gym", 7, &models.StudentPatch{DueDay: &zero})

	var validationErr *ValidationError
	require.ErrorAs(suite.T(), err, &validationErr)
	suite.repo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StudentServiceTestSuite) TestDelete_RemovesPhoto() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	photo := "acme_gym/students/7/a.jpg"
	student := newStudent()
	student.ID = 7
	student.PhotoURL = &photo
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(student, nil).Once()
	suite.repo.On("Delete", mock.Anything, mock.Anything, int64(7)).Return(nil).Once()
	suite.store.On("Delete", mock.Anything, photo).Return(nil).Once()

	require.NoError(suite.T(), suite.service.Delete(suite.ctx, "acme_gym", 7))
}

func (suite *StudentServiceTestSuite) TestUploadPhoto_ReplacesPrevious() {
	previous := "acme_gym/students/7/old.jpg"
	current := newStudent()
	current.ID = 7
	current.PhotoURL = &previous

	suite.expectScope()
	suite.pool.ExpectCommit()
	suite.expectScope()
	suite.pool.ExpectCommit()
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(current, nil).Twice()

	newObject := mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "acme_gym/students/7/") && strings.HasSuffix(name, ".png")
	})
	suite.store.On("Upload", mock.Anything, newObject, mock.Anything, int64(3), "image/png").Return(nil).Once()
	suite.repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	suite.store.On("Delete", mock.Anything, previous).Return(nil).Once()

	student, err := suite.service.UploadPhoto(suite.ctx, "acme_gym", 7, strings.NewReader("png"), 3, "image/png", "Face.PNG")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), strings.HasSuffix(*student.PhotoURL, ".png"))
	assert.NotEqual(suite.T(), previous, *student.PhotoURL)
}

func (suite *StudentServiceTestSuite) TestUploadPhoto_UploadFailureKeepsRecord() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	current := newStudent()
	current.ID = 7
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(current, nil).Once()
	suite.store.On("Upload", mock.Anything, mock.Anything, mock.Anything, int64(3), "image/jpeg").
		Return(errors.New("bucket unavailable")).Once()

	_, err := suite.service.UploadPhoto(suite.ctx, "acme_gym", 7, strings.NewReader("jpg"), 3, "image/jpeg", "face.jpg")

	assert.ErrorContains(suite.T(), err, "failed to upload photo")
	suite.repo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StudentServiceTestSuite) TestPhotoURL() {
	photo := "acme_gym/students/7/a.jpg"
	student := newStudent()
	student.PhotoURL = &photo
	suite.expectScope()
	suite.pool.ExpectCommit()
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(student, nil).Once()
	suite.store.On("PresignedURL", mock.Anything, photo, 15*time.Minute).Return("https://minio.test/signed", nil).Once()

	url, err := suite.service.PhotoURL(suite.ctx, "acme_gym", 7)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "https://minio.test/signed", url)
}

func (suite *StudentServiceTestSuite) TestPhotoURL_NoPhoto() {
	suite.expectScope()
	suite.pool.ExpectCommit()
	suite.repo.On("GetByID", mock.Anything, mock.Anything, int64(7)).Return(newStudent(), nil).Once()

	_, err := suite.service.PhotoURL(suite.ctx, "acme_gym", 7)

	assert.ErrorIs(suite.T(), err, ErrPhotoNotFound)
}
