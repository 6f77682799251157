package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/models"
	"gymmanager/internal/repositories"
	"gymmanager/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const photoURLExpiry = 15 * time.Minute

// Scoper runs fn inside a scope bound to one tenant namespace.
type Scoper interface {
	WithScope(ctx context.Context, tenantIdentifier *string, fn func(scope *tenancy.Scope) error) error
}

type StudentService interface {
	Create(ctx context.Context, namespace string, student *models.Student) error
	Get(ctx context.Context, namespace string, id int64) (*models.Student, error)
	List(ctx context.Context, namespace string, limit, offset int) ([]*models.Student, error)
	Update(ctx context.Context, namespace string, id int64, patch *models.StudentPatch) (*models.Student, error)
	Delete(ctx context.Context, namespace string, id int64) error
	UploadPhoto(ctx context.Context, namespace string, id int64, reader io.Reader, size int64, contentType, filename string) (*models.Student, error)
	PhotoURL(ctx context.Context, namespace string, id int64) (string, error)
}

type studentService struct {
	scoper Scoper
	repo   repositories.StudentRepository
	store  ObjectStore
}

func NewStudentService(scoper Scoper, repo repositories.StudentRepository, store ObjectStore) StudentService {
	return &studentService{scoper: scoper, repo: repo, store: store}
}

func validateStudent(s *models.Student) error {
	s.FullName = strings.TrimSpace(s.FullName)
	s.WhatsApp = strings.TrimSpace(s.WhatsApp)
	if err := common.ValidateRequiredString(s.FullName, "nome_completo"); err != nil {
		return validationError("nome_completo", err)
	}
	if err := common.ValidateRequiredString(s.WhatsApp, "whatsapp"); err != nil {
		return validationError("whatsapp", err)
	}
	if s.BirthDate.IsZero() {
		return &ValidationError{Field: "data_nascimento", Message: "data_nascimento is required"}
	}
	if err := common.ValidatePositiveInteger(s.DueDay, "dia_vencimento", 31); err != nil {
		return validationError("dia_vencimento", err)
	}
	if s.TaxID != nil && strings.TrimSpace(*s.TaxID) == "" {
		s.TaxID = nil
	}
	return nil
}

// studentError maps repository errors onto service errors.
func studentError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrStudentNotFound
	}
	var uniqueErr *repositories.UniqueViolationError
	if errors.As(err, &uniqueErr) {
		return &ConflictError{Field: "cpf", Message: "tax id already registered for another student"}
	}
	return err
}

func (s *studentService) Create(ctx context.Context, namespace string, student *models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}
	return studentError(s.scoper.WithScope(ctx, &namespace, func(scope *tenancy.Scope) error {
		return s.repo.Create(ctx, scope, student)
	}))
}

func (s *studentService) Get(ctx context.Context, namespace string, id int64) (*models.Student, error) {
	var student *models.Student
	err := s.scoper.WithScope(ctx, &namespace, func(scope *tenancy.Scope) error {
		var err error
		student, err = s.repo.GetByID(ctx, scope, id)
		return err
	})
	if err != nil {
		return nil, studentError(err)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, namespace string, limit, offset int) ([]*models.Student, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, validationError("offset", err)
	}

	var students []*models.Student
	err = s.scoper.WithScope(ctx, &namespace, func(scope *tenancy.Scope) error {
		var err error
		students, err = s.repo.List(ctx, scope, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return students, nil
}

// Update reads the record, applies the fields present in patch and writes it
// back inside one scope.
func (s *studentService) Update(ctx context.Context, namespace string, id int64, patch *models.StudentPatch) (*models.Student, error) {
	var student *models.Student
	err := s.scoper.WithScope(ctx, &namespace, func(scope *tenancy.Scope) error {
		current, err := s.repo.GetByID(ctx, scope, id)
		if err != nil {
			return err
		}
		patch.Apply(current)
		if err := validateStudent(current); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, scope, current); err != nil {
			return err
		}
		student = current
		return nil
	})
	if err != nil {
		return nil, studentError(err)
	}
	return student, nil
}

func (s *studentService) Delete(ctx context.Context, namespace string, id int64) error {
	var photo *string
	err := s.scoper.WithScope(ctx, &namespace, func(scope *tenancy.Scope) error {
		student, err := s.repo.GetByID(ctx, scope, id)
		if err != nil {
			return err
		}
		photo = student.PhotoURL
		return s.repo.Delete(ctx, scope, id)
	})
	if err != nil {
		return studentError(err)
	}
	s.removePhoto(ctx, photo)
	return nil
}

// UploadPhoto stores the image and points the student at it. The upload runs
// between two scopes so no connection is held during the transfer.
func (s *studentService) UploadPhoto(ctx context.Context, namespace string, id int64, reader io.Reader, size int64, contentType, filename string) (*models.Student, error) {
	current, err := s.Get(ctx, namespace, id)
	if err != nil {
		return nil, err
	}
	previous := current.PhotoURL

	objectName := fmt.Sprintf("%s/students/%d/%s%s", namespace, id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.store.Upload(ctx, objectName, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	student, err := s.Update(ctx, namespace, id, &models.StudentPatch{PhotoURL: &objectName})
	if err != nil {
		s.removePhoto(ctx, &objectName)
		return nil, err
	}
	s.removePhoto(ctx, previous)
	return student, nil
}

func (s *studentService) PhotoURL(ctx context.Context, namespace string, id int64) (string, error) {
	student, err := s.Get(ctx, namespace, id)
	if err != nil {
		return "", err
	}
	if student.PhotoURL == nil || *student.PhotoURL == "" {
		return "", ErrPhotoNotFound
	}
	return s.store.PresignedURL(ctx, *student.PhotoURL, photoURLExpiry)
}

func (s *studentService) removePhoto(ctx context.Context, objectName *string) {
	if objectName == nil || *objectName == "" {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), *objectName); err != nil {
		logger.FromContext(ctx).Warn("failed to delete student photo", zap.String("object", *objectName), zap.Error(err))
	}
}
