package handlers

import (
	"context"
	"io"
	"time"

	"gymmanager/internal/billing"
	"gymmanager/internal/models"
	"gymmanager/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) Register(ctx context.Context, req *services.RegistrationRequest) *services.ProvisionOutcome {
	args := m.Called(ctx, req)
	return args.Get(0).(*services.ProvisionOutcome)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Authenticate(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) IssueToken(user *models.User, namespace string) (*models.TokenResponse, error) {
	args := m.Called(user, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(token string) (*models.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenClaims), args.Error(1)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateCheckoutSession(ctx context.Context, tenantID uuid.UUID) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CheckoutSession), args.Error(1)
}

type MockReconcilerService struct {
	mock.Mock
}

func (m *MockReconcilerService) HandleWebhook(ctx context.Context, payload []byte, signature string) (services.ReconcileResult, error) {
	args := m.Called(ctx, payload, signature)
	return args.Get(0).(services.ReconcileResult), args.Error(1)
}

func (m *MockReconcilerService) Reconcile(ctx context.Context, event *billing.Event) (services.ReconcileResult, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(services.ReconcileResult), args.Error(1)
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantService) CountExpiredTrials(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) Create(ctx context.Context, namespace string, student *models.Student) error {
	args := m.Called(ctx, namespace, student)
	return args.Error(0)
}

func (m *MockStudentService) Get(ctx context.Context, namespace string, id int64) (*models.Student, error) {
	args := m.Called(ctx, namespace, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) List(ctx context.Context, namespace string, limit, offset int) ([]*models.Student, error) {
	args := m.Called(ctx, namespace, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockStudentService) Update(ctx context.Context, namespace string, id int64, patch *models.StudentPatch) (*models.Student, error) {
	args := m.Called(ctx, namespace, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) Delete(ctx context.Context, namespace string, id int64) error {
	args := m.Called(ctx, namespace, id)
	return args.Error(0)
}

func (m *MockStudentService) UploadPhoto(ctx context.Context, namespace string, id int64, reader io.Reader, size int64, contentType, filename string) (*models.Student, error) {
	args := m.Called(ctx, namespace, id, reader, size, contentType, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentService) PhotoURL(ctx context.Context, namespace string, id int64) (string, error) {
	args := m.Called(ctx, namespace, id)
	return args.String(0), args.Error(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }
