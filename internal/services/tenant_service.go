package services

import (
	"context"
	"errors"
	"time"

	"gymmanager/internal/metrics"
	"gymmanager/internal/models"
	"gymmanager/internal/repositories"

	"github.com/google/uuid"
)

type TenantService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	CountExpiredTrials(ctx context.Context, now time.Time) (int64, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	metrics    *metrics.Metrics
}

func NewTenantService(tenantRepo repositories.TenantRepository, m *metrics.Metrics) TenantService {
	return &tenantService{tenantRepo: tenantRepo, metrics: m}
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTenantNotFound
	}
	return tenant, err
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	tenants, err := s.tenantRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	return tenants, nil
}

// CountExpiredTrials reports how many tenants sit past their trial window
// without a subscription and publishes the figure as a gauge.
func (s *tenantService) CountExpiredTrials(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.tenantRepo.CountExpiredTrials(ctx, now)
	if err != nil {
		return 0, err
	}
	s.metrics.TrialsExpired.Set(float64(n))
	return n, nil
}
