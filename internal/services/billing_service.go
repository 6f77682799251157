package services

import (
	"context"
	"errors"
	"fmt"

	"gymmanager/internal/billing"
	"gymmanager/internal/repositories"

	"github.com/google/uuid"
)

// CheckoutService starts subscription checkouts for existing tenants.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, tenantID uuid.UUID) (*billing.CheckoutSession, error)
}

type CheckoutConfig struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type checkoutService struct {
	tenantRepo repositories.TenantRepository
	billing    billing.Client
	cfg        CheckoutConfig
}

func NewCheckoutService(tenantRepo repositories.TenantRepository, billingClient billing.Client, cfg CheckoutConfig) CheckoutService {
	return &checkoutService{tenantRepo: tenantRepo, billing: billingClient, cfg: cfg}
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, tenantID uuid.UUID) (*billing.CheckoutSession, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant.StripeCustomerID == nil || *tenant.StripeCustomerID == "" {
		return nil, ErrBillingCustomerMissing
	}

	session, err := s.billing.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		CustomerID: *tenant.StripeCustomerID,
		PriceID:    s.cfg.PriceID,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session, nil
}
