package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymmanager/internal/billing"
	"gymmanager/internal/caching"
	"gymmanager/internal/logger"
	"gymmanager/internal/metrics"
	"gymmanager/internal/models"
	"gymmanager/internal/repositories"

	"go.uber.org/zap"
)

// ReconcileResult says what a billing notification did to the registry.
type ReconcileResult string

const (
	ReconcileApplied           ReconcileResult = "applied"
	ReconcileDuplicate         ReconcileResult = "duplicate"
	ReconcileStale             ReconcileResult = "stale"
	ReconcileNoMatch           ReconcileResult = "no_match"
	ReconcileIgnored           ReconcileResult = "ignored"
	ReconcileUnsupportedStatus ReconcileResult = "unsupported_status"
)

// ReconcilerService applies billing notifications to tenant subscription
// state. Every result is an acknowledgement; only signature failures and
// storage errors are returned as errors.
type ReconcilerService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (ReconcileResult, error)
	Reconcile(ctx context.Context, event *billing.Event) (ReconcileResult, error)
}

type reconcilerService struct {
	tenantRepo repositories.TenantRepository
	billing    billing.Client
	cache      caching.CacheService
	metrics    *metrics.Metrics
}

func NewReconcilerService(tenantRepo repositories.TenantRepository, billingClient billing.Client, cache caching.CacheService, m *metrics.Metrics) ReconcilerService {
	return &reconcilerService{
		tenantRepo: tenantRepo,
		billing:    billingClient,
		cache:      cache,
		metrics:    m,
	}
}

func (s *reconcilerService) HandleWebhook(ctx context.Context, payload []byte, signature string) (ReconcileResult, error) {
	event, err := s.billing.ParseWebhook(payload, signature)
	if err != nil {
		return "", err
	}
	return s.Reconcile(ctx, event)
}

func (s *reconcilerService) Reconcile(ctx context.Context, event *billing.Event) (ReconcileResult, error) {
	log := logger.FromContext(ctx).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("customer_id", event.CustomerID),
	)

	// The ledger only saves work; the guarded update below is itself
	// idempotent, so a cache failure just means processing again.
	processed, err := s.cache.IsEventProcessed(ctx, event.ID)
	if err != nil {
		log.Warn("processed-event lookup failed", zap.Error(err))
	}
	if processed {
		s.observe(event, ReconcileDuplicate)
		return ReconcileDuplicate, nil
	}

	result, err := s.apply(ctx, event, log)
	if err != nil {
		return "", err
	}

	if err := s.cache.MarkEventProcessed(ctx, event.ID, caching.ProcessedEventTTL); err != nil {
		log.Warn("failed to record processed event", zap.Error(err))
	}
	s.observe(event, result)
	log.Info("billing event reconciled", zap.String("result", string(result)))
	return result, nil
}

func (s *reconcilerService) apply(ctx context.Context, event *billing.Event, log *zap.Logger) (ReconcileResult, error) {
	eventAt := time.Unix(event.Created, 0).UTC()

	switch event.Type {
	case billing.EventCheckoutCompleted:
		if event.CustomerID == "" || event.SubscriptionID == "" {
			log.Warn("checkout notification without customer or subscription")
			return ReconcileIgnored, nil
		}
		applied, err := s.tenantRepo.ApplyCheckoutCompleted(ctx, event.CustomerID, event.SubscriptionID, eventAt)
		if err != nil {
			return "", fmt.Errorf("failed to apply checkout: %w", err)
		}
		return s.resultOf(ctx, applied, event.CustomerID)

	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		if event.CustomerID == "" {
			log.Warn("subscription notification without customer")
			return ReconcileIgnored, nil
		}
		status, ok := models.TenantStatusFromBilling(event.Status)
		if !ok {
			log.Warn("unsupported subscription status", zap.String("status", event.Status))
			return ReconcileUnsupportedStatus, nil
		}
		applied, err := s.tenantRepo.ApplySubscriptionStatus(ctx, event.CustomerID, status, eventAt)
		if err != nil {
			return "", fmt.Errorf("failed to apply subscription status: %w", err)
		}
		return s.resultOf(ctx, applied, event.CustomerID)
	}

	return ReconcileIgnored, nil
}

// resultOf tells a missing tenant apart from a notification older than the
// one already applied.
func (s *reconcilerService) resultOf(ctx context.Context, applied bool, customerID string) (ReconcileResult, error) {
	if applied {
		return ReconcileApplied, nil
	}
	if _, err := s.tenantRepo.GetByCustomerID(ctx, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ReconcileNoMatch, nil
		}
		return "", fmt.Errorf("failed to look up tenant: %w", err)
	}
	return ReconcileStale, nil
}

func (s *reconcilerService) observe(event *billing.Event, result ReconcileResult) {
	s.metrics.BillingEvents.WithLabelValues(event.Type, string(result)).Inc()
}
