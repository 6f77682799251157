package repositories

import (
	"context"
	"fmt"
	"time"

	"gymmanager/internal/models"

	"github.com/google/uuid"
)

// Constraint names from the shared-namespace migration.
const (
	ConstraintTenantName       = "tenants_name_key"
	ConstraintTenantSchemaName = "tenants_schema_name_key"
	ConstraintTenantCustomer   = "tenants_stripe_customer_id_key"
)

type TenantRepository interface {
	WithTx(tx DBTX) TenantRepository
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByNamespace(ctx context.Context, namespace string) (*models.Tenant, error)
	GetByCustomerID(ctx context.Context, customerID string) (*models.Tenant, error)
	NamespaceExists(ctx context.Context, namespace string) (bool, error)
	ApplyCheckoutCompleted(ctx context.Context, customerID, subscriptionID string, eventAt time.Time) (bool, error)
	ApplySubscriptionStatus(ctx context.Context, customerID string, status models.TenantStatus, eventAt time.Time) (bool, error)
	CountExpiredTrials(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) WithTx(tx DBTX) TenantRepository {
	return &tenantRepo{db: tx}
}

const tenantColumns = `id, name, schema_name, status, created_at, trial_ends_at, stripe_customer_id, stripe_subscription_id, billing_event_at, updated_at`

func scanTenant(row interface{ Scan(dest ...any) error }) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.SchemaName, &tenant.Status, &tenant.CreatedAt, &tenant.TrialEndsAt,
		&tenant.StripeCustomerID, &tenant.StripeSubscriptionID, &tenant.BillingEventAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return tenant, nil
}

// Create inserts the tenant and fills in the timestamps assigned by the database.
func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO public.tenants (id, name, schema_name, status, stripe_customer_id, created_at, trial_ends_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW() + INTERVAL '30 days', NOW())
		RETURNING created_at, trial_ends_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, tenant.ID, tenant.Name, tenant.SchemaName, tenant.Status, tenant.StripeCustomerID).
		Scan(&tenant.CreatedAt, &tenant.TrialEndsAt, &tenant.UpdatedAt)
	return translateError(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants WHERE id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetByNamespace(ctx context.Context, namespace string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants WHERE schema_name = $1`
	return scanTenant(r.db.QueryRow(ctx, query, namespace))
}

func (r *tenantRepo) GetByCustomerID(ctx context.Context, customerID string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants WHERE stripe_customer_id = $1`
	return scanTenant(r.db.QueryRow(ctx, query, customerID))
}

func (r *tenantRepo) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM public.tenants WHERE schema_name = $1)`
	if err := r.db.QueryRow(ctx, query, namespace).Scan(&exists); err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

// ApplyCheckoutCompleted records the subscription and activates the tenant.
// It reports false when no tenant matched or the notification is older than
// the last one applied.
func (r *tenantRepo) ApplyCheckoutCompleted(ctx context.Context, customerID, subscriptionID string, eventAt time.Time) (bool, error) {
	query := `
		UPDATE public.tenants
		SET stripe_subscription_id = $2, status = $3, billing_event_at = $4, updated_at = NOW()
		WHERE stripe_customer_id = $1 AND (billing_event_at IS NULL OR billing_event_at <= $4)
	`
	tag, err := r.db.Exec(ctx, query, customerID, subscriptionID, models.TenantStatusActive, eventAt)
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// ApplySubscriptionStatus sets the tenant status under the same staleness
// guard as ApplyCheckoutCompleted.
func (r *tenantRepo) ApplySubscriptionStatus(ctx context.Context, customerID string, status models.TenantStatus, eventAt time.Time) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	query := `
		UPDATE public.tenants
		SET status = $2, billing_event_at = $3, updated_at = NOW()
		WHERE stripe_customer_id = $1 AND (billing_event_at IS NULL OR billing_event_at <= $3)
	`
	tag, err := r.db.Exec(ctx, query, customerID, status, eventAt)
	if err != nil {
		return false, translateError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountExpiredTrials counts trial tenants past their trial window that the
// billing processor has never reported on. It matches Tenant.TrialExpired.
func (r *tenantRepo) CountExpiredTrials(ctx context.Context, now time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM public.tenants
		WHERE status = $1 AND trial_ends_at < $2
			AND stripe_subscription_id IS NULL AND billing_event_at IS NULL
	`
	var n int64
	if err := r.db.QueryRow(ctx, query, models.TenantStatusTrial, now).Scan(&n); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM public.tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
