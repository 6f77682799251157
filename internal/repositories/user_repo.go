package repositories

import (
	"context"
	"time"

	"gymmanager/internal/models"

	"github.com/google/uuid"
)

const (
	ConstraintUserEmail = "users_email_key"
	ConstraintUserTaxID = "users_cpf_key"
)

type UserRepository interface {
	WithTx(tx DBTX) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TaxIDExists(ctx context.Context, taxID string) (bool, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx DBTX) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO public.users (id, email, cpf, password_hash, is_saas_admin, tenant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.TaxID, user.PasswordHash, user.IsSaaSAdmin, user.TenantID).
		Scan(&user.CreatedAt)
	return translateError(err)
}

const userColumns = `id, email, cpf, password_hash, is_saas_admin, tenant_id, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.TaxID, &user.PasswordHash, &user.IsSaaSAdmin, &user.TenantID, &user.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM public.users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM public.users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM public.users WHERE email = $1)`, email)
}

func (r *userRepo) TaxIDExists(ctx context.Context, taxID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM public.users WHERE cpf = $1)`, taxID)
}

func (r *userRepo) exists(ctx context.Context, query string, arg string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

// GetProfile loads the user with its tenant's public fields. Platform
// administrators have no tenant and get a nil Tenant.
func (r *userRepo) GetProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT u.id, u.email, u.cpf, u.is_saas_admin, u.tenant_id, u.created_at,
		       t.name, t.schema_name, t.status, t.trial_ends_at
		FROM public.users u
		LEFT JOIN public.tenants t ON t.id = u.tenant_id
		WHERE u.id = $1
	`
	profile := &models.UserProfile{}
	var (
		name, schemaName *string
		status           *models.TenantStatus
		trialEndsAt      *time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&profile.ID, &profile.Email, &profile.TaxID, &profile.IsSaaSAdmin,
		&profile.TenantID, &profile.CreatedAt, &name, &schemaName, &status, &trialEndsAt)
	if err != nil {
		return nil, translateError(err)
	}

	if name != nil {
		tenant := &models.Tenant{Name: *name, SchemaName: *schemaName, Status: *status, TrialEndsAt: *trialEndsAt}
		profile.Tenant = tenant.Summary()
	}
	return profile, nil
}
