// Package testhelpers provisions live PostgreSQL fixtures for integration
// tests. Tests using it are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gymmanager/internal/models"
	"gymmanager/internal/repositories"
	"gymmanager/internal/tenancy"
	"gymmanager/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Tenants repositories.TenantRepository
	Users   repositories.UserRepository
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the shared schema.
// The pool is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, dsn, 4, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDB{
		Pool:    pool,
		Tenants: repositories.NewTenantRepo(pool),
		Users:   repositories.NewUserRepo(pool),
	}
}

// Router returns a schema router that consults the tenant registry directly.
func (db *TestDB) Router(t *testing.T) *tenancy.Router {
	t.Helper()
	return tenancy.NewRouter(db.Pool, db.Tenants, zaptest.NewLogger(t))
}

// SetupTestTenant provisions a tenant, its owner and its namespace the same
// way registration does. Everything is dropped when the test ends.
func SetupTestTenant(t *testing.T, db *TestDB, displayName string) *models.Tenant {
	t.Helper()

	suffix := uuid.NewString()[:8]
	namespace, err := tenancy.DeriveNamespace(displayName + " " + suffix)
	if err != nil {
		t.Fatalf("Failed to derive namespace: %v", err)
	}

	tenant := &models.Tenant{
		ID:         uuid.New(),
		Name:       displayName + " " + suffix,
		SchemaName: namespace,
		Status:     models.TenantStatusTrial,
	}
	owner := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("owner-%s@example.test", suffix),
		TaxID:        "tax-" + suffix,
		PasswordHash: "not-a-real-hash",
	}

	provisioning := repositories.NewProvisioningRepo(db.Pool, db.Tenants, db.Users)
	if err := provisioning.CreateTenantWithOwner(context.Background(), tenant, owner); err != nil {
		t.Fatalf("Failed to provision test tenant: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.Pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+tenancy.QuoteNamespace(namespace)+` CASCADE`)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM public.users WHERE tenant_id = $1`, tenant.ID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM public.tenants WHERE id = $1`, tenant.ID)
	})

	return tenant
}

// NewTestStudent returns a valid student with the given name.
func NewTestStudent(name string) *models.Student {
	return &models.Student{
		FullName:            name,
		BirthDate:           time.Date(2010, time.May, 4, 0, 0, 0, 0, time.UTC),
		WhatsApp:            "+55 11 99999-0000",
		DueDay:              10,
		ReceiveNotification: true,
	}
}
