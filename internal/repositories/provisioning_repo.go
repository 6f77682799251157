package repositories

import (
	"context"
	"fmt"

	"gymmanager/internal/models"
	"gymmanager/internal/tenancy"
)

// ProvisioningRepository writes everything a new academy needs locally in a
// single transaction.
type ProvisioningRepository interface {
	CreateTenantWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.User) error
}

type provisioningRepo struct {
	db      TxBeginner
	tenants TenantRepository
	users   UserRepository
}

func NewProvisioningRepo(db TxBeginner, tenants TenantRepository, users UserRepository) ProvisioningRepository {
	return &provisioningRepo{db: db, tenants: tenants, users: users}
}

// CreateTenantWithOwner inserts the tenant, its owner and the tenant
// namespace with its tables. Nothing is visible unless every step succeeds.
func (r *provisioningRepo) CreateTenantWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.User) (err error) {
	if err := tenancy.ValidateNamespace(tenant.SchemaName); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin provisioning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := r.tenants.WithTx(tx).Create(ctx, tenant); err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}

	owner.TenantID = &tenant.ID
	if err := r.users.WithTx(tx).Create(ctx, owner); err != nil {
		return fmt.Errorf("failed to insert owner: %w", err)
	}

	for _, stmt := range NamespaceDDL(tenant.SchemaName) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create namespace %s: %w", tenant.SchemaName, translateError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit provisioning transaction: %w", translateError(err))
	}
	committed = true
	return nil
}

// NamespaceDDL returns the statements that create a tenant namespace and its
// tables. Every statement is IF NOT EXISTS so a retried registration whose
// earlier transaction never committed does not trip over leftovers.
func NamespaceDDL(namespace string) []string {
	ns := tenancy.QuoteNamespace(namespace)
	return []string{
		`CREATE SCHEMA IF NOT EXISTS ` + ns,
		`CREATE TABLE IF NOT EXISTS ` + ns + `.students (
			id BIGSERIAL PRIMARY KEY,
			foto_url TEXT,
			nome_completo TEXT NOT NULL,
			data_nascimento DATE NOT NULL,
			cpf TEXT UNIQUE,
			whatsapp TEXT NOT NULL,
			nome_responsavel TEXT,
			contato_responsavel TEXT,
			dia_vencimento INTEGER NOT NULL CHECK (dia_vencimento BETWEEN 1 AND 31),
			receber_notificacoes BOOLEAN NOT NULL DEFAULT TRUE,
			modalidade TEXT,
			faixa TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS students_nome_completo_idx ON ` + ns + `.students (nome_completo)`,
	}
}
