package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	TaxID        string     `json:"cpf" db:"cpf"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	IsSaaSAdmin  bool       `json:"is_saas_admin" db:"is_saas_admin"`
	TenantID     *uuid.UUID `json:"tenant_id" db:"tenant_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// UserProfile is a user joined with the public fields of its tenant.
type UserProfile struct {
	User
	Tenant *TenantSummary `json:"tenant"`
}
