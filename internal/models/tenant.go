package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the subscription state of an academy.
type TenantStatus string

const (
	TenantStatusTrial    TenantStatus = "trial"
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
	TenantStatusPastDue  TenantStatus = "past_due"
	TenantStatusCanceled TenantStatus = "canceled"
)

// TrialPeriod is how long a freshly registered academy stays in trial.
const TrialPeriod = 30 * 24 * time.Hour

// Valid reports whether s is one of the known statuses.
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantStatusTrial, TenantStatusActive, TenantStatusInactive, TenantStatusPastDue, TenantStatusCanceled:
		return true
	}
	return false
}

// TenantStatusFromBilling maps a payment processor subscription status onto
// the tenant status enumeration. ok is false for statuses we do not know.
func TenantStatusFromBilling(status string) (TenantStatus, bool) {
	switch status {
	case "active":
		return TenantStatusActive, true
	case "trialing":
		return TenantStatusTrial, true
	case "past_due", "unpaid":
		return TenantStatusPastDue, true
	case "canceled", "incomplete_expired":
		return TenantStatusCanceled, true
	case "incomplete", "paused":
		return TenantStatusInactive, true
	}
	return "", false
}

type Tenant struct {
	ID                   uuid.UUID    `json:"id" db:"id"`
	Name                 string       `json:"name" db:"name"`
	SchemaName           string       `json:"schema_name" db:"schema_name"`
	Status               TenantStatus `json:"status" db:"status"`
	CreatedAt            time.Time    `json:"created_at" db:"created_at"`
	TrialEndsAt          time.Time    `json:"trial_ends_at" db:"trial_ends_at"`
	StripeCustomerID     *string      `json:"-" db:"stripe_customer_id"`
	StripeSubscriptionID *string      `json:"-" db:"stripe_subscription_id"`
	BillingEventAt       *time.Time   `json:"-" db:"billing_event_at"`
	UpdatedAt            time.Time    `json:"updated_at" db:"updated_at"`
}

// TenantSummary is the public view of a tenant returned alongside its users.
type TenantSummary struct {
	Name         string       `json:"name"`
	SchemaName   string       `json:"schema_name"`
	Status       TenantStatus `json:"status"`
	TrialEndsAt  string       `json:"trial_ends_at"`
	TrialExpired bool         `json:"trial_expired"`
}

// TrialExpired reports whether the local trial window has passed for a
// tenant the billing processor has never reported on. Status is left alone;
// only billing notifications and checkout move it.
func (t *Tenant) TrialExpired(now time.Time) bool {
	return t.Status == TenantStatusTrial &&
		t.StripeSubscriptionID == nil &&
		t.BillingEventAt == nil &&
		now.After(t.TrialEndsAt)
}

func (t *Tenant) Summary() *TenantSummary {
	return &TenantSummary{
		Name:         t.Name,
		SchemaName:   t.SchemaName,
		Status:       t.Status,
		TrialEndsAt:  t.TrialEndsAt.Format("2006-01-02"),
		TrialExpired: t.TrialExpired(time.Now()),
	}
}
