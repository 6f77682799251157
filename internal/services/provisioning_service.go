package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gymmanager/internal/billing"
	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/metrics"
	"gymmanager/internal/models"
	"gymmanager/internal/repositories"
	"gymmanager/internal/tenancy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProvisionStatus is the terminal state of a registration.
type ProvisionStatus string

const (
	// ProvisionCompleted: every effect is in place.
	ProvisionCompleted ProvisionStatus = "completed"
	// ProvisionRejected: input refused before any side effect.
	ProvisionRejected ProvisionStatus = "rejected"
	// ProvisionFailed: a step failed with nothing to undo.
	ProvisionFailed ProvisionStatus = "failed"
	// ProvisionCompensated: a step failed and the billing customer was deleted.
	ProvisionCompensated ProvisionStatus = "compensated"
	// ProvisionCompensationFailed: the billing customer is orphaned.
	ProvisionCompensationFailed ProvisionStatus = "compensation_failed"
)

const (
	StepValidate              = "validate"
	StepCheckUniqueness       = "check_uniqueness"
	StepCreateBillingCustomer = "create_billing_customer"
	StepPersistTenant         = "persist_tenant"
)

type RegistrationRequest struct {
	TenantName           string `json:"tenant_name"`
	OwnerEmail           string `json:"owner_email"`
	OwnerTaxID           string `json:"owner_cpf"`
	OwnerPassword        string `json:"owner_password"`
	OwnerPasswordConfirm string `json:"owner_password_confirm"`
}

// ProvisionOutcome reports how far a registration got and what was undone.
type ProvisionOutcome struct {
	Status          ProvisionStatus
	FailedStep      string
	Tenant          *models.Tenant
	User            *models.User
	CustomerID      string
	Err             error
	CompensationErr error
}

func (o *ProvisionOutcome) Succeeded() bool {
	return o.Status == ProvisionCompleted
}

type ProvisioningService interface {
	Register(ctx context.Context, req *RegistrationRequest) *ProvisionOutcome
}

type provisioningService struct {
	tenantRepo repositories.TenantRepository
	userRepo   repositories.UserRepository
	store      repositories.ProvisioningRepository
	billing    billing.Client
	metrics    *metrics.Metrics
}

func NewProvisioningService(
	tenantRepo repositories.TenantRepository,
	userRepo repositories.UserRepository,
	store repositories.ProvisioningRepository,
	billingClient billing.Client,
	m *metrics.Metrics,
) ProvisioningService {
	return &provisioningService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		store:      store,
		billing:    billingClient,
		metrics:    m,
	}
}

// provisionState is what the steps of one registration hand to each other.
type provisionState struct {
	req          *RegistrationRequest
	name         string
	email        string
	taxID        string
	namespace    string
	passwordHash string
	customerID   string
	tenant       *models.Tenant
	owner        *models.User
}

type sagaStep struct {
	name       string
	run        func(ctx context.Context, st *provisionState) error
	compensate func(ctx context.Context, st *provisionState) error
}

func (s *provisioningService) steps() []sagaStep {
	return []sagaStep{
		{name: StepValidate, run: s.validate},
		{name: StepCheckUniqueness, run: s.checkUniqueness},
		{name: StepCreateBillingCustomer, run: s.createBillingCustomer, compensate: s.deleteBillingCustomer},
		{name: StepPersistTenant, run: s.persistTenant},
	}
}

// Register runs the registration steps in order. When a step fails, the
// compensations of the steps already completed run in reverse order, once.
func (s *provisioningService) Register(ctx context.Context, req *RegistrationRequest) *ProvisionOutcome {
	st := &provisionState{req: req}
	var completed []sagaStep

	for _, step := range s.steps() {
		if err := step.run(ctx, st); err != nil {
			outcome := s.unwind(ctx, st, step.name, err, completed)
			s.record(ctx, st, outcome)
			return outcome
		}
		completed = append(completed, step)
	}

	outcome := &ProvisionOutcome{
		Status:     ProvisionCompleted,
		Tenant:     st.tenant,
		User:       st.owner,
		CustomerID: st.customerID,
	}
	s.record(ctx, st, outcome)
	return outcome
}

func (s *provisioningService) unwind(ctx context.Context, st *provisionState, failedStep string, err error, completed []sagaStep) *ProvisionOutcome {
	outcome := &ProvisionOutcome{FailedStep: failedStep, CustomerID: st.customerID, Err: err}

	// Compensations must run even when the caller has gone away.
	compCtx := context.WithoutCancel(ctx)
	compensated := false
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		compensated = true
		if compErr := step.compensate(compCtx, st); compErr != nil {
			outcome.CompensationErr = errors.Join(outcome.CompensationErr, fmt.Errorf("%s: %w", step.name, compErr))
		}
	}

	var validationErr *ValidationError
	var conflictErr *ConflictError
	rejected := errors.As(err, &validationErr) || errors.As(err, &conflictErr)

	switch {
	case outcome.CompensationErr != nil:
		outcome.Status = ProvisionCompensationFailed
	case compensated:
		outcome.Status = ProvisionCompensated
	case rejected:
		outcome.Status = ProvisionRejected
	default:
		outcome.Status = ProvisionFailed
	}
	return outcome
}

func (s *provisioningService) record(ctx context.Context, st *provisionState, outcome *ProvisionOutcome) {
	s.metrics.ProvisioningOutcomes.WithLabelValues(string(outcome.Status)).Inc()

	log := logger.FromContext(ctx).With(
		zap.String("namespace", st.namespace),
		zap.String("status", string(outcome.Status)),
	)
	switch outcome.Status {
	case ProvisionCompleted:
		log.Info("tenant provisioned", zap.String("tenant_id", outcome.Tenant.ID.String()))
	case ProvisionRejected:
		log.Info("registration rejected", zap.String("step", outcome.FailedStep), zap.Error(outcome.Err))
	case ProvisionCompensationFailed:
		s.metrics.BillingCompensationFailures.Inc()
		log.Error("manual reconciliation required",
			zap.String("step", outcome.FailedStep),
			zap.String("customer_id", outcome.CustomerID),
			zap.Error(outcome.Err),
			zap.NamedError("compensation_error", outcome.CompensationErr))
	default:
		log.Error("registration failed", zap.String("step", outcome.FailedStep),
			zap.String("customer_id", outcome.CustomerID), zap.Error(outcome.Err))
	}
}

func (s *provisioningService) validate(_ context.Context, st *provisionState) error {
	req := st.req
	st.name = strings.TrimSpace(req.TenantName)
	st.email = strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	st.taxID = strings.TrimSpace(req.OwnerTaxID)

	if err := common.ValidateStringLength(st.name, "tenant_name", 3, 50); err != nil {
		return validationError("tenant_name", err)
	}
	if err := common.ValidateEmail(st.email, "owner_email"); err != nil {
		return validationError("owner_email", err)
	}
	if err := common.ValidateRequiredString(st.taxID, "owner_cpf"); err != nil {
		return validationError("owner_cpf", err)
	}
	if len(req.OwnerPassword) < minPasswordLength {
		return &ValidationError{Field: "owner_password", Message: fmt.Sprintf("owner_password must be at least %d characters", minPasswordLength)}
	}
	if req.OwnerPassword != req.OwnerPasswordConfirm {
		return &ValidationError{Field: "owner_password_confirm", Message: "passwords do not match"}
	}

	namespace, err := tenancy.DeriveNamespace(st.name)
	if err != nil {
		return &ValidationError{Field: "tenant_name", Message: ErrUnusableTenantName.Error()}
	}
	st.namespace = namespace

	hash, err := HashPassword(req.OwnerPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	st.passwordHash = hash
	return nil
}

func (s *provisioningService) checkUniqueness(ctx context.Context, st *provisionState) error {
	taken, err := s.userRepo.EmailExists(ctx, st.email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return &ConflictError{Field: "owner_email", Message: "email already registered"}
	}

	taken, err = s.userRepo.TaxIDExists(ctx, st.taxID)
	if err != nil {
		return fmt.Errorf("failed to check tax id: %w", err)
	}
	if taken {
		return &ConflictError{Field: "owner_cpf", Message: "tax id already registered"}
	}

	taken, err = s.tenantRepo.NamespaceExists(ctx, st.namespace)
	if err != nil {
		return fmt.Errorf("failed to check namespace: %w", err)
	}
	if taken {
		return &ConflictError{Field: "tenant_name", Message: "academy name already in use"}
	}
	return nil
}

// createBillingCustomer is not retried: after a timeout the customer may
// already exist and a second attempt would duplicate it.
func (s *provisioningService) createBillingCustomer(ctx context.Context, st *provisionState) error {
	customerID, err := s.billing.CreateCustomer(ctx, billing.CustomerRequest{
		Email: st.email,
		Name:  st.name,
		TaxID: st.taxID,
	})
	if err != nil {
		if errors.Is(err, billing.ErrAmbiguous) {
			logger.FromContext(ctx).Error("manual reconciliation required",
				zap.String("step", StepCreateBillingCustomer),
				zap.String("email", st.email),
				zap.String("namespace", st.namespace),
				zap.Error(err))
		}
		return fmt.Errorf("failed to create billing customer: %w", err)
	}
	st.customerID = customerID
	return nil
}

func (s *provisioningService) deleteBillingCustomer(ctx context.Context, st *provisionState) error {
	return s.billing.DeleteCustomer(ctx, st.customerID)
}

func (s *provisioningService) persistTenant(ctx context.Context, st *provisionState) error {
	customerID := st.customerID
	tenant := &models.Tenant{
		ID:               uuid.New(),
		Name:             st.name,
		SchemaName:       st.namespace,
		Status:           models.TenantStatusTrial,
		StripeCustomerID: &customerID,
	}
	owner := &models.User{
		ID:           uuid.New(),
		Email:        st.email,
		TaxID:        st.taxID,
		PasswordHash: st.passwordHash,
	}

	if err := s.store.CreateTenantWithOwner(ctx, tenant, owner); err != nil {
		var uniqueErr *repositories.UniqueViolationError
		if errors.As(err, &uniqueErr) {
			if conflict := conflictForConstraint(uniqueErr.Constraint); conflict != nil {
				return conflict
			}
		}
		return err
	}

	st.tenant = tenant
	st.owner = owner
	return nil
}

// conflictForConstraint maps a registry constraint lost to a concurrent
// registration onto the field the client has to change.
func conflictForConstraint(constraint string) *ConflictError {
	switch constraint {
	case repositories.ConstraintTenantName, repositories.ConstraintTenantSchemaName:
		return &ConflictError{Field: "tenant_name", Message: "academy name already in use"}
	case repositories.ConstraintUserEmail:
		return &ConflictError{Field: "owner_email", Message: "email already registered"}
	case repositories.ConstraintUserTaxID:
		return &ConflictError{Field: "owner_cpf", Message: "tax id already registered"}
	}
	return nil
}
