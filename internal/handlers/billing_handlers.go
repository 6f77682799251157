package handlers

import (
	"errors"
	"io"
	"net/http"

	"gymmanager/internal/billing"
	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// maxWebhookBody caps the webhook payload the way Stripe's own examples do.
const maxWebhookBody = 65536

// BillingHandlers handles checkout and billing notifications
type BillingHandlers struct {
	checkoutService   services.CheckoutService
	reconcilerService services.ReconcilerService
}

// NewBillingHandlers creates a new billing handlers instance
func NewBillingHandlers(checkoutService services.CheckoutService, reconcilerService services.ReconcilerService) *BillingHandlers {
	return &BillingHandlers{
		checkoutService:   checkoutService,
		reconcilerService: reconcilerService,
	}
}

// WebhookResponse acknowledges a billing notification
type WebhookResponse struct {
	Status string `json:"status" example:"success"`
	Result string `json:"result" example:"applied"`
}

// CreateCheckoutSession starts a subscription checkout for the caller's tenant
// @Summary Create checkout session
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} billing.CheckoutSession
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Failure 500 {object} common.ErrorResponse
// @Router /api/billing/create-checkout-session [post]
func (h *BillingHandlers) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendClientError(c, "User is not linked to an academy")
	}

	session, err := h.checkoutService.CreateCheckoutSession(ctx, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBillingCustomerMissing):
			return common.SendClientError(c, "Academy has no billing customer")
		case errors.Is(err, services.ErrTenantNotFound):
			return common.SendNotFoundError(c, "Tenant")
		}
		logger.FromContext(ctx).Error("failed to create checkout session", zap.Error(err))
		return common.SendServerError(c, "Failed to create checkout session")
	}
	return c.JSON(http.StatusOK, session)
}

// StripeWebhook applies a signed billing notification
// @Summary Billing webhook
// @Description Verified with the Stripe-Signature header. Unknown tenants and event types are acknowledged.
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 500 {object} common.ErrorResponse
// @Router /api/billing/stripe-webhook [post]
func (h *BillingHandlers) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return common.SendClientError(c, "Failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return common.SendClientError(c, "Missing Stripe-Signature header")
	}

	result, err := h.reconcilerService.HandleWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) || errors.Is(err, billing.ErrInvalidPayload) {
			logger.FromContext(ctx).Warn("rejected billing notification", zap.Error(err))
			return common.SendClientError(c, "Invalid signature or payload")
		}
		logger.FromContext(ctx).Error("failed to reconcile billing notification", zap.Error(err))
		return common.SendServerError(c, "Failed to process notification")
	}

	return c.JSON(http.StatusOK, WebhookResponse{Status: "success", Result: string(result)})
}
