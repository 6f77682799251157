package handlers

import (
	"net/http"

	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/models"
	"gymmanager/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandlers serves the platform-admin view of tenants
type TenantHandlers struct {
	tenantService services.TenantService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// ListTenantsRequest represents query parameters for listing tenants
type ListTenantsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListTenantsResponse is one page of tenants
type ListTenantsResponse struct {
	Tenants []*models.Tenant `json:"tenants"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ListTenants lists every academy (platform admins only)
// @Summary List tenants
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} ListTenantsResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/admin/tenants [get]
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	var req ListTenantsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	tenants, err := h.tenantService.List(c.Request().Context(), req.Limit, req.Offset)
	if err != nil {
		logger.FromContext(c.Request().Context()).Error("failed to list tenants", zap.Error(err))
		return common.SendServerError(c, "Failed to list tenants")
	}

	return c.JSON(http.StatusOK, ListTenantsResponse{
		Tenants: tenants,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
}
