package middleware

import (
	"context"

	"gymmanager/internal/common"
	"gymmanager/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// TenantHeader carries the namespace a tenant-scoped request operates in.
const TenantHeader = "X-Tenant-ID"

// TenantScope guards tenant-scoped routes. The header is required, must be a
// valid namespace, and must name the caller's own tenant unless the caller is
// a platform administrator. It must run after JWT.
func TenantScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			namespace := c.Request().Header.Get(TenantHeader)
			if namespace == "" {
				return common.SendValidationError(c, TenantHeader, "header is required")
			}
			if err := tenancy.ValidateNamespace(namespace); err != nil {
				return common.SendValidationError(c, TenantHeader, err.Error())
			}
			if !claims.Admin && claims.Namespace != namespace {
				return common.SendForbiddenError(c, "Tenant does not match the authenticated user")
			}

			ctx := context.WithValue(c.Request().Context(), common.NamespaceKey, namespace)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
