package middleware

import (
	"gymmanager/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireAdmin lets only platform administrators through. It must run after
// JWT.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if !claims.Admin {
				return common.SendForbiddenError(c, "Platform administrator access required")
			}
			return next(c)
		}
	}
}
