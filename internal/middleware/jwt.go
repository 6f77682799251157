package middleware

import (
	"context"
	"net/http"

	"gymmanager/internal/common"
	"gymmanager/internal/models"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// claimsContextKey is where echo-jwt leaves the parsed claims.
const claimsContextKey = "claims"

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

// JWTConfig builds the echo-jwt configuration for bearer-protected routes.
// Parsing is delegated to the validator so signing method and issuer checks
// live in one place.
func JWTConfig(validator TokenValidator) echojwt.Config {
	return echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return validator.ValidateToken(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsContextKey).(*models.TokenClaims)
			if !ok {
				return
			}
			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, claims.UserID)
			if claims.TenantID != nil {
				ctx = context.WithValue(ctx, common.TenantIDKey, *claims.TenantID)
			}
			ctx = context.WithValue(ctx, common.AdminKey, claims.Admin)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid or expired token", nil))
		},
	}
}

// JWT protects a route group with bearer authentication.
func JWT(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(validator))
}

// ClaimsFromContext returns the claims of the authenticated caller.
func ClaimsFromContext(c echo.Context) (*models.TokenClaims, bool) {
	claims, ok := c.Get(claimsContextKey).(*models.TokenClaims)
	return claims, ok
}
