package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Access Token Response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenClaims is the payload of the bearer tokens this service issues. The
// subject is the user's email.
type TokenClaims struct {
	UserID    uuid.UUID  `json:"user_id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	Namespace string     `json:"namespace,omitempty"`
	Admin     bool       `json:"admin"`
	jwt.RegisteredClaims
}
