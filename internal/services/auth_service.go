package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymmanager/internal/models"
	"gymmanager/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	tokenIssuer       = "gymmanager"
)

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AuthService issues and checks bearer tokens.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*models.TokenResponse, error)
	IssueToken(user *models.User, namespace string) (*models.TokenResponse, error)
	ValidateToken(token string) (*models.TokenClaims, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	tenantRepo repositories.TenantRepository
	jwtSecret  []byte
	tokenTTL   time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, tenantRepo repositories.TenantRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
	}
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	namespace := ""
	if user.TenantID != nil {
		tenant, err := s.tenantRepo.GetByID(ctx, *user.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tenant: %w", err)
		}
		namespace = tenant.SchemaName
	}

	return s.IssueToken(user, namespace)
}

func (s *authService) IssueToken(user *models.User, namespace string) (*models.TokenResponse, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		Namespace: namespace,
		Admin:     user.IsSaaSAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
	}, nil
}

func (s *authService) ValidateToken(token string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return profile, nil
}
