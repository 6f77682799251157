package handlers

import (
	"errors"
	"net/http"

	"gymmanager/internal/common"
	"gymmanager/internal/logger"
	"gymmanager/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandlers handles registration, login and the current-user endpoint
type AuthHandlers struct {
	provisioningService services.ProvisioningService
	authService         services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(provisioningService services.ProvisioningService, authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{
		provisioningService: provisioningService,
		authService:         authService,
	}
}

// RegisterResponse is returned when an academy was provisioned
type RegisterResponse struct {
	Message   string `json:"message" example:"Academy registered successfully"`
	Namespace string `json:"schema_name" example:"acme_gym"`
}

// Register provisions a new academy with its owner account
// @Summary Register an academy
// @Description Creates the tenant, its owner user, its billing customer and its isolated namespace
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body services.RegistrationRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 500 {object} common.ErrorResponse
// @Router /api/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	outcome := h.provisioningService.Register(c.Request().Context(), &req)
	if outcome.Succeeded() {
		return c.JSON(http.StatusCreated, RegisterResponse{
			Message:   "Academy registered successfully",
			Namespace: outcome.Tenant.SchemaName,
		})
	}

	var validationErr *services.ValidationError
	if errors.As(outcome.Err, &validationErr) {
		return common.SendValidationError(c, validationErr.Field, validationErr.Message)
	}
	var conflictErr *services.ConflictError
	if errors.As(outcome.Err, &conflictErr) {
		return common.SendConflictError(c, conflictErr.Field, conflictErr.Message)
	}

	details := map[string]string{"step": outcome.FailedStep, "status": string(outcome.Status)}
	return c.JSON(http.StatusInternalServerError,
		common.CreateErrorResponse("SERVER_ERROR", "Registration failed", details))
}

// Login exchanges form credentials for a bearer token
// @Summary Login
// @Description OAuth2 password-style login; username is the email
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} common.ErrorResponse
// @Router /api/login/token [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return common.SendClientError(c, "username and password are required")
	}

	token, err := h.authService.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return common.SendClientError(c, "Invalid credentials")
		}
		logger.FromContext(c.Request().Context()).Error("login failed", zap.Error(err))
		return common.SendServerError(c, "Failed to authenticate")
	}

	return c.JSON(http.StatusOK, token)
}

// Me returns the caller with the public fields of their tenant
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} common.ErrorResponse
// @Router /api/users/me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	profile, err := h.authService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return common.SendUnauthorizedError(c)
		}
		logger.FromContext(ctx).Error("failed to load profile", zap.Error(err))
		return common.SendServerError(c, "Failed to load user")
	}
	return c.JSON(http.StatusOK, profile)
}
