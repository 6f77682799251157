package main

import (
	"net/http"
	"time"

	"gymmanager/internal/common"
	"gymmanager/internal/config"
	"gymmanager/internal/handlers"
	"gymmanager/internal/metrics"
	"gymmanager/internal/middleware"

	_ "gymmanager/docs"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type routeHandlers struct {
	auth     *handlers.AuthHandlers
	billing  *handlers.BillingHandlers
	students *handlers.StudentHandlers
	tenants  *handlers.TenantHandlers
	health   *handlers.HealthHandlers
}

type serverDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	auth     middleware.TokenValidator
	handlers routeHandlers
}

func authRateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	return echoMiddleware.RateLimiterWithConfig(echoMiddleware.RateLimiterConfig{
		Store: echoMiddleware.NewRateLimiterMemoryStoreWithConfig(echoMiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit.AuthRPS),
			Burst:     cfg.RateLimit.AuthBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many requests", nil))
		},
	})
}

func newServer(deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(middleware.Version(version))
	e.Use(middleware.RequestID(deps.logger))
	e.Use(middleware.Metrics(deps.metrics))
	e.Use(middleware.AccessLog())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	h := deps.handlers

	e.GET("/health", h.health.HealthCheck)
	e.GET("/health/ready", h.health.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.metrics.Registry, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/static", deps.cfg.Server.StaticDir)

	api := e.Group("/api")

	limited := authRateLimiter(deps.cfg)
	api.POST("/register", h.auth.Register, limited)
	api.POST("/login/token", h.auth.Login, limited)
	api.POST("/billing/stripe-webhook", h.billing.StripeWebhook)

	protected := api.Group("", middleware.JWT(deps.auth))
	protected.GET("/users/me", h.auth.Me)
	protected.POST("/billing/create-checkout-session", h.billing.CreateCheckoutSession)

	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.GET("/tenants", h.tenants.ListTenants)

	students := protected.Group("/alunos", middleware.TenantScope())
	students.POST("", h.students.CreateStudent)
	students.GET("", h.students.ListStudents)
	students.GET("/:id", h.students.GetStudent)
	students.PUT("/:id", h.students.UpdateStudent)
	students.PATCH("/:id", h.students.UpdateStudent)
	students.DELETE("/:id", h.students.DeleteStudent)
	students.POST("/:id/photo", h.students.UploadPhoto)
	students.GET("/:id/photo", h.students.GetPhoto)

	return e
}
