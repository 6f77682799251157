package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymmanager/internal/billing"
	"gymmanager/internal/caching"
	"gymmanager/internal/config"
	"gymmanager/internal/handlers"
	"gymmanager/internal/jobs/background"
	"gymmanager/internal/logger"
	"gymmanager/internal/metrics"
	"gymmanager/internal/repositories"
	"gymmanager/internal/services"
	"gymmanager/internal/tenancy"
	"gymmanager/pkg/database"

	"github.com/go-extras/cobraflags"
	"github.com/labstack/gommon/random"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	portFlag        = "port"
	shutdownTimeout = 10 * time.Second
)

var serveFlags = map[string]cobraflags.Flag{
	configFlag: newConfigFlag(),
	portFlag: &cobraflags.StringFlag{
		Name:  portFlag,
		Value: "",
		Usage: "HTTP port; overrides PORT",
	},
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE:  runServe,
	}
	cobraflags.RegisterMap(cmd, serveFlags)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	if port := serveFlags[portFlag].GetString(); port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Environment, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = random.String(32)
		log.Warn("JWT_SECRET not set; using a generated secret, tokens will not survive a restart")
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET not set; every billing notification will be rejected")
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	defer redisClient.Close()
	cache := caching.NewRedisCacheService(redisClient)

	photoStore, err := services.NewMinioStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.Bucket)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := photoStore.EnsureBucketExists(ctx); err != nil {
		log.Warn("object storage unavailable; photo endpoints will fail", zap.Error(err))
	}

	m := metrics.New()
	billingClient := billing.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret, log)

	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	provisioningRepo := repositories.NewProvisioningRepo(pool, tenantRepo, userRepo)
	studentRepo := repositories.NewStudentRepo()

	router := tenancy.NewRouter(pool, caching.NewCachedNamespaceLookup(tenantRepo, cache, log), log)

	authService := services.NewAuthService(userRepo, tenantRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	tenantService := services.NewTenantService(tenantRepo, m)
	provisioningService := services.NewProvisioningService(tenantRepo, userRepo, provisioningRepo, billingClient, m)
	reconcilerService := services.NewReconcilerService(tenantRepo, billingClient, cache, m)
	checkoutService := services.NewCheckoutService(tenantRepo, billingClient, services.CheckoutConfig{
		PriceID:    cfg.Stripe.PriceID,
		SuccessURL: cfg.CheckoutSuccessURL(),
		CancelURL:  cfg.CheckoutCancelURL(),
	})
	studentService := services.NewStudentService(router, studentRepo, photoStore)

	scheduler, err := background.NewJobScheduler(tenantService, cfg.Jobs.TrialSweepInterval, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	e := newServer(serverDeps{
		cfg:     cfg,
		logger:  log,
		metrics: m,
		auth:    authService,
		handlers: routeHandlers{
			auth:     handlers.NewAuthHandlers(provisioningService, authService),
			billing:  handlers.NewBillingHandlers(checkoutService, reconcilerService),
			students: handlers.NewStudentHandlers(studentService),
			tenants:  handlers.NewTenantHandlers(tenantService),
			health: handlers.NewHealthHandlers(version, map[string]handlers.Pinger{
				"database": pool,
				"redis":    cache,
			}),
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("gymmanager server starting", zap.String("version", version), zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
