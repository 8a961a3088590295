package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-identity/internal/api/http"
	"github.com/spec-kit/storefront-identity/internal/api/http/handlers"
	"github.com/spec-kit/storefront-identity/internal/auth"
	"github.com/spec-kit/storefront-identity/internal/config"
	"github.com/spec-kit/storefront-identity/internal/events"
	"github.com/spec-kit/storefront-identity/internal/observability"
	"github.com/spec-kit/storefront-identity/internal/persistence"
	"github.com/spec-kit/storefront-identity/internal/repository"
	"github.com/spec-kit/storefront-identity/internal/repository/memory"
	"github.com/spec-kit/storefront-identity/internal/service"
	"github.com/spec-kit/storefront-identity/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	broker, err := persistence.NewBroker(cfg.Events, logger)
	if err != nil {
		logger.Fatal("failed to connect amqp broker", zap.Error(err))
	}
	defer broker.Close()

	var (
		customerRepo repository.CustomerRepository
		adminRepo    repository.AdminRepository
	)
	if pg.Enabled() {
		customerRepo = repository.NewCustomerRepository(pg.Pool)
		adminRepo = repository.NewAdminRepository(pg.Pool)
	} else {
		customerRepo = memory.NewCustomerRepository()
		adminRepo = memory.NewAdminRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var forward events.EventHandler
	if broker != nil {
		forward = events.NewAMQPPublisher(broker.Channel, cfg.Events.Exchange).Handle
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, forward, logger))

	lifecycleService := service.NewLifecycleService(*cfg, service.LifecycleDependencies{
		CustomerRepo: customerRepo,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	adminService := service.NewAdminService(*cfg, service.AdminDependencies{
		AdminRepo:  adminRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	revoker := auth.NewRevocationStore(redis.Client)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo: customerRepo,
		AdminRepo:    adminRepo,
		Lifecycle:    lifecycleService,
		Revoker:      revoker,
		Metrics:      metrics,
		Logger:       logger,
	})

	if err := adminService.EnsureOwner(ctx, cfg.Auth.OwnerName, cfg.Auth.OwnerBootstrapPassword); err != nil {
		logger.Fatal("failed to bootstrap owner admin", zap.Error(err))
	}

	if cfg.Worker.ReconcileEnabled {
		go worker.NewReconcileWorker(lifecycleService, cfg.Worker.ReconcileInterval, logger).Run(ctx)
	}

	authMiddleware := auth.NewAuthMiddleware(auth.MiddlewareDependencies{
		Tokens:    authService.TokenManager(),
		Revoker:   revoker,
		Customers: customerRepo,
		Admins:    adminRepo,
		Gate:      lifecycleService,
		Roles:     adminService.Roles(),
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, Immutable: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	readiness := map[string]handlers.Pinger{"redis": redis}
	if pg.Enabled() {
		readiness["postgres"] = pg
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Users:          handlers.NewUsersHandler(authService),
		CustomerStatus: handlers.NewCustomerStatusHandler(lifecycleService),
		Admins:         handlers.NewAdminHandler(authService, adminService),
		AuthMiddleware: authMiddleware,
		Gate:           lifecycleService,
		LoginLimiter:   httptransport.NewRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst, httptransport.WithIdleTTL(cfg.RateLimit.IdleTTL)),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
