package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spec-kit/request-analytics/internal/analytics"
	httptransport "github.com/spec-kit/request-analytics/internal/api/http"
	"github.com/spec-kit/request-analytics/internal/api/http/handlers"
	"github.com/spec-kit/request-analytics/internal/auth"
	"github.com/spec-kit/request-analytics/internal/config"
	"github.com/spec-kit/request-analytics/internal/events"
	"github.com/spec-kit/request-analytics/internal/observability"
	"github.com/spec-kit/request-analytics/internal/persistence"
	"github.com/spec-kit/request-analytics/internal/repository"
	"github.com/spec-kit/request-analytics/internal/service"
	"github.com/spec-kit/request-analytics/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var userRepo repository.UserRepository
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
	} else {
		userRepo = repository.NewMockUserRepository()
	}
	if redis.Enabled() {
		userRepo = repository.NewCachedUserRepository(userRepo, redis.Client, cfg.Redis.UserCacheTTL, logger)
	}

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry, logger)
	}

	tracker := analytics.NewTracker(cfg.Analytics.WindowMinutes, analytics.SystemClock{})

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	if !authService.LoginEnabled() {
		logger.Warn("AUTH_OPERATOR_PASSWORD not provided; analytics endpoints are unreachable")
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification.WebhookURL).RegisterHandlers()

	digest := worker.NewReportWorker(tracker, dispatcher, metrics, logger, cfg.Analytics.DigestSchedule)
	if err := digest.Start(ctx); err != nil {
		logger.Fatal("failed to start report digest", zap.Error(err))
	}
	defer digest.Stop()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, tracker, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Validation:     handlers.NewValidationHandler(),
		Users:          handlers.NewUsersHandler(service.NewUserService(userRepo)),
		Auth:           handlers.NewAuthHandler(authService),
		Analytics:      handlers.NewAnalyticsHandler(tracker, metrics, cfg.Analytics.ZThreshold),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		MetricsPath:    cfg.Metrics.Path,
	}
	if registry != nil {
		routes.Gatherer = registry
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
