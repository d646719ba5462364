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

	httptransport "github.com/spec-kit/edge-gateway/internal/api/http"
	"github.com/spec-kit/edge-gateway/internal/api/http/handlers"
	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/config"
	"github.com/spec-kit/edge-gateway/internal/events"
	"github.com/spec-kit/edge-gateway/internal/observability"
	"github.com/spec-kit/edge-gateway/internal/persistence"
	"github.com/spec-kit/edge-gateway/internal/proxy"
	"github.com/spec-kit/edge-gateway/internal/repository"
	"github.com/spec-kit/edge-gateway/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var userRepo repository.UserRepository
	if pool := pg.PoolHandle(); pool != nil {
		userRepo = repository.NewUserRepository(pool)
	} else {
		userRepo = repository.NewMemoryRepository()
		seeded, err := repository.SeedFromFile(ctx, userRepo, cfg.Directory.SeedFile, cfg.Auth.BcryptCost)
		if err != nil {
			logger.Fatal("failed to seed user directory", zap.Error(err))
		}
		if seeded > 0 {
			logger.Info("seeded user directory", zap.Int("users", seeded))
		}
	}

	revocation := auth.NewRevocationRegistry(cfg.Auth.RevocationWindow())
	revocation.StartSweeper(ctx, cfg.Auth.SweepInterval())

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL(), revocation)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	bus := events.NewBus(cfg.Bus.Capacity, cfg.Bus.QueueSize)
	defer bus.Close()

	audit := service.NewAuditService(bus, logger)
	audit.RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Revocation: revocation,
		Bus:        bus,
	})
	userService := service.NewUserService(userRepo, bus)

	dispatcher := proxy.NewDispatcher(cfg.Proxy.UpstreamTimeout(), logger)
	proxyRoutes := []proxy.Route{
		{
			Prefix:              "/api/proxy/users",
			Upstream:            cfg.Proxy.UsersServiceURL,
			RewritePrefix:       "/v1",
			RequiredPermissions: []auth.Permission{auth.PermProxyUsersRead},
		},
		{
			Prefix:              "/api/proxy/catalog",
			Upstream:            cfg.Proxy.CatalogServiceURL,
			RewritePrefix:       "/api",
			RequiredPermissions: []auth.Permission{auth.PermProxyCatalog},
		},
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		StreamRequestBody:     true,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Events:         handlers.NewEventsHandler(bus),
		AuthMiddleware: authMiddleware,
		Dispatcher:     dispatcher,
		ProxyRoutes:    proxyRoutes,
		RateLimit:      httptransport.RateLimiter(redis.ClientHandle(), cfg.RateLimit.RequestsPerMinute, logger),
	})

	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	// Stop accepting new connections and let in-flight proxied requests drain.
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
