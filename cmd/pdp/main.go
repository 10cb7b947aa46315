package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/hanko-field/pdp/internal/catalog"
	"github.com/hanko-field/pdp/internal/handlers"
	"github.com/hanko-field/pdp/internal/middleware"
	"github.com/hanko-field/pdp/internal/platform/config"
	pfirestore "github.com/hanko-field/pdp/internal/platform/firestore"
	"github.com/hanko-field/pdp/internal/platform/observability"
	"github.com/hanko-field/pdp/internal/services"
	"github.com/hanko-field/pdp/internal/session"
	"github.com/hanko-field/pdp/internal/storage"
	"github.com/hanko-field/pdp/internal/web"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.With(zap.String("environment", cfg.Environment))

	products, err := catalog.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Strings("products", products.Slugs()))

	backend, err := openStorage(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		logger.Fatal("failed to initialise storage", zap.Error(err), zap.String("backend", cfg.Storage.Backend))
	}
	defer backend.close(context.Background())

	sessions, err := session.NewManager(sessionConfig(cfg, logger))
	if err != nil {
		logger.Fatal("failed to initialise session manager", zap.Error(err))
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	prefix := cfg.Storage.KeyPrefix
	registry := services.NewPageRegistry(products,
		func(shopperID string) storage.Store {
			return storage.NewPrefixed(backend.store, prefix, shopperID)
		},
		services.WithRegistryLogger(logger.Named("pdp")),
		services.WithRegistryMeter(otel.Meter("github.com/hanko-field/pdp")),
		services.WithIdleTimeout(cfg.Page.IdleTimeout),
	)
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	go registry.Run(sweepCtx, cfg.Page.SweepInterval)

	healthOpts := []handlers.HealthOption{handlers.WithHealthVersion(buildVersion())}
	if backend.ready != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("storage", backend.ready))
	}
	health := handlers.NewHealthHandlers(healthOpts...)

	productHandlers := handlers.NewProductHandlers(registry, renderer,
		handlers.WithStreamHeartbeat(cfg.Page.StreamHeartbeat),
	)

	projectID := cfg.Observability.ProjectID
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(projectID),
			session.Middleware(sessions),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(projectID),
			middleware.HTMX(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithRequestTimeout(cfg.Server.WriteTimeout),
		handlers.WithPageRoutes(productHandlers.Routes),
		handlers.WithStreamRoutes(productHandlers.StreamRoutes),
	)

	// Write deadlines are applied per route; the event stream has none.
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("product page server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")
	sweepCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	// Every live page is unloaded, which saves its preferences.
	registry.Close(shutdownCtx)
}

type storageBackend struct {
	store storage.Store
	ready handlers.ReadinessCheck
	close func(context.Context)
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storageBackend, error) {
	noop := func(context.Context) {}
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Warn("using in-memory preference storage; preferences are lost on restart")
		return storageBackend{store: storage.NewMemory(), close: noop}, nil

	case config.BackendFile:
		store, err := storage.NewFile(cfg.FilePath)
		if err != nil {
			return storageBackend{}, err
		}
		return storageBackend{store: store, close: noop}, nil

	case config.BackendRedis:
		client, err := storage.ConnectRedis(ctx, storage.RedisOptions{
			Addr:           cfg.Redis.Addr,
			Username:       cfg.Redis.Username,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			ConnectRetries: cfg.Redis.ConnectRetries,
			RetryDelay:     cfg.Redis.RetryDelay,
		})
		if err != nil {
			return storageBackend{}, err
		}
		store := storage.NewRedis(client, cfg.Redis.TTL)
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		return storageBackend{
			store: store,
			ready: store.Healthcheck,
			close: func(context.Context) {
				if err := store.Close(); err != nil {
					logger.Warn("redis close failed", zap.Error(err))
				}
			},
		}, nil

	case config.BackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		store, err := storage.NewFirestore(provider, cfg.Firestore.Collection)
		if err != nil {
			return storageBackend{}, err
		}
		return storageBackend{
			store: store,
			ready: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
			close: func(ctx context.Context) {
				if err := provider.Close(ctx); err != nil && !errors.Is(err, pfirestore.ErrProviderClosed) {
					logger.Warn("firestore close failed", zap.Error(err))
				}
			},
		}, nil
	}
	return storageBackend{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func sessionConfig(cfg config.Config, logger *zap.Logger) session.Config {
	hashKey := []byte(cfg.Session.HashKey)
	if len(hashKey) == 0 {
		// Only reachable in local mode; validation requires a key elsewhere.
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("using an ephemeral session hash key; set PDP_SESSION_HASH_KEY to keep shoppers across restarts")
	}
	return session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hashKey,
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.Secure,
		MaxAge:       cfg.Session.MaxAge,
	}
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("PDP_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
