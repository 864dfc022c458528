package main

import (
	"context"
	"database/sql"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clientdocs/docs"
	"clientdocs/internal/auth"
	"clientdocs/internal/cache"
	"clientdocs/internal/config"
	"clientdocs/internal/database"
	"clientdocs/internal/database/migration"
	handlers "clientdocs/internal/http/handler"
	"clientdocs/internal/http/middleware"
	"clientdocs/internal/logging"
	"clientdocs/internal/metrics"
	"clientdocs/internal/otel"
	"clientdocs/internal/repository"
	"clientdocs/internal/repository/memory"
	"clientdocs/internal/repository/postgres"
	"clientdocs/internal/service"
	"clientdocs/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// repositories is the persistence layer selected by STORE_BACKEND.
type repositories struct {
	db            *sql.DB
	documents     repository.DocumentRepository
	notifications repository.NotificationRepository
	users         repository.UserDirectory
	clients       repository.ClientDirectory
}

// @title						Client Document API
// @version					1.0
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Stdout(cfg.Location())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize repositories", zap.Error(err))
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	objStore, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}

	counter, closeCounter := openCounter(cfg, log)
	defer closeCounter()

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		log.Fatal("failed to initialize token verification", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics, err := metrics.New(reg)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	notifSvc := service.NewNotificationService(service.NotificationDeps{
		Notifications: repos.notifications,
		Documents:     repos.documents,
		Users:         repos.users,
		Counter:       counter,
		Logger:        log,
	}, cfg.Documents.NotificationsCap)
	docSvc := service.NewDocumentService(service.DocumentDeps{
		Store:     objStore,
		Documents: repos.documents,
		Users:     repos.users,
		Clients:   repos.clients,
		Notifier:  notifSvc,
		Logger:    log,
		Metrics:   domainMetrics,
	}, cfg.Documents)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart overhead on top of the largest accepted file.
		BodyLimit: int(cfg.Documents.UploadMaxBytes) + 1<<20,
	})

	skipMetrics := func(c *fiber.Ctx) bool { return c.Path() == "/metrics" }
	app.Use(otelfiber.Middleware(otelfiber.WithNext(skipMetrics)))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	docs.SwaggerInfo.Host = cfg.AppHost
	handlers.RegisterRoutes(app, repos.db, docSvc, notifSvc, middleware.Auth(verifier))

	serveErr := make(chan error, 1)
	go func() {
		logging.Event(log, "server", "listen", "starting", zap.String("port", cfg.Port), zap.String("backend", cfg.Backend))
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
	logging.Event(log, "server", "shutdown", "success")
}

func openRepositories(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*repositories, error) {
	switch cfg.Backend {
	case "memory":
		logging.Event(log, "repository", "backend", "memory")
		return &repositories{
			documents:     memory.NewDocuments(),
			notifications: memory.NewNotifications(),
			users:         memory.NewUsers(),
			clients:       memory.NewClients(),
		}, nil
	case "postgres", "":
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &repositories{
			db:            db,
			documents:     postgres.NewDocumentPostgres(db),
			notifications: postgres.NewNotificationPostgres(db),
			users:         postgres.NewUserPostgres(db),
			clients:       postgres.NewClientPostgres(db),
		}, nil
	default:
		return nil, errors.New("unknown STORE_BACKEND " + cfg.Backend)
	}
}

func openStorage(cfg *config.AppConfig, log *zap.Logger) (storage.Storage, error) {
	if cfg.Backend == "memory" && cfg.MinIO.Endpoint == "" {
		logging.Event(log, "storage", "backend", "memory")
		return storage.NewMemory(), nil
	}
	store, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	logging.Event(log, "storage", "backend", "minio", zap.String("bucket", cfg.MinIO.Bucket))
	return store, nil
}

// openCounter connects the unread-count cache. Redis is optional: without a URL,
// or when it cannot be reached, counts are read from the repository every time.
func openCounter(cfg *config.AppConfig, log *zap.Logger) (cache.UnreadCounter, func()) {
	if cfg.Redis.URL == "" {
		return cache.Noop{}, func() {}
	}
	rc, err := cache.NewRedisCounter(cfg.Redis.URL, cfg.Redis.TTL)
	if err != nil {
		logging.Event(log, "cache", "redis_connect", "failed", zap.Error(err))
		return cache.Noop{}, func() {}
	}
	logging.Event(log, "cache", "redis_connect", "success")
	return rc, func() { _ = rc.Close() }
}
