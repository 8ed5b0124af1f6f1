package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"docstore/docs"
	"docstore/internal/config"
	"docstore/internal/database"
	"docstore/internal/database/migration"
	handlers "docstore/internal/http/handler"
	"docstore/internal/http/middleware"
	"docstore/internal/logger"
	"docstore/internal/otel"
	"docstore/internal/repository"
	"docstore/internal/repository/memory"
	"docstore/internal/repository/mongodb"
	"docstore/internal/repository/postgres"
	"docstore/internal/service"
	"docstore/internal/storage"
)

// multipartOverhead is allowed on top of the upload ceiling for form framing.
const multipartOverhead = 1 << 20

// @title Document Store API
// @version 1.0
// @BasePath /
func main() {
	fx.New(options()).Run()
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			config.Load,
			newLogger,
			newCatalog,
			newBackends,
			newMetrics,
			newPrometheusMiddleware,
			newDocumentService,
			newFiberServer,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(startTracing, registerRoutes, startServer),
	)
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	return logger.New(cfg.Log)
}

// newCatalog opens the metadata catalog selected by CATALOG_DRIVER. The
// returned pinger is nil when the catalog has no remote dependency.
func newCatalog(lc fx.Lifecycle, cfg *config.AppConfig, log *zap.Logger) (repository.DocumentRepository, handlers.Pinger, error) {
	switch cfg.CatalogDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(context.Background(), cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(context.Background(), db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		lc.Append(fx.StopHook(db.Close))
		return postgres.NewDocumentPostgres(db), db, nil

	case config.DriverMongo:
		mdb, err := database.NewMongo(context.Background(), cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		lc.Append(fx.StopHook(mdb.Client().Disconnect))
		return mongodb.NewDocumentMongo(mdb), database.MongoPinger{Client: mdb.Client()}, nil

	case config.DriverMemory:
		log.Warn("using in-memory catalog, records are lost on restart")
		return memory.NewDocumentMemory(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown CATALOG_DRIVER %q", cfg.CatalogDriver)
	}
}

func newBackends(cfg *config.AppConfig) ([]storage.Backend, error) {
	disk, err := storage.NewDisk(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
	}
	return []storage.Backend{disk, storage.NewEmbedded()}, nil
}

func newMetrics() (*service.Metrics, error) {
	return service.NewMetrics(prometheus.DefaultRegisterer)
}

func newPrometheusMiddleware() (*middleware.PrometheusMiddleware, error) {
	return middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
}

func newDocumentService(repo repository.DocumentRepository, backends []storage.Backend, metrics *service.Metrics, cfg *config.AppConfig, log *zap.Logger) service.DocumentService {
	return service.NewDocumentService(repo, log, service.Options{
		MaxUploadBytes:           cfg.Storage.MaxUploadBytes,
		RollbackOnCatalogFailure: cfg.Storage.RollbackOnCatalogFailure,
		Metrics:                  metrics,
	}, backends...)
}

func newFiberServer(cfg *config.AppConfig, log *zap.Logger, prom *middleware.PrometheusMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(cfg.Storage.MaxUploadBytes) + multipartOverhead,
		DisableStartupMessage: true,
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())

	// Registered ahead of otelfiber so scrapes are traced once, by otelhttp.
	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(otelhttp.NewHandler(promhttp.Handler(), "metrics")))

	app.Use(otelfiber.Middleware())

	return app
}

func registerRoutes(app *fiber.App, health handlers.Pinger, docSvc service.DocumentService, cfg *config.AppConfig) {
	handlers.RegisterRoutes(app, health, docSvc, cfg.Storage)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})
}

func startTracing(lc fx.Lifecycle, log *zap.Logger) error {
	shutdown, err := otel.Init(context.Background(), log)
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(shutdown))
	return nil
}

// startServer runs Fiber in a goroutine and shuts it down when the app exits.
func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *fiber.App, cfg *config.AppConfig, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			addr := ":" + cfg.Port
			go func() {
				if err := app.Listen(addr); err != nil {
					log.Error("server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			log.Info("server started", zap.String("addr", addr), zap.String("catalog", cfg.CatalogDriver))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
