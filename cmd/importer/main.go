package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"sh3d-importer/internal/common/config"
	"sh3d-importer/internal/common/metrics"
	"sh3d-importer/internal/common/middleware"
	"sh3d-importer/internal/importer/handlers"
	"sh3d-importer/internal/store/blob"
	"sh3d-importer/internal/store/repository"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Importer Service
// ============================================================

func main() {
	cfg := config.Load()

	defaults, err := config.LoadImportOptions(cfg.ImportConfig)
	if err != nil {
		log.Fatalf("import config: %v", err)
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	archives, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}

	importMetrics := metrics.New(prometheus.DefaultRegisterer)
	importHandler := handlers.NewImportHandler(repo, archives, importMetrics, defaults)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		AppName:      "SH3D Importer",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(db))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ============================================================
	// Docs Routes
	// ============================================================

	app.Get("/docs", handlers.DocsUI)
	app.Get("/docs/openapi.yaml", handlers.DocsSpec(cfg.DocsPath))

	// ============================================================
	// Import Routes
	// ============================================================

	importHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting SH3D Importer on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStorage выбирает MinIO, если задан endpoint, иначе локальный диск
func openStorage(cfg *config.Config) (blob.Store, error) {
	if cfg.MinioEndpoint == "" {
		log.Printf("[STORE] archives on disk: %s", cfg.StorageRoot)
		return blob.NewFileStorage(cfg.StorageRoot), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("[STORE] archives in MinIO: %s/%s", cfg.MinioEndpoint, cfg.MinioBucket)
	return blob.NewMinioStorage(ctx, blob.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
}
