package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"feed-sync-service/internal/clients/shopify"
	"feed-sync-service/internal/config"
	"feed-sync-service/internal/database"
	"feed-sync-service/internal/feeds"
	"feed-sync-service/internal/handlers"
	"feed-sync-service/internal/models"
	"feed-sync-service/internal/repository"
	"feed-sync-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration; missing required settings are fatal before any
	// network call.
	cfg := config.Load()

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.SnapshotEntry{},
		&models.ShopSKU{},
		&models.SyncRun{},
	); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}

	// Platform client
	client := shopify.NewClient(cfg.ShopifyStoreURL, cfg.ShopifyAccessToken, cfg.ShopifyRateLimit, cfg.ShopifyTimeout, logger)

	// Repositories
	snapshotRepo := repository.NewSnapshotRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Services
	reader := feeds.NewReader(cfg.FeedTimeout, logger)
	resolver := services.NewResolver(client, cfg.ResolverChunkSize, cfg.ResolverPageSize, logger)
	mutator := services.NewMutator(client, cfg.MutationBatchSize, cfg.MutationReason, logger)
	exporter := services.NewPriceExporter(cfg.PriceExportDir, logger)
	rosterService := services.NewRosterService(client, rosterRepo, cfg.RosterPageSize, logger)
	syncService := services.NewSyncService(
		feeds.BuiltinSpecs(cfg),
		reader,
		resolver,
		mutator,
		exporter,
		client,
		snapshotRepo,
		rosterRepo,
		runRepo,
		cfg.LocationName,
		logger,
	)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "run":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		run, err := syncService.Run(ctx, os.Args[2], models.TriggerManual)
		if err != nil {
			logger.WithError(err).Error("Sync run failed")
			os.Exit(1)
		}
		printStats(run)

	case "refresh-roster":
		count, err := rosterService.Refresh(ctx)
		if err != nil {
			logger.WithError(err).Error("Roster refresh failed")
			os.Exit(1)
		}
		logger.WithField("skus", count).Info("Roster refresh complete")

	case "serve":
		router := setupRouter(cfg, syncService, rosterService)
		logger.WithField("port", cfg.Port).Info("Feed sync service starting")
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}

	default:
		usage()
		os.Exit(2)
	}
}

// setupRouter configures the HTTP router
func setupRouter(cfg *config.Config, syncService *services.SyncService, rosterService *services.RosterService) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler()
	syncHandler := handlers.NewSyncHandler(syncService, rosterService)

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/feeds", syncHandler.ListFeeds)
		v1.POST("/sync/runs", syncHandler.CreateRun)
		v1.GET("/sync/runs", syncHandler.ListRuns)
		v1.GET("/sync/runs/:id", syncHandler.GetRun)
		v1.POST("/roster/refresh", syncHandler.RefreshRoster)
	}

	return router
}

func printStats(run *models.SyncRun) {
	fmt.Printf("Sync run %s (%s) %s\n", run.ID, run.Feed, run.Status)
	fmt.Printf("  records seen:      %d\n", run.Stats.TotalSeen)
	fmt.Printf("  changed:           %d\n", run.Stats.Changed)
	fmt.Printf("  resolved:          %d\n", run.Stats.Resolved)
	fmt.Printf("  not found in shop: %d\n", run.Stats.Unresolved)
	fmt.Printf("  batches succeeded: %d\n", run.Stats.BatchesSucceeded)
	fmt.Printf("  batches failed:    %d\n", run.Stats.BatchesFailed)
	fmt.Printf("  items updated:     %d\n", run.Stats.ItemsUpdated)
	fmt.Printf("  items failed:      %d\n", run.Stats.ItemsFailed)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: feed-sync-service <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  run <feed>       sync one feed and exit")
	fmt.Fprintln(os.Stderr, "  refresh-roster   refresh the cached shop SKU roster")
	fmt.Fprintln(os.Stderr, "  serve            start the HTTP API")
}
