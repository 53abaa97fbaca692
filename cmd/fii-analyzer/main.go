package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-fii-analyzer/internal/config"
	delivery "golang-fii-analyzer/internal/delivery/http"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/internal/scraper"
	"golang-fii-analyzer/internal/service"
	"golang-fii-analyzer/internal/worker"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/postgres"
	"golang-fii-analyzer/pkg/redis"
	"golang-fii-analyzer/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the FII analyzer service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting FII Analyzer", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := db.DB.AutoMigrate(
		&entity.FII{},
		&entity.FIIHistory{},
		&entity.FIIAnalysis{},
		&entity.Alert{},
		&entity.JobExecution{},
	); err != nil {
		appLogger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Initialize Redis. The trigger damper degrades to always-notify without it.
	var triggerCache service.TriggerCache = service.NoopTriggerCache{}
	if cfg.Redis.Host != "" {
		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err := redis.NewClient(redisCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()

		cacheDuration := time.Hour
		if d, err := time.ParseDuration(cfg.Notification.AlertCacheDuration); err == nil && d > 0 {
			cacheDuration = d
		}
		triggerCache = service.NewRedisTriggerCache(redisClient, cacheDuration,
			cfg.Notification.AlertResendThresholdPercent, appLogger)
	}

	// Initialize Telegram notifier when configured
	var telegramNotifier telegram.Notifier
	if cfg.Notification.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Notification.Telegram.BotToken, cfg.Notification.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier", logger.ErrorField(err))
			telegramNotifier = nil
		}
	}

	// Initialize repositories
	fiiRepo := repository.NewFIIRepository(db.DB)
	analysisRepo := repository.NewAnalysisRepository(db.DB)
	alertRepo := repository.NewAlertRepository(db.DB)
	jobExecutionRepo := repository.NewJobExecutionRepository(db.DB)

	// Initialize event bus and services
	bus := eventbus.New(appLogger)
	registry := scraper.NewRegistry(cfg, appLogger)
	collectorSvc := service.NewCollectorService(registry, fiiRepo, bus, appLogger)
	analyzerSvc := service.NewAnalyzerService(cfg, fiiRepo, analysisRepo, bus, appLogger)
	dispatcher := service.NewNotificationDispatcher(cfg, telegramNotifier, appLogger)
	alertSvc := service.NewAlertService(alertRepo, fiiRepo, analysisRepo, dispatcher, triggerCache, bus, appLogger)
	schedulerSvc := service.NewSchedulerService(cfg, collectorSvc, analyzerSvc, alertSvc, appLogger)

	// Initialize job queue
	defaultSources := cfg.Scrapers.SourceList()
	strategies := []worker.JobExecutionStrategy{}
	collectStrategy := worker.NewCollectStrategy(collectorSvc, defaultSources)
	analyzeStrategy := worker.NewAnalyzeStrategy(analyzerSvc)
	strategies = append(strategies, collectStrategy, analyzeStrategy,
		worker.NewBothStrategy(collectStrategy, analyzeStrategy))
	jobWorker := worker.NewWorker(cfg, strategies, jobExecutionRepo, bus, appLogger)

	// Start background services
	schedulerSvc.Start(ctx)
	jobWorker.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	fiiHandler := delivery.NewFIIHandler(fiiRepo, appLogger)
	fiiHandler.RegisterRoutes(apiV1.Group("/funds"))

	analysisHandler := delivery.NewAnalysisHandler(analyzerSvc, analysisRepo, appLogger)
	analysisHandler.RegisterRoutes(apiV1.Group("/analyses"))

	collectionHandler := delivery.NewCollectionHandler(collectorSvc, registry, defaultSources, appLogger)
	collectionHandler.RegisterRoutes(apiV1.Group("/collect"))

	alertHandler := delivery.NewAlertHandler(alertSvc, dispatcher, appLogger)
	alertHandler.RegisterRoutes(apiV1.Group("/alerts"))

	jobHandler := delivery.NewJobHandler(jobWorker, appLogger)
	jobHandler.RegisterRoutes(apiV1.Group("/jobs"))

	schedulerHandler := delivery.NewSchedulerHandler(ctx, schedulerSvc, appLogger)
	schedulerHandler.RegisterRoutes(apiV1.Group("/scheduler"))

	eventHandler := delivery.NewEventHandler(bus)
	eventHandler.RegisterRoutes(apiV1.Group("/events"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	schedulerSvc.Stop()
	jobWorker.Stop()

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "fii-analyzer"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing fii-analyzer CLI: %s\n", err)
		os.Exit(1)
	}
}
