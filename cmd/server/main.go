package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/application/catalog"
	appinventory "github.com/warehouse/stocksync/internal/application/inventory"
	appordersync "github.com/warehouse/stocksync/internal/application/ordersync"
	"github.com/warehouse/stocksync/internal/application/reconcile"
	"github.com/warehouse/stocksync/internal/application/stockpush"
	"github.com/warehouse/stocksync/internal/application/warehouse"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/auth"
	"github.com/warehouse/stocksync/internal/infrastructure/cache"
	"github.com/warehouse/stocksync/internal/infrastructure/config"
	"github.com/warehouse/stocksync/internal/infrastructure/ecommerce"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence"
	"github.com/warehouse/stocksync/internal/infrastructure/scheduler"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"github.com/warehouse/stocksync/internal/interfaces/http/handler"
	"github.com/warehouse/stocksync/internal/interfaces/http/middleware"
	"github.com/warehouse/stocksync/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			stocksync API
//	@version		1.0
//	@description	Warehouse stock reconciliation between the ledger and WB, Ozon and Yandex Market

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Operator token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stocksync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", handler.Version),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if lp.IsEnabled() {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		log = telemetry.NewBridgedLogger(log.Core(),
			telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, lp, level),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	itemRepo := persistence.NewGormItemRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	processedRepo := persistence.NewGormProcessedOrderRepository(db.DB)
	cursorStore := persistence.NewGormCursorStore(db.DB)
	tallyRepo := persistence.NewGormTallyRepository(db.DB)

	runLock, err := cache.NewRunLockFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create run lock", zap.Error(err))
	}
	defer func() {
		if err := runLock.Close(); err != nil {
			log.Error("Error closing run lock", zap.Error(err))
		}
	}()

	// Marketplace adapters; WB resolves its warehouse through the selector
	adapters := ecommerce.NewAdapters(cfg.Marketplace, log, metrics)
	selector := warehouse.NewSelector(adapters.WB, itemRepo, log)
	adapters.WB.SetWarehouseResolver(selector)

	// Application services
	ledgerService := appinventory.NewLedgerService(ledgerRepo, log)
	ingestionService := appordersync.NewIngestionService(
		adapters.Registry,
		itemRepo,
		ledgerService,
		processedRepo,
		cursorStore,
		tallyRepo,
		appordersync.Config{
			DefaultCell: cfg.App.DefaultCell,
			Lookback:    cfg.Scheduler.Lookback,
		},
		log,
	)
	ingestionService.SetMetrics(metrics)
	ingestionService.SetLock(runLock)

	pushEngine := stockpush.NewEngine(adapters.Registry, itemRepo, ledgerService, log)
	pushEngine.SetMetrics(metrics)

	aliasService := catalog.NewAliasService(adapters.Registry, itemRepo, log)

	coordinator := reconcile.NewCoordinator(
		adapters.Registry,
		ingestionService,
		pushEngine,
		runLock,
		reconcile.Config{LockTTL: cfg.Scheduler.RunTimeout},
		log,
	)
	coordinator.SetMetrics(metrics)

	var history handler.RunHistory
	if cfg.Scheduler.Enabled {
		syncScheduler, err := scheduler.NewScheduler(scheduler.Config{
			Interval:   cfg.Scheduler.Interval,
			RunTimeout: cfg.Scheduler.RunTimeout,
			RunOnStart: true,
		}, scheduler.RunnerFunc(func(ctx context.Context) (*ordersync.RunSummary, error) {
			return coordinator.Run(ctx, reconcile.Request{Trigger: reconcile.TriggerScheduler})
		}), log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		history = syncScheduler
		log.Info("Reconciliation scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Duration("run_timeout", cfg.Scheduler.RunTimeout),
		)
	}

	jwtService := auth.NewJWTService(cfg.Auth)
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty, every operator request will be rejected")
	}

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(adapters.Registry)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	handlers := router.Handlers{
		Sync:         handler.NewSyncHandler(coordinator, history),
		Webhooks:     handler.NewWebhookHandler(ingestionService, pushEngine),
		Registration: handler.NewWebhookRegistrationHandler(adapters.Registry, cfg.App.PublicURL, cfg.Auth.WebhookSecret),
		Ledger:       handler.NewLedgerHandler(ledgerService, itemRepo, pushEngine),
		Aliases:      handler.NewAliasHandler(aliasService),
		Warehouses:   handler.NewWarehouseHandler(selector),
		Tallies:      handler.NewTallyHandler(tallyRepo),
		Processed:    handler.NewProcessedOrderHandler(processedRepo),
		System:       systemHandler,
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	}

	engine := router.NewEngine(router.Options{
		Logger:         log,
		Tokens:         jwtService,
		WebhookSecret:  cfg.Auth.WebhookSecret,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Security:       middleware.DefaultSecurityConfig(),
		Tracing:        tracingConfig,
		Metrics:        metrics,
	}, handlers)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
