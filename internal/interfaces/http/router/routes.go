package router

import (
	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/infrastructure/auth"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"github.com/warehouse/stocksync/internal/interfaces/http/handler"
	"github.com/warehouse/stocksync/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the engine. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Sync         *handler.SyncHandler
	Webhooks     *handler.WebhookHandler
	Registration *handler.WebhookRegistrationHandler
	Ledger       *handler.LedgerHandler
	Aliases      *handler.AliasHandler
	Warehouses   *handler.WarehouseHandler
	Tallies      *handler.TallyHandler
	Processed    *handler.ProcessedOrderHandler
	System       *handler.SystemHandler
}

// Options configures the middleware chain
type Options struct {
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	WebhookSecret  string
	MaxBodySize    int64
	TrustedProxies []string
	Security       middleware.SecurityConfig
	Tracing        middleware.TracingConfig
	Metrics        *telemetry.Metrics
}

// NewEngine builds the gin engine with the full middleware chain and every
// route of the service.
//
// Middleware order:
//  1. RequestID, Recovery, request logging
//  2. security headers and body limit
//  3. tracing and span error marking, request metrics
//  4. JWT and span attributes on /api/v1 routes only
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureWithConfig(opts.Security))
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.GinMiddleware())
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if h.Webhooks != nil {
		hooks := engine.Group("/webhooks")
		hooks.Use(middleware.WebhookSecret(opts.WebhookSecret, log))
		hooks.POST("/:platform", h.Webhooks.Receive)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	jwtConfig := middleware.JWTMiddlewareConfig{
		Validator: opts.Tokens,
		SkipPaths: []string{r.Prefix() + "/system/info"},
		Logger:    log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.TracingAttributeInjector())
	registerAPI(r, h)
	r.Setup()

	return engine
}

func registerAPI(r *Router, h Handlers) {
	read := middleware.RequireScope(auth.ScopeReadOnly)

	if h.Sync != nil {
		sync := NewDomainGroup("sync", "/sync")
		sync.POST("", middleware.RequireScope(auth.ScopeSync), h.Sync.Run)
		sync.GET("/runs", read, h.Sync.Runs)
		r.Register(sync)
	}

	if h.Ledger != nil {
		ledger := NewDomainGroup("ledger", "/ledger")
		ledger.GET("/:item", read, h.Ledger.Get)
		ledger.PUT("/:item/:cell", middleware.RequireScope(auth.ScopeLedger), h.Ledger.SetQuantity)
		r.Register(ledger)
	}

	if h.Aliases != nil {
		aliases := NewDomainGroup("catalog", "/aliases")
		aliases.Use(middleware.RequireScope(auth.ScopeCatalog))
		aliases.POST("/setup", h.Aliases.Setup)
		r.Register(aliases)
	}

	if h.Warehouses != nil {
		warehouses := NewDomainGroup("warehouses", "/warehouses")
		wb := warehouses.Group("wb", "/wb")
		wb.GET("/select", read, h.Warehouses.SelectWB)
		wb.POST("/refresh", middleware.RequireScope(auth.ScopeCatalog), h.Warehouses.RefreshWB)
		r.Register(warehouses)
	}

	if h.Tallies != nil {
		r.Register(NewDomainGroup("tallies", "/tallies").GET("", read, h.Tallies.List))
	}

	if h.Processed != nil {
		r.Register(NewDomainGroup("orders", "/orders").GET("/processed", read, h.Processed.List))
	}

	if h.Registration != nil {
		webhooks := NewDomainGroup("webhooks", "/webhooks")
		webhooks.Use(middleware.RequireScope(auth.ScopeWebhooks))
		webhooks.POST("/register", h.Registration.Register)
		r.Register(webhooks)
	}

	if h.System != nil {
		r.Register(NewDomainGroup("system", "/system").GET("/info", h.System.GetSystemInfo))
	}
}
