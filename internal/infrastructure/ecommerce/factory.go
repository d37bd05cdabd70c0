package ecommerce

import (
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/config"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Adapters bundles the concrete adapters with the registry the engine uses.
// The concrete values are kept for platform-specific wiring such as the WB
// warehouse resolver.
type Adapters struct {
	WB       *WBAdapter
	Ozon     *OzonAdapter
	YM       *YMAdapter
	Registry *marketplace.Registry
}

// ClientOptionsFromConfig maps the shared outbound settings
func ClientOptionsFromConfig(cfg config.MarketplaceHTTPConfig, logger *zap.Logger, metrics *telemetry.Metrics) ClientOptions {
	return ClientOptions{
		Timeout: cfg.Timeout,
		Retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
		},
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		Logger:        logger,
		Metrics:       metrics,
	}
}

// NewAdapters builds all three adapters. Adapters without credentials are
// still registered and answer ErrNotConfigured.
func NewAdapters(cfg config.MarketplaceConfig, logger *zap.Logger, metrics *telemetry.Metrics) *Adapters {
	opts := ClientOptionsFromConfig(cfg.HTTP, logger, metrics)

	wb := NewWBAdapter(WBConfig{
		Token:          cfg.WB.Token,
		WarehouseID:    cfg.WB.WarehouseID,
		MarketplaceURL: cfg.WB.MarketplaceURL,
		SuppliersURL:   cfg.WB.SuppliersURL,
		ContentURL:     cfg.WB.ContentURL,
	}, opts)
	ozon := NewOzonAdapter(OzonConfig{
		ClientID:    cfg.Ozon.ClientID,
		APIKey:      cfg.Ozon.APIKey,
		WarehouseID: cfg.Ozon.WarehouseID,
		BaseURL:     cfg.Ozon.BaseURL,
	}, opts)
	ym := NewYMAdapter(YMConfig{
		Token:      cfg.YM.Token,
		CampaignID: cfg.YM.CampaignID,
		BaseURL:    cfg.YM.BaseURL,
	}, opts)

	if logger != nil {
		for _, a := range []marketplace.Adapter{wb, ozon, ym} {
			if !a.IsConfigured() {
				logger.Warn("Marketplace credentials missing, adapter disabled",
					zap.String("platform", string(a.Platform())))
			}
		}
	}

	return &Adapters{
		WB:       wb,
		Ozon:     ozon,
		YM:       ym,
		Registry: marketplace.NewRegistry(wb, ozon, ym),
	}
}

var (
	_ marketplace.Adapter = (*WBAdapter)(nil)
	_ marketplace.Adapter = (*OzonAdapter)(nil)
	_ marketplace.Adapter = (*YMAdapter)(nil)
)
