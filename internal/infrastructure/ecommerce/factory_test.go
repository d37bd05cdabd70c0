package ecommerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestNewAdapters(t *testing.T) {
	adapters := NewAdapters(config.MarketplaceConfig{
		HTTP: config.MarketplaceHTTPConfig{Timeout: time.Second, MaxAttempts: 2, Backoff: time.Millisecond, RatePerSecond: 10, Burst: 2},
		WB:   config.WBConfig{Token: "t", WarehouseID: "1"},
		Ozon: config.OzonConfig{ClientID: "c"},
	}, zap.NewNop(), nil)

	assert.Equal(t, []marketplace.Platform{marketplace.PlatformWB, marketplace.PlatformOzon, marketplace.PlatformYM}, adapters.Registry.Platforms())
	assert.True(t, adapters.WB.IsConfigured())
	assert.Equal(t, "1", adapters.WB.ConfiguredWarehouseID())
	assert.False(t, adapters.Ozon.IsConfigured())
	assert.False(t, adapters.YM.IsConfigured())

	wb, err := adapters.Registry.MustGet(marketplace.PlatformWB)
	require.NoError(t, err)
	assert.Same(t, adapters.WB, wb)
	assert.Equal(t, RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}, adapters.WB.client.retry)
}
