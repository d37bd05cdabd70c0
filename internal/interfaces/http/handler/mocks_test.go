package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	appinventory "github.com/warehouse/stocksync/internal/application/inventory"
	"github.com/warehouse/stocksync/internal/application/reconcile"
	"github.com/warehouse/stocksync/internal/application/stockpush"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) Run(ctx context.Context, req reconcile.Request) (*ordersync.RunSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordersync.RunSummary), args.Error(1)
}

type MockOrderIngestor struct {
	mock.Mock
}

func (m *MockOrderIngestor) IngestOrder(ctx context.Context, p marketplace.Platform, order marketplace.Order) (*ordersync.PlatformRunReport, error) {
	args := m.Called(ctx, p, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordersync.PlatformRunReport), args.Error(1)
}

type MockStockPusher struct {
	mock.Mock
}

func (m *MockStockPusher) PushChanged(ctx context.Context, itemIDs []string, platforms []marketplace.Platform) (*stockpush.Result, error) {
	args := m.Called(ctx, itemIDs, platforms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stockpush.Result), args.Error(1)
}

type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) View(ctx context.Context, itemID string) (*appinventory.StockView, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinventory.StockView), args.Error(1)
}

func (m *MockStockLedger) SetQuantity(ctx context.Context, itemID, cell string, quantity int) error {
	return m.Called(ctx, itemID, cell, quantity).Error(0)
}

// knownItems finds items by id from a fixed set
type knownItems map[string]bool

func (k knownItems) FindByID(_ context.Context, id string) (*inventory.Item, error) {
	if !k[id] {
		return nil, inventory.ErrItemNotFound
	}
	return inventory.NewItem(id, id)
}

// stubAdapter records webhook registrations
type stubAdapter struct {
	marketplace.Adapter
	platform   marketplace.Platform
	configured bool
	err        error
	registered []string
}

func (a *stubAdapter) Platform() marketplace.Platform { return a.platform }
func (a *stubAdapter) IsConfigured() bool             { return a.configured }
func (a *stubAdapter) RegisterWebhook(_ context.Context, url string) error {
	if a.err != nil {
		return a.err
	}
	a.registered = append(a.registered, url)
	return nil
}

type MockProcessedOrderLister struct {
	mock.Mock
}

func (m *MockProcessedOrderLister) ListSince(ctx context.Context, p marketplace.Platform, since time.Time, limit int) ([]ordersync.ProcessedOrder, error) {
	args := m.Called(ctx, p, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordersync.ProcessedOrder), args.Error(1)
}
