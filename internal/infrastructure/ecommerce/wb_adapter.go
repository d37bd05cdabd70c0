package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"go.uber.org/zap"
)

const (
	wbStocksBatchSize = 1000
	wbCardsPageLimit  = 100
	wbDateLayout      = "2006-01-02T15:04:05Z"
)

// WarehouseResolver picks the WB warehouse that stock pushes target when
// none is configured
type WarehouseResolver interface {
	ResolveWarehouse(ctx context.Context) (string, error)
}

// WBAdapter implements marketplace.Adapter for Wildberries
type WBAdapter struct {
	config   WBConfig
	client   *apiClient
	webhooks webhookSet

	mu       sync.RWMutex
	resolver WarehouseResolver
}

// NewWBAdapter creates a new Wildberries adapter
func NewWBAdapter(config WBConfig, opts ClientOptions) *WBAdapter {
	return &WBAdapter{
		config: config.withDefaults(),
		client: newAPIClient(marketplace.PlatformWB, opts),
	}
}

// SetWarehouseResolver installs the fallback used when no warehouse id is configured
func (a *WBAdapter) SetWarehouseResolver(r WarehouseResolver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resolver = r
}

// Platform returns the platform type
func (a *WBAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformWB
}

// IsConfigured checks if the adapter has a token
func (a *WBAdapter) IsConfigured() bool {
	return a.config.IsConfigured()
}

// ConfiguredWarehouseID returns the pinned warehouse id, possibly empty
func (a *WBAdapter) ConfiguredWarehouseID() string {
	return a.config.WarehouseID
}

func (a *WBAdapter) ensureConfigured() error {
	if !a.config.IsConfigured() {
		return notConfigured(marketplace.PlatformWB, "token")
	}
	return nil
}

func (a *WBAdapter) headers() map[string]string {
	return map[string]string{"Authorization": a.config.Token}
}

// ListNewOrders returns new orders created since the given time, following the next cursor
func (a *WBAdapter) ListNewOrders(ctx context.Context, since time.Time) ([]marketplace.Order, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	var orders []marketplace.Order
	next := int64(0)
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("date_start", since.UTC().Format(wbDateLayout))
		query.Set("flag", "0")
		if next != 0 {
			query.Set("next", strconv.FormatInt(next, 10))
		}

		resp, err := a.client.do(ctx, apiRequest{
			Operation: "list_orders",
			Method:    http.MethodGet,
			URL:       a.config.MarketplaceURL + "/api/v5/orders?" + query.Encode(),
			Headers:   a.headers(),
		})
		if err != nil {
			return nil, err
		}
		var body wbOrdersResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}

		for _, o := range body.Orders {
			order := marketplace.Order{ExternalOrderID: o.OrderID.String()}
			for _, p := range o.Products {
				order.Lines = append(order.Lines, marketplace.OrderLine{ExternalSKU: p.SKU.String(), Quantity: lineQuantity(p.Quantity)})
			}
			orders = append(orders, order)
		}

		if body.Next == 0 || body.Next == next {
			break
		}
		next = body.Next
	}
	return orders, nil
}

// resolveWarehouse returns the configured warehouse id or asks the resolver
func (a *WBAdapter) resolveWarehouse(ctx context.Context) (string, error) {
	if a.config.WarehouseID != "" {
		return a.config.WarehouseID, nil
	}
	a.mu.RLock()
	resolver := a.resolver
	a.mu.RUnlock()
	if resolver == nil {
		return "", notConfigured(marketplace.PlatformWB, "warehouse_id")
	}
	id, err := resolver.ResolveWarehouse(ctx)
	if err != nil {
		return "", fmt.Errorf("wb: resolve warehouse: %w", err)
	}
	if id == "" {
		return "", notConfigured(marketplace.PlatformWB, "warehouse_id")
	}
	return id, nil
}

// PushStock publishes absolute quantities with one PUT per warehouse batch
func (a *WBAdapter) PushStock(ctx context.Context, updates []marketplace.StockUpdate) (*marketplace.PushOutcome, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	outcome := &marketplace.PushOutcome{}
	if len(updates) == 0 {
		return outcome, nil
	}
	warehouseID, err := a.resolveWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	stocks := make([]wbStock, 0, len(updates))
	for _, u := range updates {
		stocks = append(stocks, wbStock{SKU: u.ExternalSKU, Amount: max(u.Quantity, 0)})
	}

	for _, batch := range chunk(stocks, wbStocksBatchSize) {
		resp, err := a.client.do(ctx, apiRequest{
			Operation: "push_stock",
			Method:    http.MethodPut,
			URL:       a.config.MarketplaceURL + "/api/v3/stocks/" + url.PathEscape(warehouseID),
			Headers:   a.headers(),
			Body:      wbStocksRequest{Stocks: batch},
		})
		if err != nil {
			return outcome, err
		}
		if hasBodyError(resp.Body) {
			return outcome, newRejection(marketplace.PlatformWB, resp.Status, resp.Body)
		}
		outcome.ItemsSent += len(batch)
	}

	a.client.logger.Info("Pushed stock",
		zap.String("warehouse_id", warehouseID),
		zap.Int("items_sent", outcome.ItemsSent),
	)
	return outcome, nil
}

// ReadWarehouseStock returns the amounts a warehouse currently holds for the given barcodes
func (a *WBAdapter) ReadWarehouseStock(ctx context.Context, warehouseID string, skus []string) (map[string]int, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	result := make(map[string]int, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	for _, batch := range chunk(skus, wbStocksBatchSize) {
		resp, err := a.client.do(ctx, apiRequest{
			Operation: "read_stock",
			Method:    http.MethodPost,
			URL:       a.config.MarketplaceURL + "/api/v3/stocks/" + url.PathEscape(warehouseID),
			Headers:   a.headers(),
			Body:      wbStocksQuery{SKUs: batch},
		})
		if err != nil {
			return nil, err
		}
		var body wbStocksResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}
		for _, s := range body.Stocks {
			result[s.SKU] += s.Amount
		}
	}
	return result, nil
}

// RegisterWebhook is not offered by Wildberries
func (a *WBAdapter) RegisterWebhook(ctx context.Context, callbackURL string) error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	return fmt.Errorf("%w: wildberries has no webhook subscription", marketplace.ErrUnsupported)
}

// ListWarehouses returns the seller's warehouses
func (a *WBAdapter) ListWarehouses(ctx context.Context) ([]marketplace.Warehouse, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	resp, err := a.client.do(ctx, apiRequest{
		Operation: "list_warehouses",
		Method:    http.MethodGet,
		URL:       a.config.SuppliersURL + "/api/v3/warehouses",
		Headers:   a.headers(),
	})
	if err != nil {
		return nil, err
	}
	var body []wbWarehouse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	warehouses := make([]marketplace.Warehouse, 0, len(body))
	for _, w := range body {
		active := true
		if w.IsActive != nil {
			active = *w.IsActive
		}
		warehouses = append(warehouses, marketplace.Warehouse{
			ID:       w.ID.String(),
			Name:     strings.TrimSpace(w.Name),
			IsActive: active,
		})
	}
	return warehouses, nil
}

// ListCatalog pages through the content cards and maps vendor codes to their first barcode
func (a *WBAdapter) ListCatalog(ctx context.Context) ([]marketplace.CatalogEntry, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	var entries []marketplace.CatalogEntry
	cursor := wbCardsCursor{Limit: wbCardsPageLimit}
	for page := 0; page < maxPages; page++ {
		resp, err := a.client.do(ctx, apiRequest{
			Operation: "list_catalog",
			Method:    http.MethodPost,
			URL:       a.config.ContentURL + "/content/v2/get/cards/list?locale=ru",
			Headers:   a.headers(),
			Body: wbCardsRequest{Settings: wbCardsSettings{
				Filter: wbCardsFilter{WithPhoto: -1},
				Cursor: cursor,
			}},
		})
		if err != nil {
			return nil, err
		}
		var body wbCardsResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}

		for _, card := range body.Cards {
			barcode := card.firstBarcode()
			if barcode == "" || card.VendorCode == "" {
				continue
			}
			entries = append(entries, marketplace.CatalogEntry{VendorCode: card.VendorCode, ExternalSKU: barcode})
		}

		if len(body.Cards) < cursor.Limit {
			break
		}
		cursor.UpdatedAt = body.Cursor.UpdatedAt
		cursor.NmID = body.Cursor.NmID
	}
	return entries, nil
}
