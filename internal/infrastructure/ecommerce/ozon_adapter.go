package ecommerce

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"go.uber.org/zap"
)

const (
	ozonPostingPageLimit  = 100
	ozonProductPageLimit  = 1000
	ozonStocksBatchSize   = 100
	ozonPostingStatus     = "awaiting_packaging"
	ozonDateLayout        = "2006-01-02T15:04:05Z"
	ozonImplicitWarehouse = "Ozon FBS warehouse"
)

var ozonWebhookEvents = []string{"new_posting", "posting_status_change"}

// OzonAdapter implements marketplace.Adapter for Ozon Seller
type OzonAdapter struct {
	config   OzonConfig
	client   *apiClient
	products *ProductRegistry
	webhooks webhookSet
	now      func() time.Time
}

// NewOzonAdapter creates a new Ozon adapter with its own product registry
func NewOzonAdapter(config OzonConfig, opts ClientOptions) *OzonAdapter {
	a := &OzonAdapter{
		config: config.withDefaults(),
		client: newAPIClient(marketplace.PlatformOzon, opts),
		now:    time.Now,
	}
	a.products = NewProductRegistry(a.loadProducts)
	return a
}

// Platform returns the platform type
func (a *OzonAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformOzon
}

// IsConfigured checks if the adapter has Client-Id and Api-Key
func (a *OzonAdapter) IsConfigured() bool {
	return a.config.IsConfigured()
}

func (a *OzonAdapter) ensureConfigured() error {
	if missing := a.config.missing(); len(missing) > 0 {
		return notConfigured(marketplace.PlatformOzon, missing...)
	}
	return nil
}

func (a *OzonAdapter) headers() map[string]string {
	return map[string]string{
		"Client-Id": a.config.ClientID,
		"Api-Key":   a.config.APIKey,
	}
}

func (a *OzonAdapter) warehouseID() (int64, error) {
	raw := strings.TrimSpace(a.config.WarehouseID)
	if raw == "" {
		return 0, notConfigured(marketplace.PlatformOzon, "warehouse_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ozon warehouse_id %q is not numeric", marketplace.ErrNotConfigured, raw)
	}
	return id, nil
}

func (a *OzonAdapter) post(ctx context.Context, operation, path string, body any) (*apiResponse, error) {
	return a.client.do(ctx, apiRequest{
		Operation: operation,
		Method:    http.MethodPost,
		URL:       a.config.BaseURL + path,
		Headers:   a.headers(),
		Body:      body,
	})
}

// ListNewOrders returns FBS postings awaiting packaging created since the given time
func (a *OzonAdapter) ListNewOrders(ctx context.Context, since time.Time) ([]marketplace.Order, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	req := ozonPostingListRequest{
		Dir: "ASC",
		Filter: ozonPostingFilter{
			Since:  since.UTC().Format(ozonDateLayout),
			To:     a.now().UTC().Format(ozonDateLayout),
			Status: ozonPostingStatus,
		},
		Limit: ozonPostingPageLimit,
	}

	var orders []marketplace.Order
	for page := 0; page < maxPages; page++ {
		resp, err := a.post(ctx, "list_orders", "/v3/posting/fbs/list", req)
		if err != nil {
			return nil, err
		}
		var body ozonPostingListResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}
		for _, p := range body.Result.Postings {
			orders = append(orders, postingToOrder(p))
		}
		if !body.Result.HasNext || len(body.Result.Postings) == 0 {
			break
		}
		req.Offset += len(body.Result.Postings)
	}
	return orders, nil
}

func postingToOrder(p ozonPosting) marketplace.Order {
	order := marketplace.Order{ExternalOrderID: p.PostingNumber}
	for _, product := range p.Products {
		order.Lines = append(order.Lines, marketplace.OrderLine{
			ExternalSKU: product.externalSKU(),
			Quantity:    lineQuantity(product.Quantity),
		})
	}
	return order
}

// PushStock publishes quantities by offer id. Offers with no known product id
// after one registry refresh are reported in PushOutcome.Skipped.
func (a *OzonAdapter) PushStock(ctx context.Context, updates []marketplace.StockUpdate) (*marketplace.PushOutcome, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	outcome := &marketplace.PushOutcome{}
	if len(updates) == 0 {
		return outcome, nil
	}
	warehouseID, err := a.warehouseID()
	if err != nil {
		return nil, err
	}

	offers := make([]string, 0, len(updates))
	for _, u := range updates {
		offers = append(offers, u.ExternalSKU)
	}
	productIDs, missing, err := a.products.Resolve(ctx, offers)
	if err != nil {
		return nil, fmt.Errorf("ozon: resolve product ids: %w", err)
	}
	if len(missing) > 0 {
		outcome.Skipped = missing
		a.client.logger.Warn("Offers without product id skipped", zap.Strings("offers", missing))
	}

	stocks := make([]ozonStock, 0, len(updates))
	for _, u := range updates {
		productID, ok := productIDs[u.ExternalSKU]
		if !ok {
			continue
		}
		stocks = append(stocks, ozonStock{
			OfferID:     u.ExternalSKU,
			ProductID:   productID,
			Stock:       max(u.Quantity, 0),
			WarehouseID: warehouseID,
		})
	}
	if len(stocks) == 0 {
		return outcome, nil
	}

	for _, batch := range chunk(stocks, ozonStocksBatchSize) {
		resp, err := a.post(ctx, "push_stock", "/v2/products/stocks", ozonStocksRequest{Stocks: batch})
		if err != nil {
			return outcome, err
		}
		var body ozonStocksResponse
		if err := resp.Decode(&body); err != nil {
			return outcome, err
		}

		var failures []string
		var code string
		for _, r := range body.Result {
			if len(r.Errors) > 0 {
				for _, e := range r.Errors {
					failures = append(failures, r.OfferID+": "+e.Message)
					if code == "" {
						code = e.Code
					}
				}
				continue
			}
			if !r.Updated {
				failures = append(failures, r.OfferID+": not updated")
				continue
			}
			outcome.ItemsSent++
		}
		if len(failures) > 0 {
			return outcome, &marketplace.RejectionError{
				Platform: marketplace.PlatformOzon,
				Status:   resp.Status,
				Code:     code,
				Message:  strings.Join(failures, "; "),
			}
		}
	}
	return outcome, nil
}

// RegisterWebhook subscribes callbackURL to new postings. An existing
// subscription (HTTP 409) counts as success.
func (a *OzonAdapter) RegisterWebhook(ctx context.Context, callbackURL string) error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	if a.webhooks.has(callbackURL) {
		return nil
	}

	_, err := a.post(ctx, "register_webhook", "/v1/api/webhook/subscribe", ozonWebhookSubscribeRequest{
		URL:    callbackURL,
		Events: ozonWebhookEvents,
	})
	if err != nil && !isConflict(err) {
		return err
	}
	a.webhooks.add(callbackURL)
	return nil
}

// ListWarehouses returns the configured warehouse as the only one
func (a *OzonAdapter) ListWarehouses(ctx context.Context) ([]marketplace.Warehouse, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	if _, err := a.warehouseID(); err != nil {
		return nil, err
	}
	return []marketplace.Warehouse{{
		ID:       strings.TrimSpace(a.config.WarehouseID),
		Name:     ozonImplicitWarehouse,
		IsActive: true,
	}}, nil
}

// ListCatalog returns every offer. The listing also refreshes the product registry.
func (a *OzonAdapter) ListCatalog(ctx context.Context) ([]marketplace.CatalogEntry, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	ids, err := a.listProducts(ctx)
	if err != nil {
		return nil, err
	}
	a.products.Replace(ids)

	offers := slices.Sorted(maps.Keys(ids))
	entries := make([]marketplace.CatalogEntry, 0, len(offers))
	for _, offer := range offers {
		entries = append(entries, marketplace.CatalogEntry{VendorCode: offer, ExternalSKU: offer})
	}
	return entries, nil
}

func (a *OzonAdapter) loadProducts(ctx context.Context) (map[string]int64, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	return a.listProducts(ctx)
}

// listProducts pages /v3/product/list by last_id
func (a *OzonAdapter) listProducts(ctx context.Context) (map[string]int64, error) {
	ids := make(map[string]int64)
	req := ozonProductListRequest{Limit: ozonProductPageLimit}
	for page := 0; page < maxPages; page++ {
		resp, err := a.post(ctx, "list_catalog", "/v3/product/list", req)
		if err != nil {
			return nil, err
		}
		var body ozonProductListResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}
		for _, item := range body.Result.Items {
			if item.OfferID != "" {
				ids[item.OfferID] = item.ProductID
			}
		}
		if len(body.Result.Items) < req.Limit || body.Result.LastID == "" || body.Result.LastID == req.LastID {
			break
		}
		req.LastID = body.Result.LastID
	}
	return ids, nil
}
