package ecommerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

const (
	ymStocksBatchSize   = 2000
	ymOffersPageLimit   = 200
	ymDateLayout        = "2006-01-02"
	ymImplicitWarehouse = "Yandex Market campaign"
)

// YMAdapter implements marketplace.Adapter for Yandex Market
type YMAdapter struct {
	config   YMConfig
	client   *apiClient
	webhooks webhookSet
	now      func() time.Time
}

// NewYMAdapter creates a new Yandex Market adapter
func NewYMAdapter(config YMConfig, opts ClientOptions) *YMAdapter {
	return &YMAdapter{
		config: config.withDefaults(),
		client: newAPIClient(marketplace.PlatformYM, opts),
		now:    time.Now,
	}
}

// Platform returns the platform type
func (a *YMAdapter) Platform() marketplace.Platform {
	return marketplace.PlatformYM
}

// IsConfigured checks if the adapter has a token and campaign id
func (a *YMAdapter) IsConfigured() bool {
	return a.config.IsConfigured()
}

func (a *YMAdapter) ensureConfigured() error {
	if missing := a.config.missing(); len(missing) > 0 {
		return notConfigured(marketplace.PlatformYM, missing...)
	}
	return nil
}

func (a *YMAdapter) campaignPath() string {
	return "/campaigns/" + url.PathEscape(a.config.CampaignID)
}

func (a *YMAdapter) apiKeyHeaders() map[string]string {
	return map[string]string{"Api-Key": a.config.Token}
}

// checkBody turns a {"status":"ERROR"} body into a rejection
func (a *YMAdapter) checkBody(resp *apiResponse) error {
	if hasBodyError(resp.Body) {
		return newRejection(marketplace.PlatformYM, resp.Status, resp.Body)
	}
	return nil
}

// ListNewOrders returns campaign orders from the since date on, following page tokens
func (a *YMAdapter) ListNewOrders(ctx context.Context, since time.Time) ([]marketplace.Order, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	var orders []marketplace.Order
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("fromDate", since.UTC().Format(ymDateLayout))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		resp, err := a.client.do(ctx, apiRequest{
			Operation: "list_orders",
			Method:    http.MethodGet,
			URL:       a.config.BaseURL + a.campaignPath() + "/orders?" + query.Encode(),
			Headers:   map[string]string{"Authorization": "Bearer " + a.config.Token},
		})
		if err != nil {
			return nil, err
		}
		if err := a.checkBody(resp); err != nil {
			return nil, err
		}
		var body ymOrdersResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}
		for _, o := range body.Orders {
			orders = append(orders, o.toOrder())
		}

		next := body.Pager.NextPageToken
		if next == "" || next == pageToken {
			break
		}
		pageToken = next
	}
	return orders, nil
}

// PushStock publishes quantities as one nested stock item per offer
func (a *YMAdapter) PushStock(ctx context.Context, updates []marketplace.StockUpdate) (*marketplace.PushOutcome, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	outcome := &marketplace.PushOutcome{}
	if len(updates) == 0 {
		return outcome, nil
	}

	updatedAt := a.now().UTC().Format(time.RFC3339)
	skus := make([]ymSKUStock, 0, len(updates))
	for _, u := range updates {
		skus = append(skus, ymSKUStock{
			SKU:   u.ExternalSKU,
			Items: []ymStockItem{{Count: max(u.Quantity, 0), UpdatedAt: updatedAt}},
		})
	}

	for _, batch := range chunk(skus, ymStocksBatchSize) {
		resp, err := a.client.do(ctx, apiRequest{
			Operation: "push_stock",
			Method:    http.MethodPut,
			URL:       a.config.BaseURL + "/v2" + a.campaignPath() + "/offers/stocks",
			Headers:   a.apiKeyHeaders(),
			Body:      ymStocksRequest{SKUs: batch},
		})
		if err != nil {
			return outcome, err
		}
		if err := a.checkBody(resp); err != nil {
			return outcome, err
		}
		outcome.ItemsSent += len(batch)
	}
	return outcome, nil
}

// RegisterWebhook points campaign notifications at callbackURL. An existing
// subscription (HTTP 409) counts as success.
func (a *YMAdapter) RegisterWebhook(ctx context.Context, callbackURL string) error {
	if err := a.ensureConfigured(); err != nil {
		return err
	}
	if a.webhooks.has(callbackURL) {
		return nil
	}

	resp, err := a.client.do(ctx, apiRequest{
		Operation: "register_webhook",
		Method:    http.MethodPost,
		URL:       a.config.BaseURL + "/v2" + a.campaignPath() + "/push-notifications/sendNotification",
		Headers:   a.apiKeyHeaders(),
		Body:      ymWebhookRequest{URL: callbackURL},
	})
	switch {
	case err != nil && !isConflict(err):
		return err
	case err == nil:
		if err := a.checkBody(resp); err != nil {
			return err
		}
	}
	a.webhooks.add(callbackURL)
	return nil
}

// ListWarehouses returns the campaign as the only warehouse
func (a *YMAdapter) ListWarehouses(ctx context.Context) ([]marketplace.Warehouse, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}
	return []marketplace.Warehouse{{
		ID:       a.config.CampaignID,
		Name:     ymImplicitWarehouse,
		IsActive: true,
	}}, nil
}

// ListCatalog returns the campaign offers. The offer id is both the vendor
// code and the shop SKU used as the YM alias.
func (a *YMAdapter) ListCatalog(ctx context.Context) ([]marketplace.CatalogEntry, error) {
	if err := a.ensureConfigured(); err != nil {
		return nil, err
	}

	var entries []marketplace.CatalogEntry
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(ymOffersPageLimit))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		resp, err := a.client.do(ctx, apiRequest{
			Operation: "list_catalog",
			Method:    http.MethodPost,
			URL:       a.config.BaseURL + "/v2" + a.campaignPath() + "/offers?" + query.Encode(),
			Headers:   a.apiKeyHeaders(),
			Body:      struct{}{},
		})
		if err != nil {
			return nil, err
		}
		if err := a.checkBody(resp); err != nil {
			return nil, err
		}
		var body ymOffersResponse
		if err := resp.Decode(&body); err != nil {
			return nil, err
		}
		for _, offer := range body.Result.Offers {
			if offer.OfferID != "" {
				entries = append(entries, marketplace.CatalogEntry{VendorCode: offer.OfferID, ExternalSKU: offer.OfferID})
			}
		}

		next := body.Result.Paging.NextPageToken
		if next == "" || next == pageToken {
			break
		}
		pageToken = next
	}
	return entries, nil
}
