package ecommerce

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

func newTestOzonAdapter(srv *countingServer, warehouseID string) *OzonAdapter {
	a := NewOzonAdapter(OzonConfig{
		ClientID:    "client-1",
		APIKey:      "key-1",
		WarehouseID: warehouseID,
		BaseURL:     srv.URL,
	}, testClientOptions())
	a.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }
	return a
}

func TestOzonConfig_Missing(t *testing.T) {
	assert.Equal(t, []string{"client_id", "api_key"}, OzonConfig{}.missing())
	assert.Equal(t, []string{"api_key"}, OzonConfig{ClientID: "c"}.missing())
	assert.True(t, OzonConfig{ClientID: "c", APIKey: "k"}.IsConfigured())
	assert.Equal(t, OzonBaseURL, OzonConfig{}.withDefaults().BaseURL)
}

func TestOzonAdapter_NotConfigured(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	a := NewOzonAdapter(OzonConfig{ClientID: "c", BaseURL: srv.URL}, testClientOptions())
	ctx := context.Background()

	_, err := a.ListNewOrders(ctx, time.Now())
	assert.ErrorIs(t, err, marketplace.ErrNotConfigured)
	assert.Contains(t, err.Error(), "api_key")
	_, err = a.PushStock(ctx, []marketplace.StockUpdate{{ExternalSKU: "X", Quantity: 1}})
	assert.ErrorIs(t, err, marketplace.ErrNotConfigured)
	assert.ErrorIs(t, a.RegisterWebhook(ctx, "https://hook"), marketplace.ErrNotConfigured)
	_, err = a.ListCatalog(ctx)
	assert.ErrorIs(t, err, marketplace.ErrNotConfigured)
	assert.Zero(t, srv.Calls())
}

func TestOzonAdapter_ListNewOrders_PagesByOffset(t *testing.T) {
	var bodies []string
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/posting/fbs/list", r.URL.Path)
		assert.Equal(t, "client-1", r.Header.Get("Client-Id"))
		assert.Equal(t, "key-1", r.Header.Get("Api-Key"))
		bodies = append(bodies, readBody(t, r))

		if len(bodies) == 1 {
			writeJSON(w, http.StatusOK, `{"result":{"postings":[{"posting_number":"0001-1","products":[{"sku":123456,"offer_id":"X","quantity":2},{"sku":999,"offer_id":"","quantity":1}]}],"has_next":true}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"result":{"postings":[{"posting_number":"0002-1","products":[{"sku":5,"offer_id":"Y","quantity":4},{"sku":6,"offer_id":"Z"}]}],"has_next":false}}`)
	})
	a := newTestOzonAdapter(srv, "42")

	orders, err := a.ListNewOrders(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, marketplace.Order{
		ExternalOrderID: "0001-1",
		Lines:           []marketplace.OrderLine{{ExternalSKU: "X", Quantity: 2}, {ExternalSKU: "999", Quantity: 1}},
	}, orders[0])
	assert.Equal(t, marketplace.Order{
		ExternalOrderID: "0002-1",
		Lines:           []marketplace.OrderLine{{ExternalSKU: "Y", Quantity: 4}, {ExternalSKU: "Z", Quantity: 1}},
	}, orders[1])

	require.Len(t, bodies, 2)
	assert.Equal(t, `{"dir":"ASC","filter":{"since":"2024-01-01T00:00:00Z","to":"2024-01-02T00:00:00Z","status":"awaiting_packaging"},"limit":100,"offset":0}`, bodies[0])
	assert.Equal(t, `{"dir":"ASC","filter":{"since":"2024-01-01T00:00:00Z","to":"2024-01-02T00:00:00Z","status":"awaiting_packaging"},"limit":100,"offset":1}`, bodies[1])
}

func TestOzonAdapter_PushStock_ResolvesProductIDs(t *testing.T) {
	var productListCalls atomic.Int32
	var stockBody string
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/product/list":
			productListCalls.Add(1)
			assert.Equal(t, `{"filter":{},"last_id":"","limit":1000}`, readBody(t, r))
			writeJSON(w, http.StatusOK, `{"result":{"items":[{"offer_id":"X","product_id":11}],"last_id":"","total":1}}`)
		case "/v2/products/stocks":
			stockBody = readBody(t, r)
			writeJSON(w, http.StatusOK, `{"result":[{"offer_id":"X","product_id":11,"updated":true,"errors":[]}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	a := newTestOzonAdapter(srv, "42")
	updates := []marketplace.StockUpdate{{ExternalSKU: "X", Quantity: 5}, {ExternalSKU: "Z", Quantity: 2}}

	outcome, err := a.PushStock(context.Background(), updates)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.ItemsSent)
	assert.Equal(t, []string{"Z"}, outcome.Skipped)
	assert.Equal(t, `{"stocks":[{"offer_id":"X","product_id":11,"stock":5,"warehouse_id":42}]}`, stockBody)
	assert.Equal(t, int32(1), productListCalls.Load(), "first use loads once")

	_, err = a.PushStock(context.Background(), updates)
	require.NoError(t, err)
	assert.Equal(t, int32(2), productListCalls.Load(), "unknown offer triggers one refresh")
}

func TestOzonAdapter_PushStock_AllSkipped(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/product/list", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"result":{"items":[],"last_id":"","total":0}}`)
	})
	a := newTestOzonAdapter(srv, "42")

	outcome, err := a.PushStock(context.Background(), []marketplace.StockUpdate{{ExternalSKU: "Z", Quantity: 2}})
	require.NoError(t, err)
	assert.Zero(t, outcome.ItemsSent)
	assert.Equal(t, []string{"Z"}, outcome.Skipped)
	assert.Equal(t, 1, srv.Calls())
}

func TestOzonAdapter_PushStock_PerItemErrors(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"result":[{"offer_id":"X","product_id":11,"updated":false,"errors":[{"code":"TOO_MANY_REQUESTS","message":"limit per product"}]},{"offer_id":"Y","product_id":12,"updated":true,"errors":[]}]}`)
	})
	a := newTestOzonAdapter(srv, "42")
	a.products.Replace(map[string]int64{"X": 11, "Y": 12})

	outcome, err := a.PushStock(context.Background(), []marketplace.StockUpdate{{ExternalSKU: "X", Quantity: 1}, {ExternalSKU: "Y", Quantity: 2}})
	var rej *marketplace.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "TOO_MANY_REQUESTS", rej.Code)
	assert.Equal(t, "X: limit per product", rej.Message)
	assert.Equal(t, 1, outcome.ItemsSent)
}

func TestOzonAdapter_PushStock_RequiresWarehouse(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	updates := []marketplace.StockUpdate{{ExternalSKU: "X", Quantity: 1}}

	_, err := newTestOzonAdapter(srv, "").PushStock(ctx, updates)
	assert.ErrorIs(t, err, marketplace.ErrNotConfigured)
	_, err = newTestOzonAdapter(srv, "main").PushStock(ctx, updates)
	assert.ErrorIs(t, err, marketplace.ErrNotConfigured)
	assert.Zero(t, srv.Calls())
}

func TestOzonAdapter_RegisterWebhook(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/webhook/subscribe", r.URL.Path)
		assert.Equal(t, `{"url":"https://hook","events":["new_posting","posting_status_change"]}`, readBody(t, r))
		writeJSON(w, http.StatusOK, `{"result":true}`)
	})
	a := newTestOzonAdapter(srv, "42")

	require.NoError(t, a.RegisterWebhook(context.Background(), "https://hook"))
	require.NoError(t, a.RegisterWebhook(context.Background(), "https://hook"))
	assert.Equal(t, 1, srv.Calls())
}

func TestOzonAdapter_RegisterWebhook_ConflictIsSuccess(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"code":6,"message":"already subscribed"}`)
	})
	a := newTestOzonAdapter(srv, "42")

	require.NoError(t, a.RegisterWebhook(context.Background(), "https://hook"))
	require.NoError(t, a.RegisterWebhook(context.Background(), "https://hook"))
	assert.Equal(t, 1, srv.Calls())
}

func TestOzonAdapter_ListCatalog_FeedsRegistry(t *testing.T) {
	var bodies []string
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		bodies = append(bodies, readBody(t, r))
		writeJSON(w, http.StatusOK, `{"result":{"items":[{"offer_id":"B","product_id":2},{"offer_id":"A","product_id":1}],"last_id":"","total":2}}`)
	})
	a := newTestOzonAdapter(srv, "42")

	entries, err := a.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []marketplace.CatalogEntry{
		{VendorCode: "A", ExternalSKU: "A"},
		{VendorCode: "B", ExternalSKU: "B"},
	}, entries)

	found, missing := a.products.split([]string{"B", "C"})
	assert.Equal(t, map[string]int64{"B": 2}, found)
	assert.Equal(t, []string{"C"}, missing)
	assert.Equal(t, []string{`{"filter":{},"last_id":"","limit":1000}`}, bodies)
}

func TestOzonAdapter_ListWarehouses(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	a := newTestOzonAdapter(srv, "42")

	warehouses, err := a.ListWarehouses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []marketplace.Warehouse{{ID: "42", Name: ozonImplicitWarehouse, IsActive: true}}, warehouses)
	assert.Zero(t, srv.Calls())
}
