package marketplace

import (
	"context"
	"time"
)

// OrderLine is one line item of a marketplace order, keyed by the
// marketplace's own product identifier.
type OrderLine struct {
	ExternalSKU string `json:"external_sku"`
	Quantity    int    `json:"quantity"`
}

// Order is a marketplace order normalized to the shape the ingestion
// pipeline consumes, regardless of whether it was polled or pushed by webhook.
type Order struct {
	ExternalOrderID string      `json:"external_order_id"`
	Lines           []OrderLine `json:"lines"`
}

// TotalQuantity returns the sum of line quantities
func (o Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

// StockUpdate is the absolute available quantity to publish for one external SKU
type StockUpdate struct {
	ExternalSKU string `json:"external_sku"`
	Quantity    int    `json:"quantity"`
}

// PushOutcome describes what an adapter actually sent.
// Skipped lists SKUs the adapter could not address on the platform
// (for example an Ozon offer with no known product id).
type PushOutcome struct {
	ItemsSent int
	Skipped   []string
}

// Warehouse is a fulfillment warehouse exposed by a seller account
type Warehouse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// CatalogEntry links a seller-side vendor code to the platform identifier
// used as the SKU alias for that platform.
type CatalogEntry struct {
	VendorCode  string `json:"vendor_code"`
	ExternalSKU string `json:"external_sku"`
}

// Adapter is the uniform capability set every marketplace client implements.
//
// All operations return ErrNotConfigured without any network call when the
// adapter lacks credentials. Network failures wrap ErrPlatformUnavailable and
// application-level rejections are *RejectionError values.
type Adapter interface {
	// Platform returns the platform this adapter talks to
	Platform() Platform

	// IsConfigured reports whether the credentials needed for API calls are present
	IsConfigured() bool

	// ListNewOrders returns orders created since the given time, paging transparently
	ListNewOrders(ctx context.Context, since time.Time) ([]Order, error)

	// PushStock publishes absolute quantities for the given SKUs
	PushStock(ctx context.Context, updates []StockUpdate) (*PushOutcome, error)

	// RegisterWebhook subscribes callbackURL to new-order notifications.
	// Registering the same URL twice is not an error.
	RegisterWebhook(ctx context.Context, callbackURL string) error

	// ListWarehouses returns the seller's warehouses. Platforms without a
	// warehouse listing return the single configured warehouse.
	ListWarehouses(ctx context.Context) ([]Warehouse, error)

	// ListCatalog returns the seller catalog as vendor code to alias pairs
	ListCatalog(ctx context.Context) ([]CatalogEntry, error)
}

// Registry holds the configured adapters keyed by platform
type Registry struct {
	adapters map[Platform]Adapter
}

// NewRegistry creates a registry from the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Get returns the adapter for a platform
func (r *Registry) Get(p Platform) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// MustGet returns the adapter for a platform or ErrUnknownPlatform
func (r *Registry) MustGet(p Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, ErrUnknownPlatform
	}
	return a, nil
}

// Platforms returns the registered platforms in AllPlatforms order
func (r *Registry) Platforms() []Platform {
	result := make([]Platform, 0, len(r.adapters))
	for _, p := range AllPlatforms() {
		if _, ok := r.adapters[p]; ok {
			result = append(result, p)
		}
	}
	return result
}
