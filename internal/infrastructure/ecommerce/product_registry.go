package ecommerce

import (
	"context"
	"sync"
)

// ProductLoader fetches the full offer_id to product_id mapping
type ProductLoader func(ctx context.Context) (map[string]int64, error)

// ProductRegistry caches Ozon product ids by offer id. It is populated on
// first use and reloaded on Refresh.
type ProductRegistry struct {
	mu     sync.RWMutex
	ids    map[string]int64
	loaded bool
	load   ProductLoader
}

// NewProductRegistry creates an empty registry backed by load
func NewProductRegistry(load ProductLoader) *ProductRegistry {
	return &ProductRegistry{ids: make(map[string]int64), load: load}
}

// Refresh replaces the cached mapping with a fresh load
func (r *ProductRegistry) Refresh(ctx context.Context) error {
	ids, err := r.load(ctx)
	if err != nil {
		return err
	}
	r.Replace(ids)
	return nil
}

// Replace installs ids as the current mapping
func (r *ProductRegistry) Replace(ids map[string]int64) {
	copied := make(map[string]int64, len(ids))
	for k, v := range ids {
		copied[k] = v
	}
	r.mu.Lock()
	r.ids = copied
	r.loaded = true
	r.mu.Unlock()
}

// Resolve maps offers to product ids. An unloaded registry is loaded first;
// offers still missing afterwards trigger exactly one refresh, unless the
// initial load just happened. Offers that stay unknown are returned as missing.
func (r *ProductRegistry) Resolve(ctx context.Context, offerIDs []string) (map[string]int64, []string, error) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()

	refreshed := false
	if !loaded {
		if err := r.Refresh(ctx); err != nil {
			return nil, nil, err
		}
		refreshed = true
	}

	found, missing := r.split(offerIDs)
	if len(missing) > 0 && !refreshed {
		if err := r.Refresh(ctx); err != nil {
			return nil, nil, err
		}
		found, missing = r.split(offerIDs)
	}
	return found, missing, nil
}

func (r *ProductRegistry) split(offerIDs []string) (map[string]int64, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make(map[string]int64, len(offerIDs))
	var missing []string
	for _, offer := range offerIDs {
		if id, ok := r.ids[offer]; ok {
			found[offer] = id
		} else {
			missing = append(missing, offer)
		}
	}
	return found, missing
}
