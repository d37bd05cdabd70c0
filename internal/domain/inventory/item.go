package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

var (
	ErrItemNotFound     = errors.New("inventory: item not found")
	ErrAliasNotFound    = errors.New("inventory: no item for external sku")
	ErrInvalidItemID    = errors.New("inventory: invalid item id")
	ErrInvalidAlias     = errors.New("inventory: invalid alias")
	ErrAliasAlreadyUsed = errors.New("inventory: alias already mapped to another item")
)

// Item is a sellable unit identified by the internal SKU.
// Catalog management owns items; the engine only reads them and back-fills aliases.
type Item struct {
	ID          string
	Name        string
	Unit        string
	MinQuantity int
	// Aliases holds the external identifier per platform. A missing key means
	// the item is not listed on that platform.
	Aliases map[marketplace.Platform]string
}

// NewItem creates an item with no aliases
func NewItem(id, name string) (*Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidItemID
	}
	return &Item{
		ID:      id,
		Name:    name,
		Unit:    "pcs",
		Aliases: make(map[marketplace.Platform]string),
	}, nil
}

// Alias returns the external SKU for a platform
func (i *Item) Alias(p marketplace.Platform) (string, bool) {
	if i.Aliases == nil {
		return "", false
	}
	sku, ok := i.Aliases[p]
	if !ok || sku == "" {
		return "", false
	}
	return sku, true
}

// HasAnyAlias reports whether the item is listed on at least one platform
func (i *Item) HasAnyAlias() bool {
	for _, p := range marketplace.AllPlatforms() {
		if _, ok := i.Alias(p); ok {
			return true
		}
	}
	return false
}

// SetAlias sets the external SKU for a platform
func (i *Item) SetAlias(p marketplace.Platform, sku string) error {
	if !p.IsValid() {
		return marketplace.ErrUnknownPlatform
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return ErrInvalidAlias
	}
	if i.Aliases == nil {
		i.Aliases = make(map[marketplace.Platform]string)
	}
	i.Aliases[p] = sku
	return nil
}

// IsBelowMinimum reports whether total is under the item's low-stock threshold
func (i *Item) IsBelowMinimum(total int) bool {
	return i.MinQuantity > 0 && total < i.MinQuantity
}

// ItemRepository reads items and maintains their platform aliases
type ItemRepository interface {
	FindByID(ctx context.Context, id string) (*Item, error)
	FindByIDs(ctx context.Context, ids []string) ([]Item, error)
	// FindByAlias resolves a platform's external SKU to the internal item
	FindByAlias(ctx context.Context, platform marketplace.Platform, externalSKU string) (*Item, error)
	// ListAliased returns every item with at least one platform alias
	ListAliased(ctx context.Context) ([]Item, error)
	// ListMissingAlias returns items without an alias for the platform
	ListMissingAlias(ctx context.Context, platform marketplace.Platform) ([]Item, error)
	SetAlias(ctx context.Context, itemID string, platform marketplace.Platform, externalSKU string) error
	Save(ctx context.Context, item *Item) error
}
