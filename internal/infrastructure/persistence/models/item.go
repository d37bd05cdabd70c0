package models

import (
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// ItemModel is the persistence model for a catalog item.
// Aliases are NULL when the item is not listed on the platform.
type ItemModel struct {
	ID          string  `gorm:"type:varchar(64);primaryKey"`
	Name        string  `gorm:"type:varchar(255);not null;default:''"`
	Unit        string  `gorm:"type:varchar(16);not null;default:'pcs'"`
	MinQuantity int     `gorm:"not null;default:0"`
	WBSKU       *string `gorm:"column:wb_sku;type:varchar(64);uniqueIndex:idx_items_wb_sku"`
	OzonSKU     *string `gorm:"column:ozon_sku;type:varchar(64);uniqueIndex:idx_items_ozon_sku"`
	YMSKU       *string `gorm:"column:ym_sku;type:varchar(64);uniqueIndex:idx_items_ym_sku"`
	TimestampModel
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// AliasColumn returns the column holding a platform's external SKU
func AliasColumn(p marketplace.Platform) (string, bool) {
	switch p {
	case marketplace.PlatformWB:
		return "wb_sku", true
	case marketplace.PlatformOzon:
		return "ozon_sku", true
	case marketplace.PlatformYM:
		return "ym_sku", true
	default:
		return "", false
	}
}

// ToDomain converts the persistence model to a domain Item
func (m *ItemModel) ToDomain() *inventory.Item {
	item := &inventory.Item{
		ID:          m.ID,
		Name:        m.Name,
		Unit:        m.Unit,
		MinQuantity: m.MinQuantity,
		Aliases:     make(map[marketplace.Platform]string),
	}
	for p, sku := range map[marketplace.Platform]*string{
		marketplace.PlatformWB:   m.WBSKU,
		marketplace.PlatformOzon: m.OzonSKU,
		marketplace.PlatformYM:   m.YMSKU,
	} {
		if v := derefString(sku); v != "" {
			item.Aliases[p] = v
		}
	}
	return item
}

// FromDomain populates the model from a domain Item
func (m *ItemModel) FromDomain(item *inventory.Item) {
	m.ID = item.ID
	m.Name = item.Name
	m.Unit = item.Unit
	if m.Unit == "" {
		m.Unit = "pcs"
	}
	m.MinQuantity = item.MinQuantity
	wb, _ := item.Alias(marketplace.PlatformWB)
	ozon, _ := item.Alias(marketplace.PlatformOzon)
	ym, _ := item.Alias(marketplace.PlatformYM)
	m.WBSKU = nullableString(wb)
	m.OzonSKU = nullableString(ozon)
	m.YMSKU = nullableString(ym)
}

// ItemModelFromDomain creates a new persistence model from a domain Item
func ItemModelFromDomain(item *inventory.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(item)
	return m
}
