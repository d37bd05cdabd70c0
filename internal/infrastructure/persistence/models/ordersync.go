package models

import (
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

// OrderLineModel is the JSON shape of a stored order line
type OrderLineModel struct {
	ExternalSKU string `json:"sku"`
	Quantity    int    `json:"qty"`
}

// ProcessedOrderModel is the dedup marker of an applied order
type ProcessedOrderModel struct {
	Platform    string           `gorm:"type:varchar(16);primaryKey;index:idx_processed_orders_platform_at,priority:1"`
	OrderID     string           `gorm:"type:varchar(128);primaryKey"`
	Lines       []OrderLineModel `gorm:"type:text;serializer:json"`
	ProcessedAt time.Time        `gorm:"not null;index:idx_processed_orders_platform_at,priority:2"`
}

// TableName returns the table name for GORM
func (ProcessedOrderModel) TableName() string {
	return "processed_orders"
}

// ToDomain converts the persistence model to a domain ProcessedOrder
func (m *ProcessedOrderModel) ToDomain() *ordersync.ProcessedOrder {
	lines := make([]marketplace.OrderLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = marketplace.OrderLine{ExternalSKU: l.ExternalSKU, Quantity: l.Quantity}
	}
	return &ordersync.ProcessedOrder{
		Platform:    marketplace.Platform(m.Platform),
		OrderID:     m.OrderID,
		Lines:       lines,
		ProcessedAt: m.ProcessedAt.UTC(),
	}
}

// ProcessedOrderModelFromDomain creates a persistence model from a domain ProcessedOrder
func ProcessedOrderModelFromDomain(o *ordersync.ProcessedOrder) *ProcessedOrderModel {
	lines := make([]OrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineModel{ExternalSKU: l.ExternalSKU, Quantity: l.Quantity}
	}
	return &ProcessedOrderModel{
		Platform:    string(o.Platform),
		OrderID:     o.OrderID,
		Lines:       lines,
		ProcessedAt: o.ProcessedAt.UTC(),
	}
}

// EngineSettingModel is a key/value row of engine state such as poll cursors
type EngineSettingModel struct {
	Name      string    `gorm:"type:varchar(128);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EngineSettingModel) TableName() string {
	return "engine_settings"
}

// ShipmentTallyModel accumulates units taken out per day, platform and item
type ShipmentTallyModel struct {
	Date         string `gorm:"type:varchar(10);primaryKey"`
	Platform     string `gorm:"type:varchar(16);primaryKey"`
	ItemID       string `gorm:"type:varchar(64);primaryKey"`
	DecreasedQty int    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentTallyModel) TableName() string {
	return "shipment_tallies"
}

// ToDomain converts the persistence model to a domain ShipmentTally
func (m *ShipmentTallyModel) ToDomain() ordersync.ShipmentTally {
	return ordersync.ShipmentTally{
		Date:         m.Date,
		Platform:     marketplace.Platform(m.Platform),
		ItemID:       m.ItemID,
		DecreasedQty: m.DecreasedQty,
	}
}
