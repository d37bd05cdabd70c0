package models

import (
	"time"

	"github.com/warehouse/stocksync/internal/domain/inventory"
)

// LedgerEntryModel is one (item, cell) row of the stock ledger
type LedgerEntryModel struct {
	ItemID    string    `gorm:"type:varchar(64);primaryKey"`
	Cell      string    `gorm:"type:varchar(64);primaryKey"`
	Quantity  int       `gorm:"not null;check:chk_ledger_quantity_non_negative,quantity >= 0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *inventory.LedgerEntry {
	return &inventory.LedgerEntry{
		ItemID:    m.ItemID,
		Cell:      m.Cell,
		Quantity:  m.Quantity,
		UpdatedAt: m.UpdatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) *LedgerEntryModel {
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return &LedgerEntryModel{
		ItemID:    e.ItemID,
		Cell:      e.Cell,
		Quantity:  e.Quantity,
		UpdatedAt: updated,
	}
}
