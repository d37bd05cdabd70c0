package inventory

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrEntryNotFound    = errors.New("inventory: ledger entry not found")
	ErrNegativeQuantity = errors.New("inventory: quantity must not be negative")
	ErrInvalidAmount    = errors.New("inventory: decrement amount must be positive")
	ErrInvalidCell      = errors.New("inventory: invalid storage cell")
)

// LedgerEntry is the quantity of one item stored in one cell ("voxel").
// Quantity is never negative.
type LedgerEntry struct {
	ItemID    string
	Cell      string
	Quantity  int
	UpdatedAt time.Time
}

// NewLedgerEntry validates and creates an entry
func NewLedgerEntry(itemID, cell string, quantity int) (*LedgerEntry, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, ErrInvalidItemID
	}
	if strings.TrimSpace(cell) == "" {
		return nil, ErrInvalidCell
	}
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	return &LedgerEntry{
		ItemID:    itemID,
		Cell:      cell,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}, nil
}

// Decrement removes up to amount units, clamping at zero.
// It returns the amount actually removed and whether clamping occurred.
func (e *LedgerEntry) Decrement(amount int) (removed int, clamped bool) {
	if amount <= 0 {
		return 0, false
	}
	if amount > e.Quantity {
		removed = e.Quantity
		clamped = true
	} else {
		removed = amount
	}
	e.Quantity -= removed
	e.UpdatedAt = time.Now()
	return removed, clamped
}

// IsEmpty returns true when nothing is stored in the cell
func (e *LedgerEntry) IsEmpty() bool {
	return e.Quantity == 0
}

// Adjustment reports the effect of a decrement
type Adjustment struct {
	ItemID    string `json:"item_id"`
	Cell      string `json:"cell"`
	Requested int    `json:"requested"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
	Clamped   bool   `json:"clamped"`
}

// LedgerRepository persists ledger entries
type LedgerRepository interface {
	Find(ctx context.Context, itemID, cell string) (*LedgerEntry, error)
	// Save inserts or replaces the entry for (item, cell)
	Save(ctx context.Context, entry *LedgerEntry) error
	Delete(ctx context.Context, itemID, cell string) error
	ListByItem(ctx context.Context, itemID string) ([]LedgerEntry, error)
	// SumByItem returns the total across the item's cells, 0 when it has none
	SumByItem(ctx context.Context, itemID string) (int, error)
	// SumByItems returns totals for several items; items with no cells map to 0
	SumByItems(ctx context.Context, itemIDs []string) (map[string]int, error)
}
