package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"go.uber.org/zap"
)

// CellQuantity is one cell's contribution to an item total
type CellQuantity struct {
	Cell     string `json:"cell"`
	Quantity int    `json:"quantity"`
}

// StockView is the aggregate and per-cell breakdown of one item
type StockView struct {
	ItemID string         `json:"item_id"`
	Total  int            `json:"total"`
	Cells  []CellQuantity `json:"cells"`
}

// LedgerService is the only writer of stock truth.
// Writes are last-write-wins per (item, cell).
type LedgerService struct {
	repo   inventory.LedgerRepository
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo inventory.LedgerRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, logger: logger}
}

// Decrement removes amount units of item from cell, clamping at zero.
// Clamping is reported in the Adjustment, not as an error.
func (s *LedgerService) Decrement(ctx context.Context, itemID, cell string, amount int) (*inventory.Adjustment, error) {
	if amount <= 0 {
		return nil, inventory.ErrInvalidAmount
	}
	if strings.TrimSpace(cell) == "" {
		return nil, inventory.ErrInvalidCell
	}

	entry, err := s.repo.Find(ctx, itemID, cell)
	if err != nil {
		if !errors.Is(err, inventory.ErrEntryNotFound) {
			return nil, fmt.Errorf("load ledger entry: %w", err)
		}
		entry, err = inventory.NewLedgerEntry(itemID, cell, 0)
		if err != nil {
			return nil, err
		}
	}

	removed, clamped := entry.Decrement(amount)
	adj := &inventory.Adjustment{
		ItemID:    itemID,
		Cell:      cell,
		Requested: amount,
		Removed:   removed,
		Remaining: entry.Quantity,
		Clamped:   clamped,
	}

	if entry.IsEmpty() {
		if err := s.repo.Delete(ctx, itemID, cell); err != nil && !errors.Is(err, inventory.ErrEntryNotFound) {
			return nil, fmt.Errorf("delete empty ledger entry: %w", err)
		}
	} else if err := s.repo.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save ledger entry: %w", err)
	}

	if clamped {
		s.logger.Warn("Decrement clamped at zero",
			zap.String("item_id", itemID),
			zap.String("cell", cell),
			zap.Int("requested", amount),
			zap.Int("removed", removed),
		)
	}
	return adj, nil
}

// SetQuantity overwrites the quantity of item in cell. Zero removes the entry.
func (s *LedgerService) SetQuantity(ctx context.Context, itemID, cell string, quantity int) error {
	if quantity < 0 {
		return inventory.ErrNegativeQuantity
	}
	if quantity == 0 {
		if err := s.repo.Delete(ctx, itemID, cell); err != nil && !errors.Is(err, inventory.ErrEntryNotFound) {
			return err
		}
		return nil
	}
	entry, err := inventory.NewLedgerEntry(itemID, cell, quantity)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, entry)
}

// Aggregate returns the total quantity of an item across its cells
func (s *LedgerService) Aggregate(ctx context.Context, itemID string) (int, error) {
	return s.repo.SumByItem(ctx, itemID)
}

// AggregateMany returns totals for several items; unknown items map to 0
func (s *LedgerService) AggregateMany(ctx context.Context, itemIDs []string) (map[string]int, error) {
	if len(itemIDs) == 0 {
		return map[string]int{}, nil
	}
	totals, err := s.repo.SumByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range itemIDs {
		if _, ok := totals[id]; !ok {
			totals[id] = 0
		}
	}
	return totals, nil
}

// View returns the per-cell breakdown of an item
func (s *LedgerService) View(ctx context.Context, itemID string) (*StockView, error) {
	entries, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	view := &StockView{ItemID: itemID, Cells: make([]CellQuantity, 0, len(entries))}
	for _, e := range entries {
		view.Total += e.Quantity
		view.Cells = append(view.Cells, CellQuantity{Cell: e.Cell, Quantity: e.Quantity})
	}
	return view, nil
}
