package persistence

import (
	"context"
	"errors"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository implements inventory.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)

// Find returns the entry for (item, cell)
func (r *GormLedgerRepository) Find(ctx context.Context, itemID, cell string) (*inventory.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND cell = ?", itemID, cell).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or replaces the entry for (item, cell)
func (r *GormLedgerRepository) Save(ctx context.Context, entry *inventory.LedgerEntry) error {
	if entry.Quantity < 0 {
		return inventory.ErrNegativeQuantity
	}
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "cell"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the entry for (item, cell)
func (r *GormLedgerRepository) Delete(ctx context.Context, itemID, cell string) error {
	result := r.db.WithContext(ctx).
		Where("item_id = ? AND cell = ?", itemID, cell).
		Delete(&models.LedgerEntryModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.ErrEntryNotFound
	}
	return nil
}

// ListByItem returns the item's entries ordered by cell
func (r *GormLedgerRepository) ListByItem(ctx context.Context, itemID string) ([]inventory.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("cell").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]inventory.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// SumByItem returns the total across the item's cells
func (r *GormLedgerRepository) SumByItem(ctx context.Context, itemID string) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("item_id = ?", itemID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// SumByItems returns totals for several items in one query
func (r *GormLedgerRepository) SumByItems(ctx context.Context, itemIDs []string) (map[string]int, error) {
	totals := make(map[string]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return totals, nil
	}
	for _, id := range itemIDs {
		totals[id] = 0
	}

	var rows []struct {
		ItemID string
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("item_id, SUM(quantity) AS total").
		Where("item_id IN ?", itemIDs).
		Group("item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ItemID] = int(row.Total)
	}
	return totals, nil
}
