package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)

// FindByID finds an item by its internal SKU
func (r *GormItemRepository) FindByID(ctx context.Context, id string) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the items that exist among ids, ordered by id
func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []string) ([]inventory.Item, error) {
	if len(ids) == 0 {
		return []inventory.Item{}, nil
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainItems(rows), nil
}

// FindByAlias resolves a platform's external SKU to the internal item
func (r *GormItemRepository) FindByAlias(ctx context.Context, platform marketplace.Platform, externalSKU string) (*inventory.Item, error) {
	column, ok := models.AliasColumn(platform)
	if !ok {
		return nil, marketplace.ErrUnknownPlatform
	}
	externalSKU = strings.TrimSpace(externalSKU)
	if externalSKU == "" {
		return nil, inventory.ErrAliasNotFound
	}
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: externalSKU}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrAliasNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListAliased returns every item listed on at least one platform
func (r *GormItemRepository) ListAliased(ctx context.Context) ([]inventory.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("wb_sku IS NOT NULL OR ozon_sku IS NOT NULL OR ym_sku IS NOT NULL").
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainItems(rows), nil
}

// ListMissingAlias returns items without an alias for the platform
func (r *GormItemRepository) ListMissingAlias(ctx context.Context, platform marketplace.Platform) ([]inventory.Item, error) {
	column, ok := models.AliasColumn(platform)
	if !ok {
		return nil, marketplace.ErrUnknownPlatform
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where(fmt.Sprintf("%s IS NULL", column)).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainItems(rows), nil
}

// SetAlias sets an item's external SKU for a platform.
// Returns ErrAliasAlreadyUsed when another item holds the same SKU.
func (r *GormItemRepository) SetAlias(ctx context.Context, itemID string, platform marketplace.Platform, externalSKU string) error {
	column, ok := models.AliasColumn(platform)
	if !ok {
		return marketplace.ErrUnknownPlatform
	}
	externalSKU = strings.TrimSpace(externalSKU)
	if externalSKU == "" {
		return inventory.ErrInvalidAlias
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64
		if err := tx.Model(&models.ItemModel{}).
			Where(clause.Eq{Column: clause.Column{Name: column}, Value: externalSKU}).
			Where("id <> ?", itemID).
			Count(&holders).Error; err != nil {
			return err
		}
		if holders > 0 {
			return inventory.ErrAliasAlreadyUsed
		}

		result := tx.Model(&models.ItemModel{}).
			Where("id = ?", itemID).
			Update(column, externalSKU)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return inventory.ErrItemNotFound
		}
		return nil
	})
}

// Save inserts or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "unit", "min_quantity", "wb_sku", "ozon_sku", "ym_sku", "updated_at"}),
		}).
		Create(model).Error
}

func toDomainItems(rows []models.ItemModel) []inventory.Item {
	items := make([]inventory.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}
