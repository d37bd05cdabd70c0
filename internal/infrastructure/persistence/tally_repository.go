package persistence

import (
	"context"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTallyRepository implements ordersync.TallyRepository using GORM
type GormTallyRepository struct {
	db *gorm.DB
}

// NewGormTallyRepository creates a new GormTallyRepository
func NewGormTallyRepository(db *gorm.DB) *GormTallyRepository {
	return &GormTallyRepository{db: db}
}

var _ ordersync.TallyRepository = (*GormTallyRepository)(nil)

// Add increments the (date, platform, item) row by qty in a single upsert
func (r *GormTallyRepository) Add(ctx context.Context, date string, platform marketplace.Platform, itemID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	model := models.ShipmentTallyModel{
		Date:         date,
		Platform:     string(platform),
		ItemID:       itemID,
		DecreasedQty: qty,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}, {Name: "platform"}, {Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"decreased_qty": gorm.Expr("shipment_tallies.decreased_qty + ?", qty),
			}),
		}).
		Create(&model).Error
}

// ListByDate returns the day's tallies ordered by platform and item
func (r *GormTallyRepository) ListByDate(ctx context.Context, date string) ([]ordersync.ShipmentTally, error) {
	var rows []models.ShipmentTallyModel
	if err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("platform, item_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tallies := make([]ordersync.ShipmentTally, len(rows))
	for i := range rows {
		tallies[i] = rows[i].ToDomain()
	}
	return tallies, nil
}
