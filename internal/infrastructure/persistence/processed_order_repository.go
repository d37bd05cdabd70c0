package persistence

import (
	"context"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProcessedOrderRepository implements ordersync.ProcessedOrderRepository using GORM
type GormProcessedOrderRepository struct {
	db *gorm.DB
}

// NewGormProcessedOrderRepository creates a new GormProcessedOrderRepository
func NewGormProcessedOrderRepository(db *gorm.DB) *GormProcessedOrderRepository {
	return &GormProcessedOrderRepository{db: db}
}

var _ ordersync.ProcessedOrderRepository = (*GormProcessedOrderRepository)(nil)

// Exists reports whether (platform, orderID) was already applied
func (r *GormProcessedOrderRepository) Exists(ctx context.Context, platform marketplace.Platform, orderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProcessedOrderModel{}).
		Where("platform = ? AND order_id = ?", string(platform), orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the marker. A concurrent insert of the same pair loses
// with ErrOrderAlreadyApplied.
func (r *GormProcessedOrderRepository) Create(ctx context.Context, order *ordersync.ProcessedOrder) error {
	model := models.ProcessedOrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ordersync.ErrOrderAlreadyApplied
	}
	return nil
}

// ListSince returns markers processed at or after since, oldest first
func (r *GormProcessedOrderRepository) ListSince(ctx context.Context, platform marketplace.Platform, since time.Time, limit int) ([]ordersync.ProcessedOrder, error) {
	query := r.db.WithContext(ctx).
		Where("platform = ? AND processed_at >= ?", string(platform), since.UTC()).
		Order("processed_at ASC, order_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.ProcessedOrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]ordersync.ProcessedOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}
