package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCursorStore keeps poll cursors in the engine_settings table
type GormCursorStore struct {
	db *gorm.DB
}

// NewGormCursorStore creates a new GormCursorStore
func NewGormCursorStore(db *gorm.DB) *GormCursorStore {
	return &GormCursorStore{db: db}
}

var _ ordersync.CursorStore = (*GormCursorStore)(nil)

// Get returns the stored cursor. A value that does not parse is reported
// as absent so the platform falls back to the default lookback.
func (s *GormCursorStore) Get(ctx context.Context, platform marketplace.Platform) (time.Time, bool, error) {
	var model models.EngineSettingModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", ordersync.CursorKey(platform)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, model.Value)
	if err != nil {
		return time.Time{}, false, nil
	}
	return at.UTC(), true, nil
}

// Set stores the cursor as an RFC 3339 UTC timestamp
func (s *GormCursorStore) Set(ctx context.Context, platform marketplace.Platform, at time.Time) error {
	model := models.EngineSettingModel{
		Name:      ordersync.CursorKey(platform),
		Value:     at.UTC().Format(time.RFC3339Nano),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
}
