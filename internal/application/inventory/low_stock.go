package inventory

import (
	"context"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"go.uber.org/zap"
)

// LowStockNotifier is told when an item drops below its minimum quantity.
// Implementations can forward to chat bots, email and so on.
type LowStockNotifier interface {
	LowStock(ctx context.Context, item *inventory.Item, total int) error
}

// LoggingLowStockNotifier writes low-stock alarms to the log
type LoggingLowStockNotifier struct {
	logger *zap.Logger
}

// NewLoggingLowStockNotifier creates a new LoggingLowStockNotifier
func NewLoggingLowStockNotifier(logger *zap.Logger) *LoggingLowStockNotifier {
	return &LoggingLowStockNotifier{logger: logger}
}

// LowStock logs the alarm
func (n *LoggingLowStockNotifier) LowStock(_ context.Context, item *inventory.Item, total int) error {
	n.logger.Warn("Low stock alarm",
		zap.String("item_id", item.ID),
		zap.Int("total", total),
		zap.Int("min_quantity", item.MinQuantity),
	)
	return nil
}
