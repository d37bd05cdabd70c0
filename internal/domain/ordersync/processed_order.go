package ordersync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

var (
	ErrInvalidOrderID      = errors.New("ordersync: invalid order id")
	ErrOrderAlreadyApplied = errors.New("ordersync: order already applied")
)

// ProcessedOrder marks a marketplace order as fully applied to the ledger.
// A (platform, order id) pair is applied at most once; records are never
// mutated or deleted.
type ProcessedOrder struct {
	Platform    marketplace.Platform
	OrderID     string
	Lines       []marketplace.OrderLine
	ProcessedAt time.Time
}

// NewProcessedOrder creates the durable marker for an applied order
func NewProcessedOrder(platform marketplace.Platform, order marketplace.Order, at time.Time) (*ProcessedOrder, error) {
	if !platform.IsValid() {
		return nil, marketplace.ErrUnknownPlatform
	}
	if strings.TrimSpace(order.ExternalOrderID) == "" {
		return nil, ErrInvalidOrderID
	}
	return &ProcessedOrder{
		Platform:    platform,
		OrderID:     order.ExternalOrderID,
		Lines:       order.Lines,
		ProcessedAt: at.UTC(),
	}, nil
}

// ProcessedOrderRepository is the dedup store
type ProcessedOrderRepository interface {
	// Exists reports whether (platform, orderID) was already applied
	Exists(ctx context.Context, platform marketplace.Platform, orderID string) (bool, error)

	// Create inserts the marker. Returns ErrOrderAlreadyApplied when the pair exists.
	Create(ctx context.Context, order *ProcessedOrder) error

	// ListSince returns markers created at or after the given time, oldest first
	ListSince(ctx context.Context, platform marketplace.Platform, since time.Time, limit int) ([]ProcessedOrder, error)
}
