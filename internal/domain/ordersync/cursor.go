package ordersync

import (
	"context"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// DefaultLookback is used when a platform has never been polled
const DefaultLookback = 24 * time.Hour

// CursorKey returns the persisted config key holding a platform's cursor
func CursorKey(p marketplace.Platform) string {
	return "last_poll_" + string(p)
}

// CursorStore persists the last successful poll time per platform
type CursorStore interface {
	// Get returns the cursor and whether one was stored
	Get(ctx context.Context, platform marketplace.Platform) (time.Time, bool, error)
	Set(ctx context.Context, platform marketplace.Platform, at time.Time) error
}

// ResolveCursor returns the stored cursor or now minus lookback when absent
func ResolveCursor(stored time.Time, found bool, now time.Time, lookback time.Duration) time.Time {
	if !found || stored.IsZero() {
		if lookback <= 0 {
			lookback = DefaultLookback
		}
		return now.Add(-lookback)
	}
	return stored
}
