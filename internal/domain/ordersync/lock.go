package ordersync

import (
	"context"
	"errors"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// RunLockKey returns the lock key serializing runs for a platform
func RunLockKey(p marketplace.Platform) string {
	return "lock:sync:" + string(p)
}

// ErrOrderInFlight means another run holds the order lock
var ErrOrderInFlight = errors.New("ordersync: order is being applied by another run")

// OrderLockKey returns the lock key serializing the application of one order
// across polling and webhook delivery
func OrderLockKey(p marketplace.Platform, orderID string) string {
	return "lock:order:" + string(p) + ":" + orderID
}

// RunLock is a best-effort mutual exclusion shared by every engine instance.
// A lease expires after its TTL so a crashed holder cannot block forever.
type RunLock interface {
	// Acquire takes key for ttl. ok is false when another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release frees key if token still owns it
	Release(ctx context.Context, key, token string) error
}
