package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

type lease struct {
	token     string
	expiresAt time.Time
}

// InMemoryRunLock implements ordersync.RunLock for a single process.
// It does not coordinate across instances.
type InMemoryRunLock struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

// NewInMemoryRunLock creates an in-process lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// Acquire takes key unless an unexpired lease holds it
func (l *InMemoryRunLock) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release frees key when token owns it
func (l *InMemoryRunLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[key]; ok && held.token == token {
		delete(l.leases, key)
	}
	return nil
}

// Close is a no-op; it lets callers treat both lock kinds alike
func (l *InMemoryRunLock) Close() error {
	return nil
}

var _ ordersync.RunLock = (*InMemoryRunLock)(nil)
