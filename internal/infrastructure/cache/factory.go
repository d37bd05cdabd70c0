package cache

import (
	"fmt"

	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClosableRunLock is a run lock holding resources that must be released
type ClosableRunLock interface {
	ordersync.RunLock
	Close() error
}

// RunLockFactory creates run locks based on configuration
type RunLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// an in-process lock. Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis lock when Redis is enabled and reachable.
// Otherwise it returns an in-process lock, or an error when fallback is off.
func (f *RunLockFactory) Create() (ClosableRunLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-process run lock")
		return NewInMemoryRunLock(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis run lock", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisRunLock(client), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for run lock but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-process run lock. "+
		"Concurrent instances may run the same platform at once.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
