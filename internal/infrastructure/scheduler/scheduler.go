package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"go.uber.org/zap"
)

// Runner executes one reconciliation run
type Runner interface {
	Run(ctx context.Context) (*ordersync.RunSummary, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context) (*ordersync.RunSummary, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context) (*ordersync.RunSummary, error) {
	return f(ctx)
}

// Config holds scheduler configuration
type Config struct {
	// Interval between run starts
	Interval time.Duration
	// RunTimeout is the wall-clock budget of one run
	RunTimeout time.Duration
	// RunOnStart triggers a run immediately instead of waiting one interval
	RunOnStart bool
	// MaxHistory is how many run records are kept in memory
	MaxHistory int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:   15 * time.Minute,
		RunTimeout: 5 * time.Minute,
		RunOnStart: true,
		MaxHistory: 50,
	}
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.Interval <= 0 || c.RunTimeout <= 0 {
		return fmt.Errorf("%w: interval and run timeout must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout > c.Interval {
		return fmt.Errorf("%w: run timeout %s exceeds interval %s", ErrInvalidConfig, c.RunTimeout, c.Interval)
	}
	return nil
}

// RunRecord is one finished scheduled run
type RunRecord struct {
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration"`
	Summary   *ordersync.RunSummary `json:"summary,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Scheduler triggers reconciliation runs on a fixed interval.
// Runs never overlap; a tick that arrives during a run is dropped.
type Scheduler struct {
	config Config
	runner Runner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool

	historyMu sync.RWMutex
	history   []RunRecord
}

// NewScheduler creates a new scheduler
func NewScheduler(config Config, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.MaxHistory <= 0 {
		config.MaxHistory = DefaultConfig().MaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:  config,
		runner:  runner,
		logger:  logger,
		history: make([]RunRecord, 0, config.MaxHistory),
	}, nil
}

// Start starts the run loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		_ = s.RunNow(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunNow(ctx); err != nil {
				s.logger.Warn("Scheduled run dropped", zap.Error(err))
			}
		}
	}
}

// RunNow executes one run within the run timeout. It returns
// ErrRunInProgress when another run is executing.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	started := time.Now()
	summary, err := s.runner.Run(runCtx)
	record := RunRecord{StartedAt: started, Duration: time.Since(started), Summary: summary}
	if err != nil {
		record.Error = err.Error()
		s.logger.Error("Scheduled run failed", zap.Error(err))
	} else if summary != nil {
		s.logger.Info("Scheduled run completed",
			zap.String("run_id", summary.RunID),
			zap.String("summary", summary.Summary),
			zap.Duration("duration", record.Duration),
		)
	}
	s.addToHistory(record)
	return err
}

// addToHistory records a finished run, newest first
func (s *Scheduler) addToHistory(record RunRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]RunRecord{record}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// History returns up to limit recent runs, newest first
func (s *Scheduler) History(limit int) []RunRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]RunRecord, limit)
	copy(result, s.history[:limit])
	return result
}
