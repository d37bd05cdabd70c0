package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warehouse/stocksync/internal/application/stockpush"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Trigger sources
const (
	TriggerScheduler = "scheduler"
	TriggerManual    = "manual"
)

// Skip reasons reported on a platform
const (
	SkipLocked          = "locked"
	SkipLockUnavailable = "lock unavailable"
)

// DefaultLockTTL bounds a platform lease when no run timeout is configured
const DefaultLockTTL = 5 * time.Minute

// Ingestor polls one platform and applies its new orders
type Ingestor interface {
	RunPlatform(ctx context.Context, platform marketplace.Platform) *ordersync.PlatformRunReport
}

// Pusher publishes aggregated stock
type Pusher interface {
	PushChanged(ctx context.Context, itemIDs []string, platforms []marketplace.Platform) (*stockpush.Result, error)
	PushAll(ctx context.Context, platforms []marketplace.Platform) (*stockpush.Result, error)
}

// Request selects what one run does
type Request struct {
	// Platforms filters both ingestion and push. Empty means every registered platform.
	Platforms []marketplace.Platform
	// Full pushes every aliased item instead of only the items changed by this run
	Full    bool
	Trigger string
}

// Config holds coordinator settings
type Config struct {
	// LockTTL is the lease on lock:sync:<platform>, normally the run timeout
	LockTTL time.Duration
}

// Coordinator is the single entry point for scheduled and manual runs.
// Platforms are ingested one at a time under a per-platform run lock, then
// the union of changed items is pushed to every selected platform at once.
type Coordinator struct {
	registry *marketplace.Registry
	ingestor Ingestor
	pusher   Pusher
	lock     ordersync.RunLock
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	cfg      Config
	now      func() time.Time
	newRunID func() string
}

// NewCoordinator creates a new Coordinator. A nil lock runs without mutual exclusion.
func NewCoordinator(
	registry *marketplace.Registry,
	ingestor Ingestor,
	pusher Pusher,
	lock ordersync.RunLock,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		registry: registry,
		ingestor: ingestor,
		pusher:   pusher,
		lock:     lock,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
}

// SetMetrics attaches sync metrics
func (c *Coordinator) SetMetrics(m *telemetry.Metrics) {
	c.metrics = m
}

// Run executes one reconciliation. The error is non-nil only for an invalid
// request; every platform failure is reported inside the summary.
func (c *Coordinator) Run(ctx context.Context, req Request) (*ordersync.RunSummary, error) {
	platforms, err := c.platforms(req.Platforms)
	if err != nil {
		return nil, err
	}
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}

	startedAt := c.now()
	runID := c.newRunID()
	ctx, log := logger.WithRunID(ctx, c.logger, runID)
	ctx, span := telemetry.StartSpan(ctx, "reconcile", "run",
		attribute.String("reconcile.run_id", runID),
		attribute.String("reconcile.trigger", req.Trigger),
		attribute.Bool("reconcile.full", req.Full))
	defer span.End()
	log = logger.WithTraceContext(ctx, log)

	summary := ordersync.NewRunSummary(runID, startedAt)
	log.Info("Reconciliation run started",
		zap.String("trigger", req.Trigger),
		zap.Bool("full", req.Full),
		zap.Int("platforms", len(platforms)),
	)

	changed := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range platforms {
		if err := ctx.Err(); err != nil {
			r := summary.Report(p)
			r.Skipped = "run budget exhausted"
			r.AddError("%v", err)
			continue
		}
		report := c.ingest(ctx, p, log)
		summary.Platforms[p] = report
		for _, id := range report.ChangedItems {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				changed = append(changed, id)
			}
		}
	}

	c.push(ctx, summary, platforms, changed, req.Full, log)

	summary.Finish(c.now())
	c.metrics.ObserveRun(summary.FinishedAt.Sub(startedAt))
	log.Info("Reconciliation run finished",
		zap.String("summary", summary.Summary),
		zap.Int("changed_items", len(changed)),
		zap.Duration("duration", summary.FinishedAt.Sub(startedAt)),
	)
	return summary, nil
}

func (c *Coordinator) platforms(requested []marketplace.Platform) ([]marketplace.Platform, error) {
	if len(requested) == 0 {
		return c.registry.Platforms(), nil
	}
	out := make([]marketplace.Platform, 0, len(requested))
	seen := make(map[marketplace.Platform]struct{}, len(requested))
	for _, p := range requested {
		if _, ok := c.registry.Get(p); !ok {
			return nil, fmt.Errorf("%w: %s", marketplace.ErrUnknownPlatform, p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// ingest runs one platform under its lock
func (c *Coordinator) ingest(ctx context.Context, p marketplace.Platform, log *zap.Logger) *ordersync.PlatformRunReport {
	if c.lock == nil {
		return c.ingestor.RunPlatform(ctx, p)
	}

	key := ordersync.RunLockKey(p)
	token, ok, err := c.lock.Acquire(ctx, key, c.cfg.LockTTL)
	if err != nil {
		report := ordersync.NewPlatformRunReport(p)
		report.Skipped = SkipLockUnavailable
		report.ErrorKind = string(marketplace.ErrorKindInternal)
		report.AddError("acquire %s: %v", key, err)
		log.Error("Run lock unavailable, platform skipped", zap.String("platform", string(p)), zap.Error(err))
		return report
	}
	if !ok {
		report := ordersync.NewPlatformRunReport(p)
		report.Skipped = SkipLocked
		log.Info("Platform is being ingested by another run, skipped", zap.String("platform", string(p)))
		return report
	}
	defer func() {
		// release must survive a cancelled run context
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.lock.Release(releaseCtx, key, token); err != nil {
			log.Warn("Failed to release run lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return c.ingestor.RunPlatform(ctx, p)
}

func (c *Coordinator) push(
	ctx context.Context,
	summary *ordersync.RunSummary,
	platforms []marketplace.Platform,
	changed []string,
	full bool,
	log *zap.Logger,
) {
	if !full && len(changed) == 0 {
		for _, p := range platforms {
			res := marketplace.NothingToSend(p)
			summary.Report(p).Push = &res
		}
		return
	}

	var (
		result *stockpush.Result
		err    error
	)
	if full {
		result, err = c.pusher.PushAll(ctx, platforms)
	} else {
		result, err = c.pusher.PushChanged(ctx, changed, platforms)
	}
	if err != nil {
		log.Error("Stock push aborted", zap.Error(err))
		for _, p := range platforms {
			r := summary.Report(p)
			r.AddError("push: %v", err)
			if r.ErrorKind == "" {
				r.ErrorKind = string(marketplace.ErrorKindInternal)
			}
		}
		return
	}

	for _, res := range result.Results {
		r := summary.Report(res.Platform)
		r.Push = &res
		r.Sent = res.ItemsSent
		if !res.Success {
			r.AddError("push: %s", res.Error)
			if r.ErrorKind == "" {
				r.ErrorKind = string(res.ErrorKind)
			}
		}
	}
}
