package ordersync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appinventory "github.com/warehouse/stocksync/internal/application/inventory"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultCell is the storage cell decremented for marketplace orders
	DefaultCell = "A1"
	// DefaultOrderLockTTL bounds the lease held while one order is applied
	DefaultOrderLockTTL = 30 * time.Second
)

// ErrStoreFailure wraps dedup and cursor store errors that abort a platform run
var ErrStoreFailure = errors.New("ordersync: dedup/cursor store failure")

// Ledger is the part of the ledger service the pipeline needs
type Ledger interface {
	Decrement(ctx context.Context, itemID, cell string, amount int) (*inventory.Adjustment, error)
	Aggregate(ctx context.Context, itemID string) (int, error)
}

// Config holds pipeline settings
type Config struct {
	// DefaultCell receives every order decrement; orders carry no cell attribution
	DefaultCell string
	// Lookback is the window polled when a platform has no cursor
	Lookback time.Duration
	// OrderLockTTL is the lease on lock:order:<platform>:<id>
	OrderLockTTL time.Duration
}

// IngestionService turns marketplace orders into ledger decrements exactly
// once per (platform, order id).
type IngestionService struct {
	registry  *marketplace.Registry
	items     inventory.ItemRepository
	ledger    Ledger
	processed ordersync.ProcessedOrderRepository
	cursors   ordersync.CursorStore
	lock      ordersync.RunLock
	tallies   ordersync.TallyRepository
	notifier  appinventory.LowStockNotifier
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	registry *marketplace.Registry,
	items inventory.ItemRepository,
	ledger Ledger,
	processed ordersync.ProcessedOrderRepository,
	cursors ordersync.CursorStore,
	tallies ordersync.TallyRepository,
	cfg Config,
	logger *zap.Logger,
) *IngestionService {
	if cfg.DefaultCell == "" {
		cfg.DefaultCell = DefaultCell
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = ordersync.DefaultLookback
	}
	if cfg.OrderLockTTL <= 0 {
		cfg.OrderLockTTL = DefaultOrderLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{
		registry:  registry,
		items:     items,
		ledger:    ledger,
		processed: processed,
		cursors:   cursors,
		tallies:   tallies,
		notifier:  appinventory.NewLoggingLowStockNotifier(logger),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetNotifier replaces the low-stock notifier
func (s *IngestionService) SetNotifier(n appinventory.LowStockNotifier) {
	s.notifier = n
}

// SetLock serializes polling and webhook delivery of the same order.
// Without a lock the service assumes a single writer.
func (s *IngestionService) SetLock(lock ordersync.RunLock) {
	s.lock = lock
}

// SetMetrics attaches sync metrics
func (s *IngestionService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// DefaultCell returns the cell orders are decremented from
func (s *IngestionService) DefaultCell() string {
	return s.cfg.DefaultCell
}

func (s *IngestionService) log(ctx context.Context) *zap.Logger {
	l := s.logger
	if runID := logger.GetRunID(ctx); runID != "" {
		l = l.With(zap.String("run_id", runID))
	}
	return logger.WithTraceContext(ctx, l)
}

// RunPlatform polls one platform from its cursor and applies every new order.
// The cursor moves to the run start time unless a store failure aborted the run.
func (s *IngestionService) RunPlatform(ctx context.Context, platform marketplace.Platform) *ordersync.PlatformRunReport {
	report := ordersync.NewPlatformRunReport(platform)
	ctx, span := telemetry.StartSpan(ctx, "ordersync", "run_platform",
		attribute.String("marketplace.platform", string(platform)))
	defer span.End()
	log := s.log(ctx).With(zap.String("platform", string(platform)))

	adapter, err := s.registry.MustGet(platform)
	if err != nil {
		report.AddError("%v", err)
		report.ErrorKind = string(marketplace.ErrorKindConfiguration)
		return report
	}

	startedAt := s.now().UTC()
	stored, found, err := s.cursors.Get(ctx, platform)
	if err != nil {
		s.abort(report, log, fmt.Errorf("%w: read cursor: %v", ErrStoreFailure, err))
		telemetry.RecordError(span, err)
		return report
	}
	since := ordersync.ResolveCursor(stored, found, startedAt, s.cfg.Lookback)
	report.CursorFrom = since

	orders, err := adapter.ListNewOrders(ctx, since)
	if err != nil {
		kind := marketplace.Classify(err)
		report.AddError("list orders: %v", err)
		report.ErrorKind = string(kind)
		if kind == marketplace.ErrorKindConfiguration {
			log.Warn("Platform not configured, skipping ingestion", zap.Error(err))
		} else {
			log.Error("Failed to list orders", zap.Error(err))
		}
		telemetry.RecordError(span, err)
		return report
	}
	report.Fetched = len(orders)
	span.SetAttributes(attribute.Int("ordersync.fetched", len(orders)))

	for _, order := range orders {
		err := s.applyOrder(ctx, platform, order, report, log)
		if errors.Is(err, ordersync.ErrOrderInFlight) {
			report.AddWarning("order %s is being applied by a webhook delivery, skipped", order.ExternalOrderID)
			continue
		}
		if err != nil {
			s.abort(report, log, err)
			telemetry.RecordError(span, err)
			return report
		}
	}

	if report.Failed > 0 {
		report.AddWarning("%d order(s) not applied, cursor advanced past them", report.Failed)
	}
	if err := s.cursors.Set(ctx, platform, startedAt); err != nil {
		s.abort(report, log, fmt.Errorf("%w: write cursor: %v", ErrStoreFailure, err))
		telemetry.RecordError(span, err)
		return report
	}
	report.CursorAdvanced = true

	log.Info("Platform ingestion finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("processed", report.Processed),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("changed_items", len(report.ChangedItems)),
	)
	return report
}

// RunAll polls every registered platform in turn. A failing platform never
// stops the ones after it.
func (s *IngestionService) RunAll(ctx context.Context) []*ordersync.PlatformRunReport {
	platforms := s.registry.Platforms()
	reports := make([]*ordersync.PlatformRunReport, 0, len(platforms))
	for _, p := range platforms {
		if ctx.Err() != nil {
			report := ordersync.NewPlatformRunReport(p)
			report.Skipped = "run budget exhausted"
			reports = append(reports, report)
			continue
		}
		reports = append(reports, s.RunPlatform(ctx, p))
	}
	return reports
}

// IngestOrder applies one webhook-delivered order through the same dedup and
// decrement path as polling. The cursor is not touched.
func (s *IngestionService) IngestOrder(ctx context.Context, platform marketplace.Platform, order marketplace.Order) (*ordersync.PlatformRunReport, error) {
	if !platform.IsValid() {
		return nil, marketplace.ErrUnknownPlatform
	}
	if strings.TrimSpace(order.ExternalOrderID) == "" {
		return nil, ordersync.ErrInvalidOrderID
	}

	report := ordersync.NewPlatformRunReport(platform)
	report.Fetched = 1
	ctx, span := telemetry.StartSpan(ctx, "ordersync", "ingest_order",
		attribute.String("marketplace.platform", string(platform)),
		attribute.String("marketplace.order_id", order.ExternalOrderID))
	defer span.End()
	log := s.log(ctx).With(zap.String("platform", string(platform)))

	if err := s.applyOrder(ctx, platform, order, report, log); err != nil {
		if errors.Is(err, ordersync.ErrOrderInFlight) {
			log.Info("Order is being applied by another run", zap.String("order_id", order.ExternalOrderID))
			return report, err
		}
		s.abort(report, log, err)
		telemetry.RecordError(span, err)
		return report, err
	}
	return report, nil
}

func (s *IngestionService) abort(report *ordersync.PlatformRunReport, log *zap.Logger, err error) {
	report.AddError("%v", err)
	report.ErrorKind = string(marketplace.ErrorKindInternal)
	log.Error("Platform run aborted", zap.Error(err))
}

// applyOrder decrements every resolvable line and then writes the durable
// marker, all under the order lock. A returned error is either
// ErrOrderInFlight or a store failure that aborts the platform run; ledger
// failures are recorded on the report and the order is left unmarked.
func (s *IngestionService) applyOrder(
	ctx context.Context,
	platform marketplace.Platform,
	order marketplace.Order,
	report *ordersync.PlatformRunReport,
	log *zap.Logger,
) error {
	log = log.With(zap.String("order_id", order.ExternalOrderID))

	release, err := s.lockOrder(ctx, platform, order.ExternalOrderID)
	if err != nil {
		return err
	}
	defer release()

	exists, err := s.processed.Exists(ctx, platform, order.ExternalOrderID)
	if err != nil {
		return fmt.Errorf("%w: check order %s: %v", ErrStoreFailure, order.ExternalOrderID, err)
	}
	if exists {
		report.Duplicates++
		s.metrics.OrderDuplicate(string(platform))
		log.Info("Duplicate order skipped")
		return nil
	}

	touched := make([]*inventory.Item, 0, len(order.Lines))
	shipped := make([]int, 0, len(order.Lines))
	for _, line := range order.Lines {
		lineLog := log.With(zap.String("external_sku", line.ExternalSKU))
		if line.Quantity <= 0 {
			report.AddWarning("order %s: sku %s has non-positive quantity %d, skipped", order.ExternalOrderID, line.ExternalSKU, line.Quantity)
			continue
		}

		item, err := s.items.FindByAlias(ctx, platform, line.ExternalSKU)
		if err != nil {
			if errors.Is(err, inventory.ErrAliasNotFound) {
				report.AddWarning("order %s: sku %s has no internal item, line skipped", order.ExternalOrderID, line.ExternalSKU)
				s.metrics.LineUnresolved(string(platform))
				lineLog.Warn("Unresolvable alias, line skipped")
				continue
			}
			s.failOrder(report, lineLog, order, fmt.Errorf("resolve sku %s: %w", line.ExternalSKU, err))
			return nil
		}

		adj, err := s.ledger.Decrement(ctx, item.ID, s.cfg.DefaultCell, line.Quantity)
		if err != nil {
			s.failOrder(report, lineLog, order, fmt.Errorf("decrement %s: %w", item.ID, err))
			return nil
		}
		report.MarkChanged(item.ID)
		touched = append(touched, item)
		shipped = append(shipped, line.Quantity)
		if adj.Clamped {
			report.AddWarning("order %s: item %s in cell %s clamped at zero (requested %d, removed %d)",
				order.ExternalOrderID, item.ID, adj.Cell, adj.Requested, adj.Removed)
		}
	}

	marker, err := ordersync.NewProcessedOrder(platform, order, s.now())
	if err != nil {
		s.failOrder(report, log, order, err)
		return nil
	}
	if err := s.processed.Create(ctx, marker); err != nil {
		if errors.Is(err, ordersync.ErrOrderAlreadyApplied) {
			report.Duplicates++
			report.AddWarning("order %s was applied concurrently by another run", order.ExternalOrderID)
			log.Warn("Order marker already present after decrement")
			return nil
		}
		return fmt.Errorf("%w: mark order %s: %v", ErrStoreFailure, order.ExternalOrderID, err)
	}

	report.Processed++
	s.metrics.OrderIngested(string(platform))
	log.Info("Order applied", zap.Int("lines", len(order.Lines)), zap.Int("quantity", order.TotalQuantity()))

	s.recordTallies(ctx, platform, order, touched, shipped, report, log)

	s.checkLowStock(ctx, touched, log)
	return nil
}

// lockOrder takes lock:order:<platform>:<id>. The returned release is never nil.
func (s *IngestionService) lockOrder(ctx context.Context, platform marketplace.Platform, orderID string) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	key := ordersync.OrderLockKey(platform, orderID)
	token, ok, err := s.lock.Acquire(ctx, key, s.cfg.OrderLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire %s: %v", ErrStoreFailure, key, err)
	}
	if !ok {
		return nil, ordersync.ErrOrderInFlight
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.lock.Release(releaseCtx, key, token); err != nil {
			s.logger.Warn("Failed to release order lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// recordTallies books shipped quantities once the order marker exists, so a
// retried order never counts twice.
func (s *IngestionService) recordTallies(
	ctx context.Context,
	platform marketplace.Platform,
	order marketplace.Order,
	items []*inventory.Item,
	quantities []int,
	report *ordersync.PlatformRunReport,
	log *zap.Logger,
) {
	if s.tallies == nil {
		return
	}
	day := ordersync.TallyDate(s.now())
	for i, item := range items {
		if err := s.tallies.Add(ctx, day, platform, item.ID, quantities[i]); err != nil {
			report.AddWarning("order %s: tally for %s not recorded: %v", order.ExternalOrderID, item.ID, err)
			log.Warn("Failed to record shipment tally", zap.String("item_id", item.ID), zap.Error(err))
		}
	}
}

func (s *IngestionService) failOrder(report *ordersync.PlatformRunReport, log *zap.Logger, order marketplace.Order, err error) {
	report.Failed++
	report.AddError("order %s: %v", order.ExternalOrderID, err)
	log.Error("Order not applied, will be retried", zap.Error(err))
}

// checkLowStock notifies for items that dropped below their minimum. Failures are logged only.
func (s *IngestionService) checkLowStock(ctx context.Context, items []*inventory.Item, log *zap.Logger) {
	if s.notifier == nil {
		return
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok || item.MinQuantity <= 0 {
			continue
		}
		seen[item.ID] = struct{}{}

		total, err := s.ledger.Aggregate(ctx, item.ID)
		if err != nil {
			log.Warn("Low-stock check failed", zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		if !item.IsBelowMinimum(total) {
			continue
		}
		if err := s.notifier.LowStock(ctx, item, total); err != nil {
			log.Warn("Low-stock notification failed", zap.String("item_id", item.ID), zap.Error(err))
		}
	}
}
