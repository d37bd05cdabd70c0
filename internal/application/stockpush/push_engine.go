package stockpush

import (
	"context"
	"fmt"
	"strings"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Push outcome labels
const (
	OutcomeSuccess       = "success"
	OutcomeFailed        = "failed"
	OutcomeNothingToSend = "nothing_to_send"
)

// Aggregator reads per-item totals across cells
type Aggregator interface {
	AggregateMany(ctx context.Context, itemIDs []string) (map[string]int, error)
}

// Result is the outcome of one push fan-out
type Result struct {
	Results []marketplace.PlatformSyncResult `json:"results"`
	Summary string                           `json:"summary"`
}

// ForPlatform returns the result for p
func (r *Result) ForPlatform(p marketplace.Platform) (marketplace.PlatformSyncResult, bool) {
	for _, res := range r.Results {
		if res.Platform == p {
			return res, true
		}
	}
	return marketplace.PlatformSyncResult{}, false
}

// Engine pushes aggregated ledger totals to every platform an item is listed on.
// Platforms are pushed concurrently and independently.
type Engine struct {
	registry *marketplace.Registry
	items    inventory.ItemRepository
	ledger   Aggregator
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewEngine creates a new push engine
func NewEngine(registry *marketplace.Registry, items inventory.ItemRepository, ledger Aggregator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, items: items, ledger: ledger, logger: logger}
}

// SetMetrics attaches sync metrics
func (e *Engine) SetMetrics(m *telemetry.Metrics) {
	e.metrics = m
}

// PushChanged pushes the given items. Empty platforms means every registered platform.
func (e *Engine) PushChanged(ctx context.Context, itemIDs []string, platforms []marketplace.Platform) (*Result, error) {
	items, err := e.items.FindByIDs(ctx, dedupe(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("load changed items: %w", err)
	}
	return e.Push(ctx, items, platforms)
}

// PushAll pushes every item with at least one alias
func (e *Engine) PushAll(ctx context.Context, platforms []marketplace.Platform) (*Result, error) {
	items, err := e.items.ListAliased(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aliased items: %w", err)
	}
	return e.Push(ctx, items, platforms)
}

// Push aggregates the items once and fans out one PushStock per platform.
// A platform with no aliased items gets a "nothing to send" result and no call.
func (e *Engine) Push(ctx context.Context, items []inventory.Item, platforms []marketplace.Platform) (*Result, error) {
	if len(platforms) == 0 {
		platforms = e.registry.Platforms()
	}
	ctx, span := telemetry.StartSpan(ctx, "stockpush", "push",
		attribute.Int("stockpush.items", len(items)),
		attribute.Int("stockpush.platforms", len(platforms)))
	defer span.End()

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	totals, err := e.ledger.AggregateMany(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("aggregate ledger: %w", err)
	}

	results := make([]marketplace.PlatformSyncResult, len(platforms))
	var g errgroup.Group
	for i, p := range platforms {
		updates := stockUpdates(items, totals, p)
		g.Go(func() error {
			results[i] = e.pushPlatform(ctx, p, updates)
			return nil
		})
	}
	_ = g.Wait()

	return &Result{Results: results, Summary: Summarize(results)}, nil
}

func (e *Engine) pushPlatform(ctx context.Context, p marketplace.Platform, updates []marketplace.StockUpdate) marketplace.PlatformSyncResult {
	log := logger.WithTraceContext(ctx, e.logger).With(zap.String("platform", string(p)))

	adapter, err := e.registry.MustGet(p)
	if err != nil {
		e.metrics.PushOutcome(string(p), OutcomeFailed)
		return marketplace.FailedResult(p, err)
	}
	if len(updates) == 0 {
		e.metrics.PushOutcome(string(p), OutcomeNothingToSend)
		return marketplace.NothingToSend(p)
	}

	outcome, err := adapter.PushStock(ctx, updates)
	if err != nil {
		result := marketplace.FailedResult(p, err)
		if outcome != nil {
			result.ItemsSent = outcome.ItemsSent
			result.Unaddressed = outcome.Skipped
		}
		e.metrics.PushOutcome(string(p), OutcomeFailed)
		if result.ErrorKind == marketplace.ErrorKindConfiguration {
			log.Warn("Stock push skipped, platform not configured", zap.Error(err))
		} else {
			log.Error("Stock push failed", zap.String("error_kind", string(result.ErrorKind)), zap.Error(err))
		}
		return result
	}

	result := marketplace.PlatformSyncResult{
		Platform:    p,
		Success:     true,
		ItemsSent:   outcome.ItemsSent,
		Unaddressed: outcome.Skipped,
		Message:     fmt.Sprintf("sent %d item(s)", outcome.ItemsSent),
	}
	if len(outcome.Skipped) > 0 {
		result.Message += fmt.Sprintf(", %d not addressable", len(outcome.Skipped))
	}
	e.metrics.PushOutcome(string(p), OutcomeSuccess)
	log.Info("Stock pushed", zap.Int("items_sent", outcome.ItemsSent), zap.Int("unaddressed", len(outcome.Skipped)))
	return result
}

// stockUpdates maps items listed on p to absolute quantities
func stockUpdates(items []inventory.Item, totals map[string]int, p marketplace.Platform) []marketplace.StockUpdate {
	updates := make([]marketplace.StockUpdate, 0, len(items))
	for _, item := range items {
		sku, ok := item.Alias(p)
		if !ok {
			continue
		}
		updates = append(updates, marketplace.StockUpdate{ExternalSKU: sku, Quantity: max(totals[item.ID], 0)})
	}
	return updates
}

// Summarize renders results as one line per platform
func Summarize(results []marketplace.PlatformSyncResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		name := strings.ToUpper(string(r.Platform))
		switch {
		case r.Skipped:
			parts = append(parts, name+": nothing to send")
		case r.Success:
			parts = append(parts, fmt.Sprintf("%s: sent %d", name, r.ItemsSent))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed (%s) %s", name, r.ErrorKind, r.Error))
		}
	}
	return strings.Join(parts, "; ")
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
