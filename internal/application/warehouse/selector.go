package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoWarehouse means the account lists no warehouse and none is configured
	ErrNoWarehouse = errors.New("warehouse: no warehouse available")
	// ErrSampleFailed means no listed warehouse could be read
	ErrSampleFailed = errors.New("warehouse: no warehouse stock could be read")
)

// Selection sources
const (
	SourceConfigured = "configured"
	SourceHeuristic  = "heuristic"
	SourceFallback   = "fallback"
)

const (
	// DefaultMaxSampleSKUs bounds the representative sample of SKUs
	DefaultMaxSampleSKUs = 100
	sampleConcurrency    = 4
)

// StockReader is the part of the WB adapter the selector observes
type StockReader interface {
	ListWarehouses(ctx context.Context) ([]marketplace.Warehouse, error)
	ReadWarehouseStock(ctx context.Context, warehouseID string, skus []string) (map[string]int, error)
	ConfiguredWarehouseID() string
}

// Selection is the outcome of one heuristic run
type Selection struct {
	WarehouseID   string         `json:"warehouse_id"`
	WarehouseName string         `json:"warehouse_name,omitempty"`
	Source        string         `json:"source"`
	SampleSKUs    []string       `json:"sample_skus"`
	Scores        []Score        `json:"scores"`
	SKUTotals     map[string]int `json:"sku_totals"`
}

// Selector resolves the WB warehouse when none is configured. The chosen id
// is cached until Refresh replaces it.
type Selector struct {
	reader        StockReader
	items         inventory.ItemRepository
	logger        *zap.Logger
	maxSampleSKUs int

	mu     sync.Mutex
	cached string
}

// NewSelector creates a new selector. items supplies the SKU sample from WB aliases.
func NewSelector(reader StockReader, items inventory.ItemRepository, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		reader:        reader,
		items:         items,
		logger:        logger,
		maxSampleSKUs: DefaultMaxSampleSKUs,
	}
}

// ResolveWarehouse returns the configured id, the cached choice, or runs the heuristic
func (s *Selector) ResolveWarehouse(ctx context.Context) (string, error) {
	if id := s.reader.ConfiguredWarehouseID(); id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}

	sel, err := s.Select(ctx, nil)
	if err != nil {
		return "", err
	}
	s.cached = sel.WarehouseID
	return s.cached, nil
}

// Refresh reruns the heuristic over the WB aliases and replaces the cached
// choice. A failed run keeps the previous choice. With a configured warehouse
// the cache is not used and only the ranking is returned.
func (s *Selector) Refresh(ctx context.Context) (*Selection, error) {
	sel, err := s.Select(ctx, nil)
	if err != nil {
		return nil, err
	}
	if s.reader.ConfiguredWarehouseID() != "" {
		return sel, nil
	}

	s.mu.Lock()
	previous := s.cached
	s.cached = sel.WarehouseID
	s.mu.Unlock()
	if previous != sel.WarehouseID {
		s.logger.Info("WB warehouse choice refreshed",
			zap.String("previous", previous),
			zap.String("warehouse_id", sel.WarehouseID),
		)
	}
	return sel, nil
}

// Select runs the heuristic over skus, or over the WB aliases of known items
// when skus is empty. It never uses or updates the cache.
func (s *Selector) Select(ctx context.Context, skus []string) (*Selection, error) {
	ctx, span := telemetry.StartSpan(ctx, "warehouse", "select")
	defer span.End()
	log := logger.WithTraceContext(ctx, s.logger)

	configured := s.reader.ConfiguredWarehouseID()
	warehouses, err := s.reader.ListWarehouses(ctx)
	if err != nil || len(warehouses) == 0 {
		if configured != "" {
			log.Warn("Warehouse list unusable, using configured warehouse", zap.Error(err))
			return &Selection{WarehouseID: configured, Source: SourceConfigured, SampleSKUs: []string{}, Scores: []Score{}, SKUTotals: map[string]int{}}, nil
		}
		telemetry.RecordError(span, err)
		if err != nil {
			return nil, fmt.Errorf("list warehouses: %w", err)
		}
		return nil, ErrNoWarehouse
	}
	ordered := activeFirst(warehouses)

	if len(skus) == 0 {
		if skus, err = s.sampleSet(ctx); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	span.SetAttributes(
		attribute.Int("warehouse.candidates", len(ordered)),
		attribute.Int("warehouse.sample_skus", len(skus)),
	)

	sel := &Selection{SampleSKUs: skus, SKUTotals: make(map[string]int, len(skus))}
	if len(skus) == 0 {
		sel.Scores = make([]Score, len(ordered))
		for i, w := range ordered {
			sel.Scores[i] = Score{Warehouse: w}
		}
	} else {
		sel.Scores, err = s.readStock(ctx, ordered, skus, sel.SKUTotals)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	best, fallback, _ := SelectBest(sel.Scores)
	sel.WarehouseID = best.Warehouse.ID
	sel.WarehouseName = best.Warehouse.Name
	sel.Source = SourceHeuristic
	if fallback {
		sel.Source = SourceFallback
	}
	sel.Scores = Rank(sel.Scores)

	log.Info("WB warehouse selected",
		zap.String("warehouse_id", sel.WarehouseID),
		zap.String("source", sel.Source),
		zap.Int("non_zero_count", best.NonZeroCount),
		zap.Int("total_amount", best.TotalAmount),
	)
	return sel, nil
}

// readStock reads the sample set from every warehouse concurrently
func (s *Selector) readStock(ctx context.Context, warehouses []marketplace.Warehouse, skus []string, totals map[string]int) ([]Score, error) {
	scores := make([]Score, len(warehouses))
	stocks := make([]map[string]int, len(warehouses))

	var g errgroup.Group
	g.SetLimit(sampleConcurrency)
	for i, w := range warehouses {
		g.Go(func() error {
			stock, err := s.reader.ReadWarehouseStock(ctx, w.ID, skus)
			if err != nil {
				scores[i] = Score{Warehouse: w, Error: err.Error()}
				return nil
			}
			stocks[i] = stock
			scores[i] = ScoreStock(w, stock)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var firstErr string
	for i, stock := range stocks {
		if scores[i].Error != "" {
			if failed == 0 {
				firstErr = scores[i].Error
			}
			failed++
			continue
		}
		for sku, qty := range stock {
			totals[sku] += max(qty, 0)
		}
	}
	if failed == len(warehouses) {
		return nil, fmt.Errorf("%w: %s", ErrSampleFailed, firstErr)
	}
	return scores, nil
}

// sampleSet returns a sorted, bounded sample of WB aliases
func (s *Selector) sampleSet(ctx context.Context) ([]string, error) {
	if s.items == nil {
		return []string{}, nil
	}
	items, err := s.items.ListAliased(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sample skus: %w", err)
	}
	skus := make([]string, 0, len(items))
	for _, item := range items {
		if sku, ok := item.Alias(marketplace.PlatformWB); ok {
			skus = append(skus, sku)
		}
	}
	sort.Strings(skus)
	if len(skus) > s.maxSampleSKUs {
		skus = skus[:s.maxSampleSKUs]
	}
	return skus, nil
}
