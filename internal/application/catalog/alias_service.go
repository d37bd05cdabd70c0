package catalog

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

// PlatformAliasResult is the alias back-fill outcome for one platform
type PlatformAliasResult struct {
	Platform marketplace.Platform `json:"platform"`
	// Scanned is the number of catalog entries listed
	Scanned   int                   `json:"scanned"`
	Missing   int                   `json:"missing"`
	Updated   int                   `json:"updated"`
	Errors    []string              `json:"errors"`
	ErrorKind marketplace.ErrorKind `json:"error_kind,omitempty"`
}

// SetupResult is the outcome of SetupAliases across platforms
type SetupResult struct {
	Platforms []PlatformAliasResult `json:"platforms"`
}

// Updated returns the total number of aliases written
func (r *SetupResult) Updated() int {
	n := 0
	for _, p := range r.Platforms {
		n += p.Updated
	}
	return n
}

// AliasService fills missing per-platform SKU aliases from catalog listings.
// An item matches a catalog entry when its id equals the entry's vendor code,
// ignoring case. Existing aliases are never overwritten.
type AliasService struct {
	registry *marketplace.Registry
	items    inventory.ItemRepository
	logger   *zap.Logger
}

// NewAliasService creates a new AliasService
func NewAliasService(registry *marketplace.Registry, items inventory.ItemRepository, logger *zap.Logger) *AliasService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AliasService{registry: registry, items: items, logger: logger}
}

// SetupAliases back-fills aliases for the given platforms, or all registered ones
func (s *AliasService) SetupAliases(ctx context.Context, platforms []marketplace.Platform) *SetupResult {
	if len(platforms) == 0 {
		platforms = s.registry.Platforms()
	}
	results := make([]PlatformAliasResult, len(platforms))

	var g errgroup.Group
	for i, p := range platforms {
		g.Go(func() error {
			results[i] = s.setupPlatform(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return &SetupResult{Platforms: results}
}

func (s *AliasService) setupPlatform(ctx context.Context, p marketplace.Platform) PlatformAliasResult {
	result := PlatformAliasResult{Platform: p, Errors: []string{}}
	ctx, span := telemetry.StartSpan(ctx, "catalog", "setup_aliases",
		attribute.String("marketplace.platform", string(p)))
	defer span.End()
	log := logger.WithTraceContext(ctx, s.logger).With(zap.String("platform", string(p)))

	fail := func(err error) PlatformAliasResult {
		result.Errors = append(result.Errors, err.Error())
		result.ErrorKind = marketplace.Classify(err)
		telemetry.RecordError(span, err)
		log.Error("Alias setup failed", zap.Error(err))
		return result
	}

	adapter, err := s.registry.MustGet(p)
	if err != nil {
		return fail(err)
	}
	missing, err := s.items.ListMissingAlias(ctx, p)
	if err != nil {
		return fail(fmt.Errorf("list items without alias: %w", err))
	}
	result.Missing = len(missing)
	if len(missing) == 0 {
		return result
	}

	entries, err := adapter.ListCatalog(ctx)
	if err != nil {
		return fail(fmt.Errorf("list catalog: %w", err))
	}
	result.Scanned = len(entries)

	byVendor := make(map[string]string, len(entries))
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.VendorCode))
		if key == "" || e.ExternalSKU == "" {
			continue
		}
		if _, dup := byVendor[key]; !dup {
			byVendor[key] = e.ExternalSKU
		}
	}

	for _, item := range missing {
		sku, ok := byVendor[strings.ToLower(item.ID)]
		if !ok {
			continue
		}
		if err := s.items.SetAlias(ctx, item.ID, p, sku); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			log.Warn("Alias not written", zap.String("item_id", item.ID), zap.String("external_sku", sku), zap.Error(err))
			continue
		}
		result.Updated++
	}

	log.Info("Aliases back-filled",
		zap.Int("scanned", result.Scanned),
		zap.Int("missing", result.Missing),
		zap.Int("updated", result.Updated),
	)
	return result
}
