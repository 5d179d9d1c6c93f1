package service

import (
	"context"
	"fmt"

	"travel-checkout/internal/cache"
	"travel-checkout/internal/catalog"
	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	registry    *catalog.Registry
	catalogRepo repository.CatalogRepository
	cache       cache.Cache
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service. Item lookups go through
// c; checkout never does.
func NewCatalogService(registry *catalog.Registry, catalogRepo repository.CatalogRepository, c cache.Cache, logger zerolog.Logger) CatalogService {
	return &catalogService{
		registry:    registry,
		catalogRepo: catalogRepo,
		cache:       c,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// GetItem retrieves a catalog item, serving it from the cache when present.
func (s *catalogService) GetItem(ctx context.Context, itemType model.ItemType, id int64) (*model.CatalogItem, error) {
	if id <= 0 {
		return nil, model.ErrInvalidRequest.Withf("item id must be positive")
	}

	kind, err := s.registry.Kind(itemType)
	if err != nil {
		return nil, err
	}

	key := cache.ItemKey(itemType, id)

	var cached model.CatalogItem
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// The database is the source of truth; a cache outage only costs latency.
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if hit {
		return &cached, nil
	}

	item, err := kind.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, item); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return item, nil
}

// ListProducts retrieves active products with pagination.
func (s *catalogService) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.catalogRepo.ListProducts(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// InvalidateItems drops the cached entries of the given items. Failures are
// logged; the entries then expire with their TTL.
func (s *catalogService) InvalidateItems(ctx context.Context, refs []model.ItemRef) {
	if len(refs) == 0 {
		return
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = cache.ItemKey(ref.Type, ref.ID)
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
