package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/cache"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/store"
)

const (
	keyProducts      = "catalog:products"
	keyProviders     = "catalog:providers"
	keyProviderTypes = "catalog:provider_types"
	keyBranchesFmt   = "catalog:branches:%d"
)

// Service reads the catalog from the store. Products, providers, provider
// types and branches go through the cache; price quotes are always read fresh.
type Service struct {
	store store.Store
	cache cache.Cache
	ttl   time.Duration
}

func NewCatalogService(store store.Store, cache cache.Cache, ttl time.Duration) *Service {
	return &Service{store: store, cache: cache, ttl: ttl}
}

func (s *Service) GetProducts(ctx context.Context, _ domain.Credentials) ([]domain.Product, error) {
	return cached(ctx, s, keyProducts, s.store.ListProducts)
}

func (s *Service) GetProviders(ctx context.Context, _ domain.Credentials) ([]domain.Provider, error) {
	return cached(ctx, s, keyProviders, s.store.ListProviders)
}

func (s *Service) GetProviderTypes(ctx context.Context, _ domain.Credentials) ([]domain.ProviderType, error) {
	return cached(ctx, s, keyProviderTypes, s.store.ListProviderTypes)
}

func (s *Service) GetBranches(ctx context.Context, _ domain.Credentials, providerID int64) ([]domain.Branch, error) {
	return cached(ctx, s, fmt.Sprintf(keyBranchesFmt, providerID), func(ctx context.Context) ([]domain.Branch, error) {
		return s.store.ListBranches(ctx, providerID)
	})
}

func (s *Service) GetPriceQuotes(ctx context.Context, _ domain.Credentials, productIDs []int64) ([]domain.PriceQuote, error) {
	return s.store.ListPriceQuotes(ctx, productIDs)
}

// Invalidate drops the cached products, providers and provider types so the
// next read goes to the store. Branch entries expire on their own.
func (s *Service) Invalidate(ctx context.Context) {
	for _, key := range []string{keyProducts, keyProviders, keyProviderTypes} {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warnf(ctx, "cache.Delete, key-%s: %s", key, err.Error())
		}
	}
}

// cached is a read-through helper. Cache failures are logged and never fail the read.
func cached[T any](ctx context.Context, s *Service, key string, load func(ctx context.Context) ([]T, error)) ([]T, error) {
	var res []T

	err := s.cache.Get(ctx, key, &res)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, constants.ErrCacheMiss) {
		logger.Warnf(ctx, "cache.Get, key-%s: %s", key, err.Error())
	}

	res, err = load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, res, s.ttl); err != nil {
		logger.Warnf(ctx, "cache.Set, key-%s: %s", key, err.Error())
	}

	return res, nil
}
