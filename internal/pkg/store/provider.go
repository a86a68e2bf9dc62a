package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
)

var (
	providerTypeColumns = []string{"id", "name", "created_at", "updated_at"}
	providerColumns     = []string{"id", "name", "provider_type_id", "logo_ref", "created_at", "updated_at"}
	branchColumns       = []string{"id", "provider_id", "name", "lat", "lng"}
)

func listProvidersQuery() sq.SelectBuilder {
	return builder().Select(providerColumns...).
		From(tableProviders).
		OrderBy("id")
}

func (s *store) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	selected, err := xpgx.Select[domain.Provider](ctx, s.pool, listProvidersQuery())
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, fmt.Errorf("store.ListProviders: %w", err)
	}

	return selected, nil
}

func (s *store) GetProvider(ctx context.Context, id int64) (*domain.Provider, error) {
	query := builder().Select(providerColumns...).
		From(tableProviders).
		Where(sq.Eq{"id": id})

	selected, err := xpgx.Get[domain.Provider](ctx, s.pool, query)
	if err != nil {
		return nil, fmt.Errorf("store.GetProvider, id-%d: %w", id, wrapErr(err))
	}

	return &selected, nil
}

func (s *store) ListProviderTypes(ctx context.Context) ([]domain.ProviderType, error) {
	query := builder().Select(providerTypeColumns...).
		From(tableProviderTypes).
		OrderBy("id")

	selected, err := xpgx.Select[domain.ProviderType](ctx, s.pool, query)
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, fmt.Errorf("store.ListProviderTypes: %w", err)
	}

	return selected, nil
}

func listBranchesQuery(providerID int64) sq.SelectBuilder {
	return builder().Select(branchColumns...).
		From(tableBranches).
		Where(sq.Eq{"provider_id": providerID}).
		OrderBy("id")
}

func (s *store) ListBranches(ctx context.Context, providerID int64) ([]domain.Branch, error) {
	selected, err := xpgx.Select[domain.Branch](ctx, s.pool, listBranchesQuery(providerID))
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, fmt.Errorf("store.ListBranches, provider_id-%d: %w", providerID, err)
	}

	return selected, nil
}
