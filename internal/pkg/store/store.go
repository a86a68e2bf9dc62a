package store

import (
	"context"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	GetProvider(ctx context.Context, id int64) (*domain.Provider, error)
	ListProviderTypes(ctx context.Context) ([]domain.ProviderType, error)
	ListBranches(ctx context.Context, providerID int64) ([]domain.Branch, error)
	ListPriceQuotes(ctx context.Context, productIDs []int64) ([]domain.PriceQuote, error)
	InsertPriceQuotes(ctx context.Context, quotes []domain.PriceQuote) (int64, error)
	SaveShoppingList(ctx context.Context, userID string, items []domain.ShoppingListItem, providerID *int64) (int64, error)
	ListShoppingLists(ctx context.Context, userID string) ([]domain.ShoppingListRecord, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}
