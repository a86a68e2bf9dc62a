package session

import (
	"context"

	"github.com/ougirez/shoplist/internal/domain"
)

// Catalog serves the data a session compares. Retries and caching are up to
// the implementation.
type Catalog interface {
	GetProducts(ctx context.Context, creds domain.Credentials) ([]domain.Product, error)
	GetProviders(ctx context.Context, creds domain.Credentials) ([]domain.Provider, error)
	GetProviderTypes(ctx context.Context, creds domain.Credentials) ([]domain.ProviderType, error)
	GetPriceQuotes(ctx context.Context, creds domain.Credentials, productIDs []int64) ([]domain.PriceQuote, error)
	GetBranches(ctx context.Context, creds domain.Credentials, providerID int64) ([]domain.Branch, error)
}

// Locator returns a fresh device fix, or an error wrapping
// constants.ErrPermissionDenied / constants.ErrLocationUnavailable.
type Locator interface {
	CurrentLocation(ctx context.Context, creds domain.Credentials) (*domain.UserLocation, error)
}

type LocatorFunc func(ctx context.Context, creds domain.Credentials) (*domain.UserLocation, error)

func (f LocatorFunc) CurrentLocation(ctx context.Context, creds domain.Credentials) (*domain.UserLocation, error) {
	return f(ctx, creds)
}

type Analyzer interface {
	Analyze(ctx context.Context, creds domain.Credentials, prompt string) (string, error)
}

type ListSaver interface {
	SaveShoppingList(ctx context.Context, userID string, items []domain.ShoppingListItem, providerID *int64) (int64, error)
}

// Deps are shared by all sessions of a Manager. Analyzer and Saver are optional.
type Deps struct {
	Catalog  Catalog
	Analyzer Analyzer
	Saver    ListSaver
}
