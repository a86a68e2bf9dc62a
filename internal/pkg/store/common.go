package store

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

const (
	tableProducts          = "products"
	tableProviderTypes     = "provider_types"
	tableProviders         = "providers"
	tablePriceQuotes       = "price_quotes"
	tableBranches          = "branches"
	tableShoppingLists     = "shopping_lists"
	tableShoppingListItems = "shopping_list_items"
)

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder возвращает squirrel SQL Builder обьект.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
