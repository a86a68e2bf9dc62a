package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
)

var shoppingListColumns = []string{"id", "user_id", "provider_id", "created_at"}

func (s *store) SaveShoppingList(
	ctx context.Context,
	userID string,
	items []domain.ShoppingListItem,
	providerID *int64,
) (int64, error) {
	var listID int64

	err := s.pool.InTx(ctx, func(q xpgx.Querier) error {
		insertList := builder().Insert(tableShoppingLists).
			Columns("user_id", "provider_id").
			Values(userID, providerID).
			Suffix("RETURNING id")

		var err error
		listID, err = xpgx.GetScalar[int64](ctx, q, insertList)
		if err != nil {
			return fmt.Errorf("insert list: %w", err)
		}

		if len(items) == 0 {
			return nil
		}

		if _, err := q.Execx(ctx, insertShoppingListItemsQuery(listID, items)); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store.SaveShoppingList, user_id-%s: %w", userID, err)
	}

	return listID, nil
}

func insertShoppingListItemsQuery(listID int64, items []domain.ShoppingListItem) sq.InsertBuilder {
	query := builder().Insert(tableShoppingListItems).
		Columns("shopping_list_id", "product_id", "quantity")

	for _, it := range items {
		query = query.Values(listID, it.ProductID, it.Quantity)
	}

	return query
}

func (s *store) ListShoppingLists(ctx context.Context, userID string) ([]domain.ShoppingListRecord, error) {
	query := builder().Select(shoppingListColumns...).
		From(tableShoppingLists).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	selected, err := xpgx.Select[domain.ShoppingListRecord](ctx, s.pool, query)
	if err != nil {
		return nil, fmt.Errorf("store.ListShoppingLists, user_id-%s: %w", userID, err)
	}

	return selected, nil
}
