package store

import (
	"context"
	"fmt"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
)

var productColumns = []string{"id", "name", "category_id", "unit_id", "image_ref", "description", "created_at", "updated_at"}

func (s *store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := builder().Select(productColumns...).
		From(tableProducts).
		OrderBy("name, id")

	selected, err := xpgx.Select[domain.Product](ctx, s.pool, query)
	if err != nil {
		return nil, fmt.Errorf("store.ListProducts: %w", err)
	}

	return selected, nil
}
