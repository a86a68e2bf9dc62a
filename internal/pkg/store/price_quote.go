package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/store/xpgx"
)

var priceQuoteColumns = []string{"id", "product_id", "provider_id", "price", "discount_price", "effective_at"}

// listPriceQuotesQuery selects only the current quote of every (product, provider) pair.
func listPriceQuotesQuery(productIDs []int64) sq.SelectBuilder {
	return builder().Select(priceQuoteColumns...).
		Options("DISTINCT ON (product_id, provider_id)").
		From(tablePriceQuotes).
		Where(sq.Eq{"product_id": productIDs}).
		Where("effective_at <= now()").
		OrderBy("product_id", "provider_id", "effective_at DESC", "id DESC")
}

func (s *store) ListPriceQuotes(ctx context.Context, productIDs []int64) ([]domain.PriceQuote, error) {
	if len(productIDs) == 0 {
		return []domain.PriceQuote{}, nil
	}

	selected, err := xpgx.Select[domain.PriceQuote](ctx, s.pool, listPriceQuotesQuery(productIDs))
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, fmt.Errorf("store.ListPriceQuotes: %w", err)
	}

	return selected, nil
}

func insertPriceQuotesQuery(quotes []domain.PriceQuote) sq.InsertBuilder {
	query := builder().Insert(tablePriceQuotes).
		Columns("product_id", "provider_id", "price", "discount_price", "effective_at")

	for _, q := range quotes {
		query = query.Values(q.ProductID, q.ProviderID, q.Price, q.DiscountPrice, q.EffectiveAt)
	}

	return query.Suffix(`
on conflict (product_id, provider_id, effective_at)
do update
set
	price = excluded.price,
	discount_price = excluded.discount_price`)
}

func (s *store) InsertPriceQuotes(ctx context.Context, quotes []domain.PriceQuote) (int64, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	tag, err := s.pool.Execx(ctx, insertPriceQuotesQuery(quotes))
	if err != nil {
		logger.Error(ctx, err.Error())
		return 0, fmt.Errorf("store.InsertPriceQuotes, provider_id-%d: %w", quotes[0].ProviderID, err)
	}

	return tag.RowsAffected(), nil
}
