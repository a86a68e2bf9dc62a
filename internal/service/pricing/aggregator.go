package pricing

import (
	"fmt"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/shopspring/decimal"
)

// MissingQuotePolicy decides what happens to a provider that does not quote
// every item of the list.
type MissingQuotePolicy int

const (
	// MissingQuoteZero counts an unquoted item as costing nothing.
	MissingQuoteZero MissingQuotePolicy = iota
	// MissingQuoteExclude drops providers that do not quote every item.
	MissingQuoteExclude
)

func ParseMissingQuotePolicy(s string) (MissingQuotePolicy, error) {
	switch s {
	case "", "zero":
		return MissingQuoteZero, nil
	case "exclude":
		return MissingQuoteExclude, nil
	default:
		return 0, fmt.Errorf("unknown missing quote policy %q", s)
	}
}

func (p MissingQuotePolicy) String() string {
	if p == MissingQuoteExclude {
		return "exclude"
	}
	return "zero"
}

type pairKey struct {
	productID  int64
	providerID int64
}

// currentQuotes keeps, for every (product, provider) pair, the quote with the
// latest EffectiveAt. Ties keep the quote with the higher id.
func currentQuotes(quotes []domain.PriceQuote) map[pairKey]domain.PriceQuote {
	current := make(map[pairKey]domain.PriceQuote, len(quotes))
	for _, q := range quotes {
		key := pairKey{productID: q.ProductID, providerID: q.ProviderID}
		prev, ok := current[key]
		if !ok ||
			q.EffectiveAt.After(prev.EffectiveAt) ||
			(q.EffectiveAt.Equal(prev.EffectiveAt) && q.ID > prev.ID) {
			current[key] = q
		}
	}
	return current
}

// AggregateTotals sums quantity x effective price per provider over the list.
// products is the catalog the list was built from; an item outside of it is
// an ErrInvalidInput. Providers quoting none of the list items are omitted.
// Neither list nor quotes are modified.
func AggregateTotals(
	list *domain.ShoppingList,
	quotes []domain.PriceQuote,
	products map[int64]domain.Product,
	policy MissingQuotePolicy,
) (map[int64]domain.ProviderTotal, error) {
	if list == nil {
		return nil, fmt.Errorf("%w: nil shopping list", constants.ErrInvalidInput)
	}

	items := list.Items()
	for _, it := range items {
		if _, ok := products[it.ProductID]; !ok {
			return nil, fmt.Errorf("%w: product %d is not in the catalog", constants.ErrInvalidInput, it.ProductID)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", constants.ErrInvalidInput, it.ProductID, it.Quantity)
		}
	}

	current := currentQuotes(quotes)

	providerIDs := make(map[int64]struct{})
	for key := range current {
		providerIDs[key.providerID] = struct{}{}
	}

	totals := make(map[int64]domain.ProviderTotal, len(providerIDs))
	for providerID := range providerIDs {
		total := domain.ProviderTotal{ProviderID: providerID, Total: decimal.Zero}

		for _, it := range items {
			q, ok := current[pairKey{productID: it.ProductID, providerID: providerID}]
			if !ok {
				total.MissingProductIDs = append(total.MissingProductIDs, it.ProductID)
				continue
			}
			total.Total = total.Total.Add(q.EffectivePrice().Mul(decimal.NewFromInt(int64(it.Quantity))))
			total.QuotedItems++
		}

		if total.QuotedItems == 0 {
			continue
		}
		if policy == MissingQuoteExclude && len(total.MissingProductIDs) > 0 {
			continue
		}

		totals[providerID] = total
	}

	return totals, nil
}
