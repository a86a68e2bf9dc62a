package pricing

import (
	"slices"

	"github.com/ougirez/shoplist/internal/domain"
)

const DefaultTopN = 3

// Rank orders providers by total ascending, then by provider id ascending.
func Rank(totals map[int64]domain.ProviderTotal) []domain.ProviderTotal {
	ranked := make([]domain.ProviderTotal, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, t)
	}

	slices.SortFunc(ranked, func(a, b domain.ProviderTotal) int {
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c
		}
		switch {
		case a.ProviderID < b.ProviderID:
			return -1
		case a.ProviderID > b.ProviderID:
			return 1
		}
		return 0
	})

	return ranked
}

// TopN returns a copy of the first n ranked entries.
func TopN(ranked []domain.ProviderTotal, n int) []domain.ProviderTotal {
	if n <= 0 {
		return []domain.ProviderTotal{}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return slices.Clone(ranked[:n])
}
