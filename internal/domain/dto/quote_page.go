package dto

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// QuoteRow is one scraped line of a provider's price table.
type QuoteRow struct {
	ProductName   string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
}

// QuotePageDto accumulates rows scraped from several pages concurrently.
type QuotePageDto struct {
	ProviderID int64
	Rows       map[string]*QuoteRow
	rowsMx     sync.Mutex
}

func NewQuotePageDto(providerID int64) *QuotePageDto {
	return &QuotePageDto{
		ProviderID: providerID,
		Rows:       make(map[string]*QuoteRow),
	}
}

// PutRow stores a row keyed by the normalized product name. A product listed
// twice with different prices is an error in the source page.
func (p *QuotePageDto) PutRow(row *QuoteRow) error {
	p.rowsMx.Lock()
	defer p.rowsMx.Unlock()

	key := NormalizeProductName(row.ProductName)
	if existing, ok := p.Rows[key]; ok {
		if !existing.Price.Equal(row.Price) {
			return fmt.Errorf("different prices for one product %q: %s and %s", row.ProductName, existing.Price, row.Price)
		}
		return nil
	}

	p.Rows[key] = row
	return nil
}

func (p *QuotePageDto) Len() int {
	p.rowsMx.Lock()
	defer p.rowsMx.Unlock()

	return len(p.Rows)
}

func NormalizeProductName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
