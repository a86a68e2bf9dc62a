package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/domain/dto"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"github.com/ougirez/shoplist/internal/pkg/store"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	rowsSelector       = "table.price-list tbody tr"
	paginationSelector = "a.page"
)

type ImportResult struct {
	ProviderID int64    `json:"provider_id"`
	Pages      int      `json:"pages"`
	Rows       int      `json:"rows"`
	Imported   int64    `json:"imported"`
	Unmatched  []string `json:"unmatched,omitempty"`
}

// Service imports a provider's published price list into price quotes.
type Service struct {
	store      store.Store
	httpClient *http.Client
	retryDelay time.Duration
	now        func() time.Time
}

func NewQuotesService(store store.Store) *Service {
	return &Service{
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryDelay: 100 * time.Millisecond,
		now:        time.Now,
	}
}

// ParseAndSaveProviderQuotes scrapes the price table at mainURL and every page
// it links to, matches rows to catalog products by name and stores the
// result as quotes effective now. Rows naming unknown products are reported
// and skipped.
func (s *Service) ParseAndSaveProviderQuotes(ctx context.Context, providerID int64, mainURL string) (*ImportResult, error) {
	provider, err := s.store.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetchDocument(ctx, mainURL)
	if err != nil {
		return nil, fmt.Errorf("fetchDocument, url-%s: %w", mainURL, err)
	}

	page := dto.NewQuotePageDto(providerID)
	if err := parseQuotePage(doc, page); err != nil {
		return nil, fmt.Errorf("parseQuotePage, url-%s: %w", mainURL, err)
	}

	pageURLs, err := paginationLinks(doc, mainURL)
	if err != nil {
		return nil, err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, pageURL := range pageURLs {
		pageURL := pageURL
		eg.Go(func() error {
			pageDoc, err := s.fetchDocument(egCtx, pageURL)
			if err != nil {
				return fmt.Errorf("fetchDocument, url-%s: %w", pageURL, err)
			}
			if err := parseQuotePage(pageDoc, page); err != nil {
				return fmt.Errorf("parseQuotePage, url-%s: %w", pageURL, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("err in goroutine: %w", err)
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListProducts: %w", err)
	}
	productIDs := make(map[string]int64, len(products))
	for _, p := range products {
		productIDs[dto.NormalizeProductName(p.Name)] = p.ID
	}

	effectiveAt := s.now().UTC().Truncate(time.Second)
	result := &ImportResult{ProviderID: providerID, Pages: len(pageURLs) + 1, Rows: page.Len()}

	quotes := make([]domain.PriceQuote, 0, len(page.Rows))
	for name, row := range page.Rows {
		productID, ok := productIDs[name]
		if !ok {
			result.Unmatched = append(result.Unmatched, row.ProductName)
			continue
		}

		quotes = append(quotes, domain.PriceQuote{
			ProductID:     productID,
			ProviderID:    providerID,
			Price:         row.Price,
			DiscountPrice: row.DiscountPrice,
			EffectiveAt:   effectiveAt,
		})
	}
	sort.Strings(result.Unmatched)
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].ProductID < quotes[j].ProductID })

	result.Imported, err = s.store.InsertPriceQuotes(ctx, quotes)
	if err != nil {
		return nil, fmt.Errorf("store.InsertPriceQuotes, provider-%s: %w", provider.Name, err)
	}

	logger.Infof(ctx, "parsed %d quotes for %s, %d unmatched", len(quotes), provider.Name, len(result.Unmatched))

	return result, nil
}

func (s *Service) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var resp *http.Response
	err := backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
			if err != nil {
				return backoff.Permanent(err)
			}

			resp, err = s.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("httpClient.Do: %w", err)
			}
			// Проверяем статус ответа, он должен быть 200 OK
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			}

			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), 5),
			ctx,
		),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	return doc, nil
}

func parseQuotePage(doc *goquery.Document, page *dto.QuotePageDto) error {
	var err error

	doc.Find(rowsSelector).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		name := strings.TrimSpace(tr.Find("td.product").Text())
		if name == "" {
			// скипаем
			return true
		}

		price, parseErr := parsePrice(tr.Find("td.price").Text())
		if parseErr != nil {
			err = fmt.Errorf("row %d, product-%s: %w", i, name, parseErr)
			return false
		}

		row := &dto.QuoteRow{ProductName: name, Price: price}

		if discountText := strings.TrimSpace(tr.Find("td.discount").Text()); discountText != "" {
			discount, parseErr := parsePrice(discountText)
			if parseErr != nil {
				err = fmt.Errorf("row %d, product-%s, discount: %w", i, name, parseErr)
				return false
			}
			row.DiscountPrice = decimal.NewNullDecimal(discount)
		}

		if putErr := page.PutRow(row); putErr != nil {
			err = putErr
			return false
		}

		return true
	})

	return err
}

// paginationLinks returns the absolute URLs of the other pages, without duplicates.
func paginationLinks(doc *goquery.Document, mainURL string) ([]string, error) {
	base, err := url.Parse(mainURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse, url-%s: %w", mainURL, err)
	}

	seen := map[string]bool{base.String(): true}
	var links []string

	doc.Find(paginationSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}

		ref, parseErr := url.Parse(strings.TrimSpace(href))
		if parseErr != nil {
			err = fmt.Errorf("url.Parse, href-%s: %w", href, parseErr)
			return false
		}

		abs := base.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
		return true
	})

	return links, err
}

// parsePrice accepts "RD$ 1,250.50", "1.250,50", "RD$ 1,250", "$45" or "12,75".
// With both marks present the last one is the decimal separator. A single mark
// followed by exactly three digits groups thousands.
func parsePrice(text string) (decimal.Decimal, error) {
	s := strings.NewReplacer("RD$", "", "$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(text))
	s = normalizeSeparators(s)

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse price %q: %w", text, err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative price %q", text)
	}

	return price, nil
}

func normalizeSeparators(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma < 0 && dot < 0:
		return s
	}

	sep, last := ",", comma
	if dot >= 0 {
		sep, last = ".", dot
	}

	if strings.Count(s, sep) > 1 || isThousandsGroup(s, last) {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// isThousandsGroup reports whether the mark at i is followed by exactly three
// digits and preceded by a non-zero integer part.
func isThousandsGroup(s string, i int) bool {
	intPart, frac := s[:i], s[i+1:]
	if len(frac) != 3 || intPart == "" || strings.TrimLeft(intPart, "0") == "" {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
