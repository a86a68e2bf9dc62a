package catalogclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	maxRetries = 3
	retryDelay = 200 * time.Millisecond
)

// Client reads the catalog from a remote catalog API. Every call carries the
// caller's own bearer token; the client keeps no auth state of its own.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	retryDelay  time.Duration
}

func NewClient(baseURL string, ratePerSecond float64) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), max(1, int(ratePerSecond))),
		retryDelay:  retryDelay,
	}
}

func (c *Client) GetProducts(ctx context.Context, creds domain.Credentials) ([]domain.Product, error) {
	var res []domain.Product
	if err := c.get(ctx, creds, "/products", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetProviders(ctx context.Context, creds domain.Credentials) ([]domain.Provider, error) {
	var res []domain.Provider
	if err := c.get(ctx, creds, "/providers", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetProviderTypes(ctx context.Context, creds domain.Credentials) ([]domain.ProviderType, error) {
	var res []domain.ProviderType
	if err := c.get(ctx, creds, "/provider-types", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetPriceQuotes(ctx context.Context, creds domain.Credentials, productIDs []int64) ([]domain.PriceQuote, error) {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("product_ids", strings.Join(ids, ","))

	var res []domain.PriceQuote
	if err := c.get(ctx, creds, "/price-quotes", params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetBranches(ctx context.Context, creds domain.Credentials, providerID int64) ([]domain.Branch, error) {
	var res []domain.Branch
	if err := c.get(ctx, creds, fmt.Sprintf("/providers/%d/branches", providerID), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// get retries network errors, 429 and 5xx responses. Other statuses fail at once.
func (c *Client) get(ctx context.Context, creds domain.Credentials, path string, params url.Values, dst interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body []byte
	err := backoff.Retry(
		func() error {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("rateLimiter.Wait: %w", err))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("http.NewRequest: %w", err))
			}
			req.Header.Set("Accept", "application/json")
			if creds.Token != "" {
				req.Header.Set("Authorization", "Bearer "+creds.Token)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("httpClient.Do: %w", err)
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				return nil
			case resp.StatusCode == http.StatusUnauthorized:
				return backoff.Permanent(constants.ErrUnauthorized)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			default:
				return backoff.Permanent(fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status))
			}
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), maxRetries),
			ctx,
		),
	)
	if err != nil {
		logger.Warnf(ctx, "catalog GET %s failed: %s", path, err.Error())
		return fmt.Errorf("catalogclient.get, path-%s: %w", path, err)
	}

	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("sonic.Unmarshal, path-%s: %w", path, err)
	}

	return nil
}
