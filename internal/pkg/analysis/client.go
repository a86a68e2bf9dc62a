package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
)

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

type analyzeResponse struct {
	Reply string `json:"reply"`
}

// Client posts prompts to the text analysis service. The reply is returned
// as is.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    uint64
	retryDelay time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retries:    2,
		retryDelay: 500 * time.Millisecond,
	}
}

func (c *Client) Analyze(ctx context.Context, creds domain.Credentials, prompt string) (string, error) {
	payload, err := sonic.Marshal(analyzeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("%w: sonic.Marshal: %w", constants.ErrAnalysis, err)
	}

	var body []byte
	err = backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Content-Type", "application/json")
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

			if resp.StatusCode >= 500 {
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status))
			}

			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.retries),
			ctx,
		),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", constants.ErrAnalysis, err)
	}

	var res analyzeResponse
	if err := sonic.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: sonic.Unmarshal: %w", constants.ErrAnalysis, err)
	}

	return res.Reply, nil
}
