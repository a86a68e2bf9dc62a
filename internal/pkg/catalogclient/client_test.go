package catalogclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = domain.Credentials{UserID: "u1", Token: "secret-token"}

func newTestClient(url string) *Client {
	c := NewClient(url, 1000)
	c.retryDelay = time.Millisecond
	return c
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://catalog.example.com/api/", 5)

	assert.Equal(t, "https://catalog.example.com/api", c.baseURL)
	assert.NotNil(t, c.rateLimiter)
	assert.NotNil(t, c.httpClient)
}

func TestGetPriceQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price-quotes", r.URL.Path)
		assert.Equal(t, "1,2", r.URL.Query().Get("product_ids"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "product_id": 1, "provider_id": 10, "price": "10.50", "discount_price": null},
			{"id": 2, "product_id": 2, "provider_id": 10, "price": "5", "discount_price": "4.25"}
		]`))
	}))
	defer server.Close()

	quotes, err := newTestClient(server.URL).GetPriceQuotes(context.Background(), creds, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "10.5", quotes[0].EffectivePrice().String())
	assert.False(t, quotes[0].DiscountPrice.Valid)
	assert.Equal(t, "4.25", quotes[1].EffectivePrice().String())
}

func TestGetBranches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/providers/7/branches", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": 3, "provider_id": 7, "name": "Naco", "lat": 18.5, "lng": -69.95}]`))
	}))
	defer server.Close()

	branches, err := newTestClient(server.URL).GetBranches(context.Background(), creds, 7)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "Naco", branches[0].Name)
	assert.Equal(t, 18.5, branches[0].Lat)
}

func TestGet_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	products, err := newTestClient(server.URL).GetProducts(context.Background(), domain.Credentials{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "name": "Sirena"}]`))
	}))
	defer server.Close()

	providers, err := newTestClient(server.URL).GetProviders(context.Background(), creds)
	require.NoError(t, err)
	assert.Len(t, providers, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProviderTypes(context.Background(), creds)
	assert.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestGet_PermanentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		is     error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, is: constants.ErrUnauthorized},
		{name: "bad request", status: http.StatusBadRequest},
		{name: "not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetProducts(context.Background(), creds)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestGet_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProducts(context.Background(), creds)
	assert.Error(t, err)
}
