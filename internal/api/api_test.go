package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/domain/dto"
	"github.com/ougirez/shoplist/internal/pkg/config"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/store"
	"github.com/ougirez/shoplist/internal/pkg/utils"
	"github.com/ougirez/shoplist/internal/service/session"
	"github.com/ougirez/shoplist/internal/service/user"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apple  int64 = 1
	potato int64 = 2

	farmacia int64 = 10
	sirena   int64 = 20

	adminSecret = "s3cret"
)

type fakeCatalog struct{}

func (fakeCatalog) GetProducts(context.Context, domain.Credentials) ([]domain.Product, error) {
	return []domain.Product{{ID: apple, Name: "Manzana"}, {ID: potato, Name: "Papa"}}, nil
}

func (fakeCatalog) GetProviders(context.Context, domain.Credentials) ([]domain.Provider, error) {
	return []domain.Provider{
		{ID: farmacia, Name: "Farmacia Carol", ProviderTypeID: 2},
		{ID: sirena, Name: "Sirena", ProviderTypeID: 1},
	}, nil
}

func (fakeCatalog) GetProviderTypes(context.Context, domain.Credentials) ([]domain.ProviderType, error) {
	return []domain.ProviderType{{ID: 1, Name: "Supermercado"}, {ID: 2, Name: "Farmacia"}}, nil
}

func (fakeCatalog) GetPriceQuotes(_ context.Context, _ domain.Credentials, _ []int64) ([]domain.PriceQuote, error) {
	return []domain.PriceQuote{
		{ID: 1, ProductID: apple, ProviderID: farmacia, Price: decimal.NewFromInt(10)},
		{ID: 2, ProductID: apple, ProviderID: sirena, Price: decimal.NewFromInt(8)},
		{ID: 3, ProductID: potato, ProviderID: farmacia, Price: decimal.NewFromInt(5)},
	}, nil
}

func (fakeCatalog) GetBranches(_ context.Context, _ domain.Credentials, providerID int64) ([]domain.Branch, error) {
	if providerID != sirena {
		return nil, nil
	}
	return []domain.Branch{
		{ID: 1, ProviderID: sirena, Name: "Naco", Lat: 18.50, Lng: -69.95},
		{ID: 2, ProviderID: sirena, Name: "Ozama", Lat: 18.47, Lng: -69.89},
	}, nil
}

type cachingCatalog struct {
	fakeCatalog

	invalidated int
}

func (c *cachingCatalog) Invalidate(context.Context) {
	c.invalidated++
}

type fakeStore struct {
	store.Store

	saved []int64
}

func (f *fakeStore) SaveShoppingList(_ context.Context, _ string, _ []domain.ShoppingListItem, providerID *int64) (int64, error) {
	if providerID != nil {
		f.saved = append(f.saved, *providerID)
	}
	return 77, nil
}

func (f *fakeStore) ListShoppingLists(_ context.Context, userID string) ([]domain.ShoppingListRecord, error) {
	if userID != "user-1" {
		return nil, nil
	}
	provider := sirena
	return []domain.ShoppingListRecord{{ID: 77, UserID: userID, ProviderID: &provider}}, nil
}

type testEnv struct {
	svc   *APIService
	store *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCatalog(t, fakeCatalog{})
}

func newTestEnvWithCatalog(t *testing.T, catalog session.Catalog) *testEnv {
	t.Helper()

	viper.Set(constants.ViperJWTKey, "test-jwt-key")
	viper.Set(constants.ViperSecretKey, adminSecret)
	t.Cleanup(viper.Reset)

	st := &fakeStore{}
	manager := session.NewManager(session.Deps{Catalog: catalog, Saver: st}, session.Config{}, time.Minute)

	svc, err := NewAPIService(config.ServerConfig{Addr: ":0"}, Deps{
		Sessions: manager,
		Catalog:  catalog,
		Users:    user.NewUserService(st),
	})
	require.NoError(t, err)

	return &testEnv{svc: svc, store: st}
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{UserID: userID})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload string
	if body != nil {
		raw, err := sonic.MarshalString(body)
		require.NoError(t, err)
		payload = raw
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.svc.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createSession(t *testing.T, token string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.SessionResponse](t, rec).ID
}

func TestSessionFlow(t *testing.T) {
	e := newTestEnv(t)
	token := userToken(t, "user-1")

	id := e.createSession(t, token)
	base := "/api/v1/sessions/" + id

	rec := e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": apple, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": potato, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, base+"/compare", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[dto.SessionResponse](t, rec)
	assert.Equal(t, "ranked", snap.State)
	require.Len(t, snap.Ranking, 2)
	assert.Equal(t, sirena, snap.Ranking[0].ProviderID)
	assert.True(t, snap.Ranking[0].Total.Equal(decimal.NewFromInt(16)))
	assert.True(t, snap.Ranking[1].Total.Equal(decimal.NewFromInt(25)))

	rec = e.do(t, http.MethodPost, base+"/provider", token, map[string]interface{}{
		"provider_id": sirena,
		"location":    map[string]interface{}{"lat": 18.486, "lng": -69.931},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decode[dto.SessionResponse](t, rec)
	assert.Equal(t, "branch_resolved", snap.State)
	assert.True(t, snap.NavigationEnabled)
	require.NotNil(t, snap.Navigation)
	assert.Equal(t, "Sirena - Naco", snap.Navigation.Label)

	rec = e.do(t, http.MethodPost, base+"/analysis", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code, "analyzer is not configured")

	rec = e.do(t, http.MethodPost, base+"/finalize", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decode[dto.SessionResponse](t, rec)
	assert.Equal(t, "finalized", snap.State)
	require.NotNil(t, snap.SavedListID)
	assert.Equal(t, int64(77), *snap.SavedListID)

	rec = e.do(t, http.MethodPost, base+"/finalize", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{sirena}, e.store.saved)

	rec = e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": apple, "quantity": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSelectProvider_PermissionDenied(t *testing.T) {
	e := newTestEnv(t)
	token := userToken(t, "user-1")
	base := "/api/v1/sessions/" + e.createSession(t, token)

	e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": apple, "quantity": 1})
	rec := e.do(t, http.MethodPost, base+"/compare", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, base+"/provider", token, map[string]interface{}{
		"provider_id":       sirena,
		"permission_denied": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[dto.SessionResponse](t, rec)
	assert.Equal(t, "branch_unavailable", snap.State)
	assert.False(t, snap.NavigationEnabled)
	assert.NotEmpty(t, snap.Ranking)

	rec = e.do(t, http.MethodPost, base+"/provider", token, map[string]interface{}{"provider_id": sirena})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "branch_unavailable", decode[dto.SessionResponse](t, rec).State)
}

func TestSessionErrors(t *testing.T) {
	e := newTestEnv(t)
	token := userToken(t, "user-1")
	id := e.createSession(t, token)
	base := "/api/v1/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		code   int
	}{
		{name: "no token", method: http.MethodGet, path: base, code: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: base, token: "garbage", code: http.StatusUnauthorized},
		{name: "foreign session", method: http.MethodGet, path: base, token: userToken(t, "user-2"), code: http.StatusForbidden},
		{name: "malformed id", method: http.MethodGet, path: "/api/v1/sessions/42", token: token, code: http.StatusBadRequest},
		{name: "unknown session", method: http.MethodGet, path: "/api/v1/sessions/" + "8f14e45f-ceea-467a-9c3b-9d5d5d4a1e2f", token: token, code: http.StatusNotFound},
		{name: "zero quantity", method: http.MethodPost, path: base + "/items", token: token, body: map[string]interface{}{"product_id": apple, "quantity": 0}, code: http.StatusBadRequest},
		{name: "unknown product", method: http.MethodPost, path: base + "/items", token: token, body: map[string]interface{}{"product_id": 999, "quantity": 1}, code: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: base + "/items", token: token, body: "{", code: http.StatusBadRequest},
		{name: "compare empty list", method: http.MethodPost, path: base + "/compare", token: token, code: http.StatusBadRequest},
		{name: "select before compare", method: http.MethodPost, path: base + "/provider", token: token, body: map[string]interface{}{"provider_id": sirena}, code: http.StatusConflict},
		{name: "retry without error", method: http.MethodPost, path: base + "/retry", token: token, code: http.StatusConflict},
		{name: "finalize empty list", method: http.MethodPost, path: base + "/finalize", token: token, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			resp := decode[domain.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestItemEditing(t *testing.T) {
	e := newTestEnv(t)
	token := userToken(t, "user-1")
	base := "/api/v1/sessions/" + e.createSession(t, token)

	e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": apple, "quantity": 1})
	e.do(t, http.MethodPost, base+"/items", token, map[string]interface{}{"product_id": potato, "quantity": 1})

	rec := e.do(t, http.MethodPut, fmt.Sprintf("%s/items/%d", base, apple), token, map[string]interface{}{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, fmt.Sprintf("%s/items/%d/toggle", base, potato), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[dto.SessionResponse](t, rec)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, apple, snap.Items[0].ProductID)
	assert.Equal(t, 5, snap.Items[0].Quantity)

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("%s/items/%d", base, apple), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[dto.SessionResponse](t, rec).Items)

	rec = e.do(t, http.MethodDelete, base, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogAndLists(t *testing.T) {
	e := newTestEnv(t)
	token := userToken(t, "user-1")

	rec := e.do(t, http.MethodGet, "/api/v1/catalog/products", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 2)

	rec = e.do(t, http.MethodGet, "/api/v1/catalog/providers", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Provider](t, rec), 2)

	rec = e.do(t, http.MethodGet, "/api/v1/lists", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lists := decode[[]domain.ShoppingListRecord](t, rec)
	require.Len(t, lists, 1)
	assert.Equal(t, int64(77), lists[0].ID)

	rec = e.do(t, http.MethodGet, "/api/v1/lists", userToken(t, "user-2"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestCookieAuth(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieKeyAuthToken, Value: userToken(t, "user-1")})
	rec := httptest.NewRecorder()
	e.svc.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIssueToken_Admin(t *testing.T) {
	e := newTestEnv(t)

	issue := func(secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"user_id":"user-9"}`))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			adminToken, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{Secret: secret})
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: constants.CookieKeySecretToken, Value: adminToken})
		}
		rec := httptest.NewRecorder()
		e.svc.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, issue("").Code)
	assert.Equal(t, http.StatusUnauthorized, issue("wrong").Code)

	rec := issue(adminSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[domain.IssueTokenResponse](t, rec)
	assert.Equal(t, "user-9", resp.UserID)

	rec = e.do(t, http.MethodGet, "/api/v1/catalog/products", resp.AuthToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidateCatalog_Admin(t *testing.T) {
	catalog := &cachingCatalog{}
	e := newTestEnvWithCatalog(t, catalog)

	invalidate := func(secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/cache/invalidate", nil)
		if secret != "" {
			adminToken, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{Secret: secret})
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: constants.CookieKeySecretToken, Value: adminToken})
		}
		rec := httptest.NewRecorder()
		e.svc.router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, invalidate("").Code)
	assert.Equal(t, http.StatusUnauthorized, invalidate("wrong").Code)
	assert.Equal(t, 0, catalog.invalidated)

	assert.Equal(t, http.StatusNoContent, invalidate(adminSecret).Code)
	assert.Equal(t, 1, catalog.invalidated)

	rec := e.do(t, http.MethodPost, "/api/v1/catalog/cache/invalidate", userToken(t, "user-1"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, catalog.invalidated)
}
