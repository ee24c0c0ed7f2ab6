package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/internal/app"
)

type stack struct {
	app *app.App
	srv *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()
	a, err := app.Boot(context.Background(), app.Config{
		DBDriver:          "sqlite",
		DBDSN:             "file:" + filepath.Join(t.TempDir(), "kernel.db"),
		QueueDriver:       "memory",
		JWTSecret:         "kernel-test",
		AccessTokenTTL:    time.Minute,
		RefreshTokenTTL:   time.Hour,
		LookupConcurrency: 2,
		NotifyWorkers:     1,
		InventoryDisk:     "local",
		InventoryPath:     "warehouse.csv",
		InventoryCron:     "0 0 * * *",
		InventoryLocation: time.UTC,
		StorageLocalRoot:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.Migrate(context.Background())
	require.NoError(t, err)

	k, err := NewHTTP(a)
	require.NoError(t, err)
	srv := httptest.NewServer(k.Handler())
	t.Cleanup(srv.Close)
	return &stack{app: a, srv: srv}
}

func (s *stack) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *stack) login(t *testing.T, email, role string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "secret123", "role": role}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/auth/register", "", creds).StatusCode)

	resp := s.do(t, http.MethodPost, "/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pair struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func TestPlaceOrderDecrementsStockAndFiresWebhook(t *testing.T) {
	s := newStack(t)

	received := make(chan map[string]interface{}, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
	}))
	defer hook.Close()

	resp := s.do(t, http.MethodPost, "/v1/products", "", map[string]interface{}{
		"name": "Mug",
		"variations": []map[string]interface{}{
			{"sku": "MUG-1", "price": 10, "stock": 5},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/v1/webhooks", "", map[string]interface{}{
		"endpoint": hook.URL, "sku": "MUG-1", "minStock": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token := s.login(t, "seller@example.com", "SELLER")

	resp = s.do(t, http.MethodPost, "/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"sku": "MUG-1", "qty": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order struct {
		Status      string          `json:"status"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, "PLACED", order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(20)), order.TotalAmount.String())

	v, err := s.app.Repos.Variations.FindBySKU(context.Background(), "MUG-1")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.app.Queue.Work(ctx, 1); close(done) }()
	defer func() { cancel(); <-done }()

	select {
	case body := <-received:
		assert.Equal(t, "MUG-1", body["sku"])
		assert.EqualValues(t, 3, body["newStock"])
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestOrdersRequireAuthentication(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodPost, "/v1/orders", "", map[string]interface{}{
		"items": []map[string]interface{}{{"sku": "MUG-1", "qty": 1}},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSellerCannotListOrders(t *testing.T) {
	s := newStack(t)
	token := s.login(t, "seller@example.com", "SELLER")

	resp := s.do(t, http.MethodGet, "/v1/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInsufficientStockIsConflict(t *testing.T) {
	s := newStack(t)
	resp := s.do(t, http.MethodPost, "/v1/products", "", map[string]interface{}{
		"name":       "Plate",
		"variations": []map[string]interface{}{{"sku": "PLATE-1", "price": 4, "stock": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := s.login(t, "admin@example.com", "ADMIN")

	resp = s.do(t, http.MethodPost, "/v1/orders", token, map[string]interface{}{
		"items": []map[string]interface{}{{"sku": "PLATE-1", "qty": 2}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Insufficient stock for SKU PLATE-1", body["message"])
}

func TestHealthz(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteTableNamesEveryEndpoint(t *testing.T) {
	s := newStack(t)
	k, err := NewHTTP(s.app)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, r := range k.Router.Routes() {
		names[r.Name] = true
	}
	for _, want := range []string{"orders.store", "orders.status", "products.byIdOrSku", "webhooks.store", "graphql"} {
		assert.True(t, names[want], want)
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodGet, "/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
