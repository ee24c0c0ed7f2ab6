package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	appctx "github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/stretchr/testify/assert"
)

func serve(method, target, body string, h appctx.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestCreatedWritesResource(t *testing.T) {
	rec := serve(http.MethodPost, "/", "", func(c *appctx.Context) {
		c.Created(map[string]any{"id": "o-1"})
		assert.Equal(t, http.StatusCreated, c.WrittenStatus())
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"o-1"}`, rec.Body.String())
}

func TestBindJSONValidation(t *testing.T) {
	type input struct {
		SKU string `json:"sku" validate:"required"`
	}

	rec := serve(http.MethodPost, "/", `{}`, func(c *appctx.Context) {
		var in input
		assert.False(t, c.BindJSON(&in))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku"`)
}

func TestQueryInt(t *testing.T) {
	serve(http.MethodGet, "/?limit=5&bad=x", "", func(c *appctx.Context) {
		n, ok := c.QueryInt("limit", 10)
		assert.True(t, ok)
		assert.Equal(t, 5, n)

		n, ok = c.QueryInt("missing", 10)
		assert.True(t, ok)
		assert.Equal(t, 10, n)

		_, ok = c.QueryInt("bad", 10)
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})
}

func TestFailMapsErrors(t *testing.T) {
	rec := serve(http.MethodGet, "/", "", func(c *appctx.Context) {
		c.Fail(apperr.InvalidTransition("Cannot transition PLACED → DISPATCHED"))
		assert.Equal(t, http.StatusBadRequest, c.WrittenStatus())
	})
	assert.JSONEq(t, `{"message":"Cannot transition PLACED → DISPATCHED"}`, rec.Body.String())

	rec = serve(http.MethodGet, "/", "", func(c *appctx.Context) { c.Fail(errors.New("boom")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParam(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		c.Success(c.Param("id"))
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/o-9", nil))
	assert.JSONEq(t, `"o-9"`, rec.Body.String())
}
