package graphql

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/app/services"
	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	gql "github.com/shashiranjanraj/stockroom/pkg/graphql"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, body string) string {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	ctx := context.Background()
	_, err = migration.New(db).Run(ctx)
	require.NoError(t, err)

	repos := repositories.New(db)
	require.NoError(t, repos.Products.Create(ctx, &models.Product{
		Name:       "Tee",
		Variations: []models.ProductVariation{{SKU: "TEE-1", Price: decimal.RequireFromString("9.5"), Stock: 4}},
	}))

	schema, err := NewSchema(services.NewProductService(repos, nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gql.Handler(schema)(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestVariationBySKU(t *testing.T) {
	out := serve(t, `{"query":"{ variation(sku:\"TEE-1\") { sku price stock } }"}`)
	assert.JSONEq(t, `{"data":{"variation":{"sku":"TEE-1","price":9.5,"stock":4}}}`, out)
}

func TestUnknownVariationIsNull(t *testing.T) {
	out := serve(t, `{"query":"{ variation(sku:\"NOPE\") { sku } }"}`)
	assert.JSONEq(t, `{"data":{"variation":null}}`, out)
}

func TestProductsSearch(t *testing.T) {
	out := serve(t, `{"query":"{ products(search:\"tee\", limit: 5) { name variations { sku stock } } }"}`)
	assert.JSONEq(t, `{"data":{"products":[{"name":"Tee","variations":[{"sku":"TEE-1","stock":4}]}]}}`, out)
}
