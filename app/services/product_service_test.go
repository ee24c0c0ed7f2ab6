package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestCreateProductWithNestedVariations(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()

	cotton, err := svc.CreateRawMaterial(ctx, CreateRawMaterialInput{Name: "Cotton", Unit: "kg", Quantity: 100})
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Tee",
		Category: strp("apparel"),
		Variations: []VariationInput{{
			SKU:        "TEE-M",
			Price:      decimal.RequireFromString("19.99"),
			Stock:      4,
			Attributes: []AttributeInput{{Name: "size", Value: "M"}},
			BOM:        []BOMLineInput{{RawMaterialID: cotton.ID, QuantityRequired: 0.2}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, p.Variations, 1)
	v := p.Variations[0]
	assert.Equal(t, "TEE-M", v.SKU)
	require.Len(t, v.Attributes, 1)
	require.Len(t, v.BOM, 1)
	require.NotNil(t, v.BOM[0].RawMaterial)
	assert.Equal(t, "Cotton", v.BOM[0].RawMaterial.Name)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Dup", Variations: []VariationInput{{SKU: "TEE-M"}}})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestFindAllPaginatesAndSearches(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	seedVariation(t, svc.repos, "Blue Tee", "BLUE-1", "10", 1)
	seedVariation(t, svc.repos, "Red Mug", "MUG-1", "5", 1)
	seedVariation(t, svc.repos, "Green Tee", "GRN-1", "10", 1)

	page, meta, err := svc.FindAll(ctx, ProductListInput{PerPage: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, int64(3), meta.Total)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 2, meta.PerPage)

	found, _, err := svc.FindAll(ctx, ProductListInput{Search: "tee"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, _, err = svc.FindAll(ctx, ProductListInput{Search: "mug-"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Red Mug", found[0].Name)
}

func TestFindByIDOrSKU(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	p := seedVariation(t, svc.repos, "Tee", "TEE-1", "10", 1)

	bySKU, err := svc.FindByIDOrSKU(ctx, "TEE-1")
	require.NoError(t, err)
	require.NotNil(t, bySKU)
	assert.Equal(t, p.ID, bySKU.ID)
	assert.Len(t, bySKU.Variations, 1)

	byID, err := svc.FindByIDOrSKU(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Tee", byID.Name)

	none, err := svc.FindByIDOrSKU(ctx, "nothing")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.FindOne(ctx, "nothing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Product not found", err.Error())
}

func TestUpdateByIDOrSKU(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	p := seedVariation(t, svc.repos, "Tee", "TEE-1", "10", 1)

	stock := 9
	price := decimal.RequireFromString("12.5")
	ok, err := svc.UpdateByIDOrSKU(ctx, "TEE-1", UpdateByIDOrSKUInput{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9, stockOf(t, svc.repos, "TEE-1"))

	ok, err = svc.UpdateByIDOrSKU(ctx, p.ID, UpdateByIDOrSKUInput{UpdateProductInput: UpdateProductInput{Name: strp("Shirt")}})
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := svc.FindOne(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Name)

	ok, err = svc.UpdateByIDOrSKU(ctx, "nothing", UpdateByIDOrSKUInput{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveDeletesVariationTree(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	p := seedVariation(t, svc.repos, "Tee", "TEE-1", "10", 1)
	_, err := svc.CreateAttribute(ctx, CreateAttributeInput{VariationID: p.Variations[0].ID, Name: "size", Value: "M"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, p.ID))
	assert.True(t, apperr.Is(svc.Remove(ctx, p.ID), apperr.KindNotFound))

	v, err := svc.repos.Variations.FindBySKU(ctx, "TEE-1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAttributeLifecycle(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	p := seedVariation(t, svc.repos, "Tee", "TEE-1", "10", 1)

	_, err := svc.CreateAttribute(ctx, CreateAttributeInput{VariationID: "missing", Name: "size", Value: "M"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	a, err := svc.CreateAttribute(ctx, CreateAttributeInput{VariationID: p.Variations[0].ID, Name: "size", Value: "M"})
	require.NoError(t, err)

	a, err = svc.UpdateAttribute(ctx, a.ID, UpdateAttributeInput{Value: strp("L")})
	require.NoError(t, err)
	assert.Equal(t, "size", a.Name)
	assert.Equal(t, "L", a.Value)

	require.NoError(t, svc.DeleteAttribute(ctx, a.ID))
	assert.True(t, apperr.Is(svc.DeleteAttribute(ctx, a.ID), apperr.KindNotFound))
}

func TestRawMaterialsAndBOM(t *testing.T) {
	svc := NewProductService(newRepos(t), nil)
	ctx := context.Background()
	p := seedVariation(t, svc.repos, "Tee", "TEE-1", "10", 1)

	m, err := svc.CreateRawMaterial(ctx, CreateRawMaterialInput{Name: "Cotton", Unit: "kg"})
	require.NoError(t, err)

	qty := 42.0
	m, err = svc.UpdateRawMaterial(ctx, m.ID, UpdateRawMaterialInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 42.0, m.Quantity)
	assert.Equal(t, "Cotton", m.Name)

	list, err := svc.RawMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.RawMaterial(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Raw Material not found", err.Error())

	_, err = svc.CreateBOM(ctx, CreateBOMInput{VariationID: p.Variations[0].ID, RawMaterialID: "missing", QuantityRequired: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	b, err := svc.CreateBOM(ctx, CreateBOMInput{VariationID: p.Variations[0].ID, RawMaterialID: m.ID, QuantityRequired: 0.5})
	require.NoError(t, err)

	more := 0.75
	b, err = svc.UpdateBOM(ctx, b.ID, UpdateBOMInput{QuantityRequired: &more})
	require.NoError(t, err)
	assert.Equal(t, 0.75, b.QuantityRequired)

	boms, err := svc.BOMs(ctx)
	require.NoError(t, err)
	require.Len(t, boms, 1)
	require.NotNil(t, boms[0].RawMaterial)
}

func TestRawMaterialWritesLogFailedInvalidation(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewProductService(newRepos(t), cache.NewStore(rdb, "test:"))

	var buf bytes.Buffer
	ctx := logger.InjectLogger(context.Background(), logger.New("local", &buf))

	m, err := svc.CreateRawMaterial(ctx, CreateRawMaterialInput{Name: "Cotton", Unit: "kg"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "raw material cache invalidation failed")

	buf.Reset()
	qty := 3.0
	_, err = svc.UpdateRawMaterial(ctx, m.ID, UpdateRawMaterialInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "raw material cache invalidation failed")

	list, err := svc.RawMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
