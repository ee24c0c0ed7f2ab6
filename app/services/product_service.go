package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/orm"
	"github.com/shopspring/decimal"
)

// ── Inputs ───────────────────────────────────────────────────────────────────

type AttributeInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=255"`
}

type BOMLineInput struct {
	RawMaterialID    string  `json:"rawMaterialId" validate:"required"`
	QuantityRequired float64 `json:"quantityRequired" validate:"gt=0"`
}

type VariationInput struct {
	SKU        string           `json:"sku" validate:"required,max=100"`
	Price      decimal.Decimal  `json:"price" validate:"gte=0"`
	Stock      int              `json:"stock" validate:"min=0"`
	Attributes []AttributeInput `json:"attributes" validate:"dive"`
	BOM        []BOMLineInput   `json:"bom" validate:"dive"`
}

type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description *string          `json:"description"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Variations  []VariationInput `json:"variations" validate:"dive"`
}

type UpdateProductInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

// UpdateByIDOrSKUInput carries variation fields (applied when the key is a
// SKU) and product fields (applied when it is a product id).
type UpdateByIDOrSKUInput struct {
	UpdateProductInput
	Price *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock *int             `json:"stock" validate:"omitempty,min=0"`
}

// ProductListInput is the query of GET /v1/products. PerPage is the page
// number and Limit the page size.
type ProductListInput struct {
	PerPage  int
	Limit    int
	Search   string
	Category string
}

type CreateAttributeInput struct {
	VariationID string `json:"variationId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Value       string `json:"value" validate:"required,max=255"`
}

type UpdateAttributeInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Value *string `json:"value" validate:"omitempty,max=255"`
}

type CreateRawMaterialInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	Unit        string  `json:"unit" validate:"required,max=50"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Supplier    *string `json:"supplier" validate:"omitempty,max=255"`
}

type UpdateRawMaterialInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Unit        *string  `json:"unit" validate:"omitempty,min=1,max=50"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Supplier    *string  `json:"supplier" validate:"omitempty,max=255"`
}

type CreateBOMInput struct {
	VariationID      string  `json:"variationId" validate:"required"`
	RawMaterialID    string  `json:"rawMaterialId" validate:"required"`
	QuantityRequired float64 `json:"quantityRequired" validate:"gt=0"`
}

type UpdateBOMInput struct {
	RawMaterialID    *string  `json:"rawMaterialId" validate:"omitempty,min=1"`
	QuantityRequired *float64 `json:"quantityRequired" validate:"omitempty,gt=0"`
}

const (
	defaultProductPage  = 1
	defaultProductLimit = 20

	rawMaterialsKey = "raw-materials"
	rawMaterialsTTL = 5 * time.Minute
)

// fields collects the non-nil pointers of an update into a column map.
type fields map[string]interface{}

func (f fields) set(column string, v interface{}) fields {
	switch p := v.(type) {
	case *string:
		if p != nil {
			f[column] = *p
		}
	case *int:
		if p != nil {
			f[column] = *p
		}
	case *float64:
		if p != nil {
			f[column] = *p
		}
	case *decimal.Decimal:
		if p != nil {
			f[column] = *p
		}
	}
	return f
}

// ProductService manages the catalogue: products, variations, attributes,
// raw materials and bills of materials.
type ProductService struct {
	repos *repositories.Repositories
	cache *cache.Store
}

// NewProductService wires the service. store may be nil to disable caching.
func NewProductService(repos *repositories.Repositories, store *cache.Store) *ProductService {
	return &ProductService{repos: repos, cache: store}
}

// CreateProduct inserts a product with its nested variations.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	p := &models.Product{Name: in.Name, Description: in.Description, Category: in.Category}
	for _, v := range in.Variations {
		pv := models.ProductVariation{SKU: v.SKU, Price: v.Price, Stock: v.Stock}
		for _, a := range v.Attributes {
			pv.Attributes = append(pv.Attributes, models.VariationAttribute{Name: a.Name, Value: a.Value})
		}
		for _, b := range v.BOM {
			pv.BOM = append(pv.BOM, models.BOM{RawMaterialID: b.RawMaterialID, QuantityRequired: b.QuantityRequired})
		}
		p.Variations = append(p.Variations, pv)
	}

	seen := make(map[string]bool, len(in.Variations))
	for _, v := range in.Variations {
		if seen[v.SKU] {
			return nil, apperr.Conflict("SKU already exists: %s", v.SKU)
		}
		seen[v.SKU] = true
		existing, err := s.repos.Variations.FindBySKU(ctx, v.SKU)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if existing != nil {
			return nil, apperr.Conflict("SKU already exists: %s", v.SKU)
		}
	}

	if err := s.repos.Products.Create(ctx, p); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create product: %w", err))
	}
	return s.FindOne(ctx, p.ID)
}

// FindAll returns one page of products, newest first.
func (s *ProductService) FindAll(ctx context.Context, in ProductListInput) ([]models.Product, orm.Meta, error) {
	page, limit := in.PerPage, in.Limit
	if page <= 0 {
		page = defaultProductPage
	}
	if limit <= 0 {
		limit = defaultProductLimit
	}
	products, meta, err := s.repos.Products.Paginate(ctx, repositories.ProductFilter{
		Page:     page,
		PerPage:  limit,
		Search:   in.Search,
		Category: in.Category,
	})
	if err != nil {
		return nil, orm.Meta{}, apperr.Internal(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, meta, nil
}

// FindOne loads a product with its variation tree.
func (s *ProductService) FindOne(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, apperr.NotFound("Product not found")
	}
	return p, nil
}

// FindByIDOrSKU treats key as a SKU first and as a product id second. It
// returns nil when neither matches.
func (s *ProductService) FindByIDOrSKU(ctx context.Context, key string) (*models.Product, error) {
	v, err := s.repos.Variations.FindBySKUWithProduct(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if v != nil && v.Product != nil {
		return v.Product, nil
	}
	p, err := s.repos.Products.FindByID(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// UpdateProduct changes the product's own fields.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (*models.Product, error) {
	ok, err := s.repos.Products.Update(ctx, id, productFields(in))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	return s.FindOne(ctx, id)
}

func productFields(in UpdateProductInput) fields {
	return fields{}.
		set("name", in.Name).
		set("description", in.Description).
		set("category", in.Category)
}

// UpdateByIDOrSKU updates a variation's price and stock when key is a SKU,
// otherwise the product fields of the product with id key. It reports false
// when nothing matched.
func (s *ProductService) UpdateByIDOrSKU(ctx context.Context, key string, in UpdateByIDOrSKUInput) (bool, error) {
	ok, err := s.repos.Variations.UpdateBySKU(ctx, key, fields{}.set("price", in.Price).set("stock", in.Stock))
	if err != nil {
		return false, apperr.Internal(err)
	}
	if ok {
		return true, nil
	}
	ok, err = s.repos.Products.Update(ctx, key, productFields(in.UpdateProductInput))
	if err != nil {
		return false, apperr.Internal(err)
	}
	return ok, nil
}

// Remove deletes a product and everything hanging off its variations.
func (s *ProductService) Remove(ctx context.Context, id string) error {
	ok, err := s.repos.Products.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("Product not found")
	}
	return nil
}

// ── Variation attributes ─────────────────────────────────────────────────────

func (s *ProductService) CreateAttribute(ctx context.Context, in CreateAttributeInput) (*models.VariationAttribute, error) {
	if err := s.mustExist(ctx, &models.ProductVariation{}, in.VariationID, "Variation not found"); err != nil {
		return nil, err
	}
	a := &models.VariationAttribute{VariationID: in.VariationID, Name: in.Name, Value: in.Value}
	if err := s.repos.Catalogue.CreateAttribute(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *ProductService) UpdateAttribute(ctx context.Context, id string, in UpdateAttributeInput) (*models.VariationAttribute, error) {
	a, err := s.repos.Catalogue.UpdateAttribute(ctx, id, fields{}.set("name", in.Name).set("value", in.Value))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if a == nil {
		return nil, apperr.NotFound("Variation attribute not found")
	}
	return a, nil
}

func (s *ProductService) DeleteAttribute(ctx context.Context, id string) error {
	ok, err := s.repos.Catalogue.DeleteAttribute(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("Variation attribute not found")
	}
	return nil
}

// ── Raw materials ────────────────────────────────────────────────────────────

func (s *ProductService) CreateRawMaterial(ctx context.Context, in CreateRawMaterialInput) (*models.RawMaterial, error) {
	m := &models.RawMaterial{
		Name:        in.Name,
		Description: in.Description,
		Unit:        in.Unit,
		Quantity:    in.Quantity,
		Supplier:    in.Supplier,
	}
	if err := s.repos.Catalogue.CreateRawMaterial(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}
	s.forgetRawMaterials(ctx)
	return m, nil
}

// RawMaterials lists every raw material. The list is cached when a store is
// configured and dropped on every raw material write.
func (s *ProductService) RawMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	var out []models.RawMaterial
	err := s.cache.Remember(ctx, rawMaterialsKey, rawMaterialsTTL, &out, func() error {
		var err error
		out, err = s.repos.Catalogue.ListRawMaterials(ctx)
		return err
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// forgetRawMaterials drops the cached list. On failure the stale list is
// served until its TTL runs out.
func (s *ProductService) forgetRawMaterials(ctx context.Context) {
	if err := s.cache.Del(ctx, rawMaterialsKey); err != nil {
		logger.WithCtx(ctx).Warn("raw material cache invalidation failed", "key", rawMaterialsKey, "error", err)
	}
}

func (s *ProductService) RawMaterial(ctx context.Context, id string) (*models.RawMaterial, error) {
	m, err := s.repos.Catalogue.FindRawMaterial(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Raw Material not found")
	}
	return m, nil
}

func (s *ProductService) UpdateRawMaterial(ctx context.Context, id string, in UpdateRawMaterialInput) (*models.RawMaterial, error) {
	m, err := s.repos.Catalogue.UpdateRawMaterial(ctx, id, fields{}.
		set("name", in.Name).
		set("description", in.Description).
		set("unit", in.Unit).
		set("quantity", in.Quantity).
		set("supplier", in.Supplier))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Raw Material not found")
	}
	s.forgetRawMaterials(ctx)
	return m, nil
}

// ── BOM ──────────────────────────────────────────────────────────────────────

func (s *ProductService) CreateBOM(ctx context.Context, in CreateBOMInput) (*models.BOM, error) {
	if err := s.mustExist(ctx, &models.ProductVariation{}, in.VariationID, "Variation not found"); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, &models.RawMaterial{}, in.RawMaterialID, "Raw Material not found"); err != nil {
		return nil, err
	}
	b := &models.BOM{VariationID: in.VariationID, RawMaterialID: in.RawMaterialID, QuantityRequired: in.QuantityRequired}
	if err := s.repos.Catalogue.CreateBOM(ctx, b); err != nil {
		return nil, apperr.Internal(err)
	}
	return b, nil
}

func (s *ProductService) BOMs(ctx context.Context) ([]models.BOM, error) {
	out, err := s.repos.Catalogue.ListBOM(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *ProductService) UpdateBOM(ctx context.Context, id string, in UpdateBOMInput) (*models.BOM, error) {
	if in.RawMaterialID != nil {
		if err := s.mustExist(ctx, &models.RawMaterial{}, *in.RawMaterialID, "Raw Material not found"); err != nil {
			return nil, err
		}
	}
	b, err := s.repos.Catalogue.UpdateBOM(ctx, id, fields{}.
		set("raw_material_id", in.RawMaterialID).
		set("quantity_required", in.QuantityRequired))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if b == nil {
		return nil, apperr.NotFound("BOM not found")
	}
	return b, nil
}

func (s *ProductService) mustExist(ctx context.Context, model interface{}, id, message string) error {
	ok, err := s.repos.Catalogue.Exists(ctx, model, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("%s", message)
	}
	return nil
}

// Variation loads a single variation by SKU; nil when absent.
func (s *ProductService) Variation(ctx context.Context, sku string) (*models.ProductVariation, error) {
	v, err := s.repos.Variations.FindBySKU(ctx, sku)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return v, nil
}
