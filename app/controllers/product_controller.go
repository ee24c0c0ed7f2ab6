package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type ProductController struct {
	service *services.ProductService
}

func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// Store handles POST /v1/products.
func (c *ProductController) Store(x *ctx.Context) {
	var in services.CreateProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.service.CreateProduct(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(p)
}

// Index handles GET /v1/products?perPage=&limit=&search=&category=. perPage
// is the page number and limit the page size.
func (c *ProductController) Index(x *ctx.Context) {
	page, okPage := x.QueryInt("perPage", 1)
	limit, okLimit := x.QueryInt("limit", 20)
	if !okPage || !okLimit || page < 1 || limit < 1 {
		x.ValidationError(map[string]string{"perPage": "The perPage and limit must be positive integers."})
		return
	}
	products, meta, err := c.service.FindAll(x.Context(), services.ProductListInput{
		PerPage:  page,
		Limit:    limit,
		Search:   x.Query("search"),
		Category: x.Query("category"),
	})
	if err != nil {
		x.Fail(err)
		return
	}
	x.Paginated(products, meta)
}

// Show handles GET /v1/products/{id}.
func (c *ProductController) Show(x *ctx.Context) {
	p, err := c.service.FindOne(x.Context(), x.Param("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(p)
}

// ShowByIDOrSKU handles GET /v1/products/byIdOrSku/{idOrSku}.
func (c *ProductController) ShowByIDOrSKU(x *ctx.Context) {
	p, err := c.service.FindByIDOrSKU(x.Context(), x.Param("idOrSku"))
	if err != nil {
		x.Fail(err)
		return
	}
	if p == nil {
		x.NotFound("Product not found")
		return
	}
	x.Success(p)
}

// Update handles PUT /v1/products/{id}.
func (c *ProductController) Update(x *ctx.Context) {
	var in services.UpdateProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.service.UpdateProduct(x.Context(), x.Param("id"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(p)
}

// UpdateByIDOrSKU handles PUT /v1/products/v1/updateByIdOrSku/{idOrSku}.
func (c *ProductController) UpdateByIDOrSKU(x *ctx.Context) {
	var in services.UpdateByIDOrSKUInput
	if !x.BindJSON(&in) {
		return
	}
	ok, err := c.service.UpdateByIDOrSKU(x.Context(), x.Param("idOrSku"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	if !ok {
		x.NotFound("Product not found")
		return
	}
	x.Success(true)
}

// Destroy handles DELETE /v1/products/{id}.
func (c *ProductController) Destroy(x *ctx.Context) {
	if err := c.service.Remove(x.Context(), x.Param("id")); err != nil {
		x.Fail(err)
		return
	}
	x.Success(true)
}

// StoreAttribute handles POST /v1/products/variation-attributes.
func (c *ProductController) StoreAttribute(x *ctx.Context) {
	var in services.CreateAttributeInput
	if !x.BindJSON(&in) {
		return
	}
	a, err := c.service.CreateAttribute(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(a)
}

// UpdateAttribute handles PUT /v1/products/update/variation-attributes/{id}.
func (c *ProductController) UpdateAttribute(x *ctx.Context) {
	var in services.UpdateAttributeInput
	if !x.BindJSON(&in) {
		return
	}
	a, err := c.service.UpdateAttribute(x.Context(), x.Param("id"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(a)
}

// DestroyAttribute handles DELETE /v1/products/delete/variation-attributes/{id}.
func (c *ProductController) DestroyAttribute(x *ctx.Context) {
	if err := c.service.DeleteAttribute(x.Context(), x.Param("id")); err != nil {
		x.Fail(err)
		return
	}
	x.Success(true)
}

func (c *ProductController) StoreRawMaterial(x *ctx.Context) {
	var in services.CreateRawMaterialInput
	if !x.BindJSON(&in) {
		return
	}
	m, err := c.service.CreateRawMaterial(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(m)
}

func (c *ProductController) RawMaterials(x *ctx.Context) {
	list, err := c.service.RawMaterials(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(list)
}

func (c *ProductController) RawMaterial(x *ctx.Context) {
	m, err := c.service.RawMaterial(x.Context(), x.Param("id"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(m)
}

func (c *ProductController) UpdateRawMaterial(x *ctx.Context) {
	var in services.UpdateRawMaterialInput
	if !x.BindJSON(&in) {
		return
	}
	m, err := c.service.UpdateRawMaterial(x.Context(), x.Param("id"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(m)
}

func (c *ProductController) StoreBOM(x *ctx.Context) {
	var in services.CreateBOMInput
	if !x.BindJSON(&in) {
		return
	}
	b, err := c.service.CreateBOM(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(b)
}

func (c *ProductController) BOMs(x *ctx.Context) {
	list, err := c.service.BOMs(x.Context())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(list)
}

func (c *ProductController) UpdateBOM(x *ctx.Context) {
	var in services.UpdateBOMInput
	if !x.BindJSON(&in) {
		return
	}
	b, err := c.service.UpdateBOM(x.Context(), x.Param("id"), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(b)
}
