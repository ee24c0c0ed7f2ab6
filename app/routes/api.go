// Package routes declares every HTTP endpoint.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

// Controllers is everything the route table dispatches to.
type Controllers struct {
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Webhooks *controllers.WebhookController
	Health   *controllers.HealthController
	Stock    *controllers.StockFeedController

	// GraphQL and Metrics are optional plain handlers.
	GraphQL http.Handler
	Metrics http.Handler
}

// RegisterAPI mounts the routes on r. tokens verifies bearer tokens on the
// protected routes.
func RegisterAPI(r *router.Router, c Controllers, tokens middleware.TokenParser) {
	authenticated := middleware.Authenticate(tokens)

	r.Get("/healthz", "health", ctx.Wrap(c.Health.Check))
	if c.Metrics != nil {
		r.Get("/metrics", "metrics", c.Metrics.ServeHTTP)
	}
	if c.GraphQL != nil {
		r.Get("/graphql", "graphql.query", c.GraphQL.ServeHTTP)
		r.Post("/graphql", "graphql", c.GraphQL.ServeHTTP)
	}

	v1 := r.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", "auth.register", ctx.Wrap(c.Auth.Register))
	auth.Post("/login", "auth.login", ctx.Wrap(c.Auth.Login))
	auth.Post("/refresh", "auth.refresh", ctx.Wrap(c.Auth.Refresh))

	products := v1.Group("/products")
	products.Get("/", "products.index", ctx.Wrap(c.Products.Index))
	products.Post("/", "products.store", ctx.Wrap(c.Products.Store))
	products.Get("/byIdOrSku/{idOrSku}", "products.byIdOrSku", ctx.Wrap(c.Products.ShowByIDOrSKU))
	products.Put("/v1/updateByIdOrSku/{idOrSku}", "products.updateByIdOrSku", ctx.Wrap(c.Products.UpdateByIDOrSKU))
	products.Post("/variation-attributes", "attributes.store", ctx.Wrap(c.Products.StoreAttribute))
	products.Put("/update/variation-attributes/{id}", "attributes.update", ctx.Wrap(c.Products.UpdateAttribute))
	products.Delete("/delete/variation-attributes/{id}", "attributes.destroy", ctx.Wrap(c.Products.DestroyAttribute))
	products.Post("/create/raw-material", "rawMaterials.store", ctx.Wrap(c.Products.StoreRawMaterial))
	products.Get("/raw-material/list", "rawMaterials.index", ctx.Wrap(c.Products.RawMaterials))
	products.Get("/raw-material/single/{id}", "rawMaterials.show", ctx.Wrap(c.Products.RawMaterial))
	products.Put("/raw-material/update/{id}", "rawMaterials.update", ctx.Wrap(c.Products.UpdateRawMaterial))
	products.Post("/bom/create", "bom.store", ctx.Wrap(c.Products.StoreBOM))
	products.Get("/bom/list", "bom.index", ctx.Wrap(c.Products.BOMs))
	products.Put("/bom/update/{id}", "bom.update", ctx.Wrap(c.Products.UpdateBOM))
	products.Get("/{id}", "products.show", ctx.Wrap(c.Products.Show))
	products.Put("/{id}", "products.update", ctx.Wrap(c.Products.Update))
	products.Delete("/{id}", "products.destroy", ctx.Wrap(c.Products.Destroy))

	orders := v1.Group("/orders", authenticated)
	orders.Get("/", "orders.index", ctx.Wrap(c.Orders.Index), rbac.Require(rbac.Admin))
	orders.Post("/", "orders.store", ctx.Wrap(c.Orders.Store), rbac.Require(rbac.Seller))
	orders.Patch("/{id}/status", "orders.status", ctx.Wrap(c.Orders.UpdateStatus), rbac.Require(rbac.Admin))

	v1.Post("/webhooks", "webhooks.store", ctx.Wrap(c.Webhooks.Store))
	v1.Get("/ws/stock", "stock.feed", ctx.Wrap(c.Stock.Subscribe))
}
