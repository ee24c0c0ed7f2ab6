// Package kernel assembles the HTTP handler: the global middleware stack
// around the route table.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	appgraphql "github.com/shashiranjanraj/stockroom/app/graphql"
	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/app"
	"github.com/shashiranjanraj/stockroom/pkg/graphql"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

// HTTP is the built handler plus the rate limiter whose sweeper the server
// runs.
type HTTP struct {
	Router  *router.Router
	Limiter *middleware.RateLimiter
}

// NewHTTP wires the controllers for a onto a fresh router.
func NewHTTP(a *app.App) (*HTTP, error) {
	schema, err := appgraphql.NewSchema(a.Products)
	if err != nil {
		return nil, err
	}

	probes := map[string]controllers.Probe{}
	for name, p := range a.Probes() {
		probes[name] = p
	}

	k := &HTTP{
		Router:  router.New(),
		Limiter: middleware.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 600), time.Minute),
	}

	// Outermost first: metrics see total latency, Recovery guards the rest,
	// the request ID exists before anything logs.
	k.Router.Use(metrics.Middleware())
	k.Router.Use(middleware.Recovery)
	k.Router.Use(reqid.Middleware())
	k.Router.Use(middleware.Logger)
	k.Router.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	k.Router.Use(k.Limiter.Middleware)

	k.Router.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	k.Router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	routes.RegisterAPI(k.Router, routes.Controllers{
		Auth:     controllers.NewAuthController(a.Auth),
		Products: controllers.NewProductController(a.Products),
		Orders:   controllers.NewOrderController(a.Orders),
		Webhooks: controllers.NewWebhookController(a.Webhooks),
		Health:   controllers.NewHealthController(probes),
		Stock:    controllers.NewStockFeedController(a.Hub),
		GraphQL:  graphql.Handler(schema),
		Metrics:  metrics.Handler(),
	}, a.Signer)

	return k, nil
}

// Handler is the root http.Handler.
func (k *HTTP) Handler() http.Handler { return k.Router.Handler() }

// Sweep runs the rate limiter's cleanup loop until ctx ends.
func (k *HTTP) Sweep(ctx context.Context) { k.Limiter.Run(ctx) }
