package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commercebridge/ucp-gateway/api/controllers"
	"github.com/commercebridge/ucp-gateway/api/middleware"
	checkoutsvc "github.com/commercebridge/ucp-gateway/internal/checkout"
	"github.com/commercebridge/ucp-gateway/internal/discovery"
	ordersvc "github.com/commercebridge/ucp-gateway/internal/orders"
	productsvc "github.com/commercebridge/ucp-gateway/internal/products"
	"github.com/commercebridge/ucp-gateway/pkg/config"
	"github.com/commercebridge/ucp-gateway/pkg/db"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/metrics"
	"github.com/commercebridge/ucp-gateway/pkg/redis"
)

// Deps carries everything the router wires into handlers. Nil optional
// members (pingers, metrics, gatherer) disable their endpoints.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     redis.Pinger
	Metrics   *metrics.CheckoutMetrics
	Gatherer  prometheus.Gatherer
	Checkout  checkoutsvc.Service
	Products  productsvc.Service
	Orders    ordersvc.Service
	Discovery discovery.Service
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Metrics(deps.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/.well-known/ucp", controllers.DiscoveryProfile(deps.Discovery, deps.Logger))

	r.Route("/checkout-sessions", func(r chi.Router) {
		r.With(middleware.RequireUCPHeaders(deps.Logger)).
			Post("/", controllers.CreateCheckoutSession(deps.Checkout, deps.Logger))
		r.Get("/{id}", controllers.GetCheckoutSession(deps.Checkout, deps.Logger))
		r.With(middleware.RequireUCPHeaders(deps.Logger)).
			Put("/{id}", controllers.UpdateCheckoutSession(deps.Checkout, deps.Logger))
		r.With(middleware.RequireUCPHeaders(deps.Logger)).
			Post("/{id}/complete", controllers.CompleteCheckoutSession(deps.Checkout, deps.Logger))
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Products, deps.Logger))
		r.Get("/{id}", controllers.GetProduct(deps.Products, deps.Logger))
	})

	r.Get("/orders/{id}", controllers.GetOrder(deps.Orders, deps.Logger))

	return r
}
