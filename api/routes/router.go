package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartretail/storefront/api/controllers"
	"github.com/smartretail/storefront/api/middleware"
	"github.com/smartretail/storefront/internal/session"
	"github.com/smartretail/storefront/pkg/config"
	"github.com/smartretail/storefront/pkg/logger"
	"github.com/smartretail/storefront/pkg/store"
)

// NewRouter wires the storefront HTTP surface: health probes, the metrics
// endpoint, and the session-scoped search, cart, and optimization routes.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	st store.Store,
	sess *session.Session,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, st))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.SearchProducts(sess, logg))
		r.Get("/search", controllers.CurrentSearch(sess, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(sess, logg))
			r.Delete("/", controllers.ClearCart(sess, logg))
			r.Post("/items", controllers.AddCartItem(sess, logg))
			r.Put("/items/{id}", controllers.SetCartItemQuantity(sess, logg))
			r.Delete("/items/{id}", controllers.RemoveCartItem(sess, logg))
			r.Post("/optimize", controllers.OptimizeCart(sess, logg))
			r.Get("/suggestion", controllers.CartSuggestion(sess, logg))
		})
	})

	return r
}
