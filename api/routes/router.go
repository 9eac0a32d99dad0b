package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/bootstrap"
)

const streamHeartbeat = 15 * time.Second

// NewRouter mounts the storefront API over the stores of c. Metrics are
// served from gatherer, or the default registry when nil.
func NewRouter(c *bootstrap.Container, gatherer prometheus.Gatherer) http.Handler {
	cfg := c.Config
	logg := c.Logger
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	pingers := map[string]controllers.Pinger{}
	for name, p := range c.Pingers() {
		pingers[name] = p
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	loginLimit := middleware.AuthRateLimit(loginPolicy, nil, logg)
	if c.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, c.Redis, logg)
	}

	// Typed nils must not reach the interface-typed handlers.
	var (
		authLogin http.HandlerFunc
		adminAuth func(http.Handler) http.Handler
	)
	if c.Provider != nil {
		authLogin = controllers.AuthLogin(c.Provider, logg)
		adminAuth = middleware.AdminAuth(c.Provider, logg)
	} else {
		authLogin = controllers.AuthLogin(nil, logg)
		adminAuth = middleware.AdminAuth(nil, logg)
	}

	cartOpts := controllers.CartOptions{
		CookieTTL:    cfg.Cart.TTL,
		SecureCookie: cfg.App.IsProd(),
		Phone:        cfg.Checkout.Phone,
	}
	maxImage := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogList(c.Catalog, logg))
			r.Get("/products/{id}", controllers.CatalogProduct(c.Catalog, logg))
			r.Get("/search", controllers.CatalogSearch(c.Catalog))
			r.Get("/sizes/{type}", controllers.CatalogSizes(logg))
			r.Get("/stream", controllers.CatalogStream(c.Catalog, logg, streamHeartbeat))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(c.Carts, cartOpts, logg))
			r.Delete("/", controllers.CartClear(c.Carts, cartOpts, logg))
			r.Post("/items", controllers.CartAddItem(c.Carts, c.Catalog, cartOpts, logg))
			r.Patch("/items/{key}", controllers.CartUpdateItem(c.Carts, cartOpts, logg))
			r.Delete("/items/{key}", controllers.CartRemoveItem(c.Carts, cartOpts, logg))
			r.Get("/checkout", controllers.CartCheckout(c.Carts, cartOpts, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", authLogin)
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(adminAuth)
		r.Get("/stats", controllers.AdminStats(c.Catalog))
		r.Post("/products", controllers.AdminCreateProduct(c.Catalog, maxImage, logg))
		r.Put("/products/{id}", controllers.AdminUpdateProduct(c.Catalog, maxImage, logg))
		r.Delete("/products/{id}", controllers.AdminDeleteProduct(c.Catalog, logg))
		r.Post("/catalog/refresh", controllers.AdminRefresh(c.Catalog, logg))
	})

	return r
}
