package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/patitas-pets/patitas-backend/api/controllers"
	"github.com/patitas-pets/patitas-backend/api/middleware"
	"github.com/patitas-pets/patitas-backend/internal/auth"
	"github.com/patitas-pets/patitas-backend/internal/cart"
	checkoutsvc "github.com/patitas-pets/patitas-backend/internal/checkout"
	"github.com/patitas-pets/patitas-backend/internal/categories"
	"github.com/patitas-pets/patitas-backend/internal/media"
	"github.com/patitas-pets/patitas-backend/internal/orders"
	"github.com/patitas-pets/patitas-backend/internal/products"
	"github.com/patitas-pets/patitas-backend/pkg/auth/session"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
	"github.com/patitas-pets/patitas-backend/pkg/metrics"
	"github.com/patitas-pets/patitas-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	Sessions session.Checker
	Redis    *redis.Client

	AuthService     auth.Service
	CategoryService categories.Service
	MediaService    media.Service
	ProductService  products.Service
	CartStore       *cart.Store
	CheckoutService checkoutsvc.Service
	OrderService    orders.Service

	// Health-check targets; nil entries report as skipped.
	Pingers map[string]controllers.Pinger
}

// NewRouter assembles the full route tree with its middleware stack.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	httpMetrics := metrics.NewHTTPMetrics(p.Registry)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.Session, p.Sessions, p.AuthService, logg)
	adminGate := middleware.AdminGate(cfg.Session, p.Sessions, p.AuthService, logg)
	cartController := controllers.NewCartController(p.CartStore, cfg.Cart, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Pingers))
	})
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, cfg.Session, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.Session, logg))
		r.With(requireAuth).Get("/me", controllers.AuthMe(p.AuthService, logg))
		if cfg.FeatureFlags.AllowRegister && !cfg.App.IsProd() {
			r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		}
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", controllers.ListCategories(p.CategoryService, logg))
		r.Get("/{id}", controllers.GetCategory(p.CategoryService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", controllers.CreateCategory(p.CategoryService, logg))
			r.Post("/upload-image", controllers.UploadCategoryImage(p.MediaService, cfg.Media.MaxUploadMB, logg))
			r.Put("/{id}", controllers.UpdateCategory(p.CategoryService, logg))
			r.Delete("/", controllers.DeleteCategory(p.CategoryService, logg))
			r.Delete("/{id}", controllers.DeleteCategory(p.CategoryService, logg))
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.ProductService, p.CategoryService, false, logg))
		r.Get("/{slug}", controllers.GetProduct(p.ProductService, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartController.Get)
		r.Post("/items", cartController.AddItem)
		r.Patch("/items", cartController.SetQuantity)
		r.Delete("/items", cartController.RemoveItem)
		r.Patch("/notas", cartController.SetNotas)
		r.Delete("/", cartController.Clear)
	})

	r.Post("/api/checkout", controllers.Checkout(p.CheckoutService, logg))

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(logg, string(enums.UserRoleAdmin), string(enums.UserRoleModerator)))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.ProductService, p.CategoryService, true, logg))
			r.Post("/", controllers.CreateProduct(p.ProductService, logg))
			r.Put("/{id}", controllers.UpdateProduct(p.ProductService, logg))
			r.Delete("/{id}", controllers.DeleteProduct(p.ProductService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.OrderService, logg))
			r.Get("/{id}", controllers.GetOrder(p.OrderService, logg))
			r.Patch("/{id}/status", controllers.UpdateOrderStatus(p.OrderService, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(adminGate)
		r.Get("/admin", controllers.AdminApp())
		r.Get("/admin/*", controllers.AdminApp())
	})

	return r
}
