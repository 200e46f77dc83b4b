package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/excommerce-backend/api/controllers"
	"github.com/angelmondragon/excommerce-backend/api/middleware"
	"github.com/angelmondragon/excommerce-backend/internal/auth"
	"github.com/angelmondragon/excommerce-backend/internal/cart"
	"github.com/angelmondragon/excommerce-backend/internal/catalog"
	"github.com/angelmondragon/excommerce-backend/internal/customers"
	"github.com/angelmondragon/excommerce-backend/internal/orders"
	"github.com/angelmondragon/excommerce-backend/internal/salesorders"
	"github.com/angelmondragon/excommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/excommerce-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Deps are the services and clients the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       RedisStore
	Sessions    session.AccessSessionChecker
	Auth        auth.Service
	Cart        cart.Service
	Catalog     catalog.Service
	Orders      orders.Service
	Customers   customers.Service
	SalesOrders salesorders.Service
	Metrics     http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.ClientIP(cfg.Proxy.Trusted),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg),
		middleware.CartIdentity(logg),
		middleware.Idempotency(deps.Redis, logg),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.NewRateLimitPolicy("login", limits.Window, limits.LoginIPLimit).WithEmailLimit(limits.LoginEmailLimit)
	lookupPolicy := middleware.NewRateLimitPolicy("customer-lookup", limits.Window, limits.LookupIPLimit)
	orderPolicy := middleware.NewRateLimitPolicy("orders", limits.Window, limits.OrderIPLimit)

	staffOnly := middleware.RequireRole(string(enums.UserRoleStaff), logg)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessChecks(deps), logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})
		r.Get("/session", controllers.SessionInfo())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemCode}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemCode}", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Catalog, logg))
			r.Get("/{itemCode}", controllers.ProductsGet(deps.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RateLimit(orderPolicy, deps.Redis, logg)).Post("/", controllers.OrdersPlace(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(deps.Orders, logg))
			r.Get("/{orderId}/status", controllers.OrdersStatus(deps.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Post("/{orderId}/customer", controllers.OrdersAssignCustomer(deps.Orders, logg))
				r.Post("/{orderId}/sales-order", controllers.SalesOrderCreate(deps.SalesOrders, logg))
				r.Get("/{orderId}/sales-order", controllers.SalesOrderStatus(deps.SalesOrders, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.With(middleware.RateLimit(lookupPolicy, deps.Redis, logg)).Get("/lookup", controllers.CustomersLookup(deps.Customers, logg))

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Post("/", controllers.CustomersCreate(deps.Customers, logg))
				r.Post("/guest", controllers.CustomersCreateFromGuest(deps.Customers, logg))
				r.Get("/{customerId}/addresses", controllers.CustomersAddresses(deps.Customers, logg))
			})
		})
	})

	return r
}

func readinessChecks(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
