package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nostrapizza/storefront-backend/api/controllers"
	"github.com/nostrapizza/storefront-backend/api/middleware"
	authsvc "github.com/nostrapizza/storefront-backend/internal/auth"
	cartsvc "github.com/nostrapizza/storefront-backend/internal/cart"
	catalogsvc "github.com/nostrapizza/storefront-backend/internal/catalog"
	checkoutsvc "github.com/nostrapizza/storefront-backend/internal/checkout"
	flavourssvc "github.com/nostrapizza/storefront-backend/internal/flavours"
	userssvc "github.com/nostrapizza/storefront-backend/internal/users"
	"github.com/nostrapizza/storefront-backend/pkg/auth/session"
	"github.com/nostrapizza/storefront-backend/pkg/config"
	"github.com/nostrapizza/storefront-backend/pkg/db"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
	"github.com/nostrapizza/storefront-backend/pkg/metrics"
	pkgredis "github.com/nostrapizza/storefront-backend/pkg/redis"
)

// SessionManager is the session surface the router wires into the auth
// middleware and the refresh endpoint.
type SessionManager interface {
	session.SessionChecker
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

// Deps bundles everything the router mounts.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *pkgredis.Client
	Sessions     SessionManager
	HTTPMetrics  *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry

	Auth     authsvc.Service
	Users    userssvc.Service
	Catalog  catalogsvc.Service
	Flavours flavourssvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
}

// NewRouter wires the HTTP surface: health and metrics, public auth and menu
// routes, the authenticated storefront, and the admin console.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/login/guest", controllers.AuthLoginGuest(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(signupPolicy, deps.Redis, logg)).Post("/signup", controllers.AuthSignup(deps.Auth, logg))
		r.Post("/signup/google", controllers.AuthSignupGoogle(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Sessions, cfg.JWT, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	// The menu is public; a valid token only enriches it with the caller's
	// cart quantities.
	r.Route("/api/v1/menu", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
		r.Get("/", controllers.MenuList(deps.Catalog, logg))
		r.Get("/flavours/{id}", controllers.MenuFlavoursGet(deps.Flavours, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Put("/", controllers.CartReplace(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{id}/quantity", controllers.CartSetQuantity(deps.Cart, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Get("/items/{id}/units/{unit}/flavours", controllers.UnitFlavoursGet(deps.Flavours, logg))
			r.Put("/items/{id}/units/{unit}/flavours", controllers.CartSetUnitFlavours(deps.Cart, logg))
			r.Post("/items/{id}/units/{unit}/flavours/toggle", controllers.UnitFlavourToggle(deps.Flavours, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/validate", controllers.CheckoutValidate(deps.Checkout, logg))
			r.Post("/mp", controllers.CheckoutPay(deps.Checkout, logg, "mp"))
			r.Post("/dlocal", controllers.CheckoutPay(deps.Checkout, logg, "dlocal"))
			r.Post("/stripe", controllers.CheckoutPay(deps.Checkout, logg, "stripe"))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Checkout, logg))
			r.Get("/{id}", controllers.OrderGet(deps.Checkout, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", controllers.UserProfile(deps.Users, logg))
			r.Get("/addresses/{userID}", controllers.AddressList(deps.Users, logg))
			r.Post("/addresses", controllers.AddressCreate(deps.Users, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/menu", func(r chi.Router) {
			r.Post("/", controllers.MenuItemCreate(deps.Catalog, logg))
			r.Put("/{id}", controllers.MenuItemUpdate(deps.Catalog, logg))
			r.Delete("/{id}", controllers.MenuItemDelete(deps.Catalog, logg))
			r.Post("/flavours", controllers.MenuFlavoursBind(deps.Catalog, logg))
			r.Put("/flavours/{id}", controllers.MenuFlavoursRebind(deps.Catalog, logg))
		})

		r.Route("/flavours", func(r chi.Router) {
			r.Route("/groups", func(r chi.Router) {
				r.Get("/", controllers.FlavourGroupList(deps.Flavours, logg))
				r.Post("/", controllers.FlavourGroupCreate(deps.Flavours, logg))
				r.Put("/{id}", controllers.FlavourGroupUpdate(deps.Flavours, logg))
				r.Delete("/{id}", controllers.FlavourGroupDelete(deps.Flavours, logg))
			})
			r.Get("/", controllers.FlavourList(deps.Flavours, logg))
			r.Post("/", controllers.FlavourCreate(deps.Flavours, logg))
			r.Put("/{id}", controllers.FlavourUpdate(deps.Flavours, logg))
			r.Delete("/{id}", controllers.FlavourDelete(deps.Flavours, logg))
		})

		r.Get("/users/google/{googleID}", controllers.UserByGoogleID(deps.Users, logg))
	})

	return r
}
