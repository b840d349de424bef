package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/nostrapizza/storefront-backend/api/routes"
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
	"github.com/nostrapizza/storefront-backend/pkg/migrate"
	"github.com/nostrapizza/storefront-backend/pkg/payments"
	"github.com/nostrapizza/storefront-backend/pkg/pubsub"
	"github.com/nostrapizza/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcp project id not set, order events disabled")
	}

	userRepo := userssvc.NewRepository(dbClient.DB())
	menuRepo := catalogsvc.NewRepository(dbClient.DB())
	flavourRepo := flavourssvc.NewRepository(dbClient.DB())
	orderRepo := checkoutsvc.NewRepository(dbClient.DB())

	cartStore, err := cartsvc.NewStore(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartStore, menuRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	catalogService, err := catalogsvc.NewService(menuRepo, cartService)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	flavourService, err := flavourssvc.NewService(flavourRepo, cartService)
	if err != nil {
		logg.Error(context.Background(), "failed to create flavour service", err)
		os.Exit(1)
	}
	usersService, err := userssvc.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	var googleVerifier *authsvc.IDTokenVerifier
	if cfg.Google.ClientID != "" {
		googleVerifier, err = authsvc.NewIDTokenVerifier(cfg.Google.ClientID)
		if err != nil {
			logg.Error(context.Background(), "failed to create google verifier", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "google client id not set, google sign-in disabled")
	}

	authService, err := newAuthService(userRepo, sessionManager, googleVerifier, redisClient, logg, cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	providers := buildProviders(cfg, logg)
	if len(providers) == 0 {
		logg.Error(context.Background(), "no payment provider configured", nil)
		os.Exit(1)
	}

	checkoutService, err := newCheckoutService(cartService, flavourService, orderRepo, providers, pubsubClient, logg, cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	handler := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Sessions:     sessionManager,
		HTTPMetrics:  httpMetrics,
		PromRegistry: promRegistry,
		Auth:         authService,
		Users:        usersService,
		Catalog:      catalogService,
		Flavours:     flavourService,
		Cart:         cartService,
		Checkout:     checkoutService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	if err := closeResources(dbClient, redisClient, pubsubClient); err != nil {
		logg.Error(ctx, "error releasing resources", err)
		os.Exit(1)
	}
}

func newAuthService(
	userRepo *userssvc.Repository,
	sessionManager *session.Manager,
	googleVerifier *authsvc.IDTokenVerifier,
	redisClient *redis.Client,
	logg *logger.Logger,
	cfg *config.Config,
) (authsvc.Service, error) {
	if googleVerifier == nil {
		return authsvc.NewService(userRepo, sessionManager, nil, redisClient, logg, cfg.JWT, cfg.Password, cfg.AuthRateLimit)
	}
	return authsvc.NewService(userRepo, sessionManager, googleVerifier, redisClient, logg, cfg.JWT, cfg.Password, cfg.AuthRateLimit)
}

func newCheckoutService(
	cartService cartsvc.Service,
	flavourService flavourssvc.Service,
	orderRepo *checkoutsvc.Repository,
	providers map[string]payments.Provider,
	pubsubClient *pubsub.Client,
	logg *logger.Logger,
	cfg *config.Config,
) (checkoutsvc.Service, error) {
	if pubsubClient == nil {
		return checkoutsvc.NewService(cartService, flavourService, orderRepo, providers, nil, logg, cfg.Checkout)
	}
	return checkoutsvc.NewService(cartService, flavourService, orderRepo, providers, pubsubClient, logg, cfg.Checkout)
}

// buildProviders wires every payment provider whose credentials are present.
func buildProviders(cfg *config.Config, logg *logger.Logger) map[string]payments.Provider {
	providers := map[string]payments.Provider{}

	if cfg.MercadoPago.AccessToken != "" {
		mp, err := payments.NewMercadoPagoClient(cfg.MercadoPago, logg)
		if err != nil {
			logg.Error(context.Background(), "mercadopago client unavailable", err)
		} else {
			providers["mp"] = mp
		}
	}
	if cfg.DLocal.APIKey != "" && cfg.DLocal.SecretKey != "" {
		dl, err := payments.NewDLocalClient(cfg.DLocal, logg)
		if err != nil {
			logg.Error(context.Background(), "dlocal client unavailable", err)
		} else {
			providers["dlocal"] = dl
		}
	}
	if cfg.Stripe.Secret != "" {
		st, err := payments.NewStripeClient(cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "stripe client unavailable", err)
		} else {
			providers["stripe"] = st
		}
	}

	return providers
}

func closeResources(dbClient *db.Client, redisClient *redis.Client, pubsubClient *pubsub.Client) error {
	var errs error
	if pubsubClient != nil {
		errs = multierr.Append(errs, pubsubClient.Close())
	}
	if redisClient != nil {
		errs = multierr.Append(errs, redisClient.Close())
	}
	if dbClient != nil {
		errs = multierr.Append(errs, dbClient.Close())
	}
	return errs
}
