package controllers

import (
	"net/http"

	"github.com/nostrapizza/storefront-backend/api/responses"
	"github.com/nostrapizza/storefront-backend/pkg/config"
	"github.com/nostrapizza/storefront-backend/pkg/db"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
	pkgredis "github.com/nostrapizza/storefront-backend/pkg/redis"
)

const envHeader = "X-Nostra-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
