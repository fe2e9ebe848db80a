package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/commercebridge/ucp-gateway/api/responses"
	"github.com/commercebridge/ucp-gateway/pkg/config"
	"github.com/commercebridge/ucp-gateway/pkg/db"
	"github.com/commercebridge/ucp-gateway/pkg/logger"
	"github.com/commercebridge/ucp-gateway/pkg/redis"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "live"})
	}
}

// HealthReady pings the wired dependencies. Nil pingers are skipped so
// the shopify deployment does not report the absent local database.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			checks["db"] = "ok"
			if err := dbP.Ping(ctx); err != nil {
				checks["db"] = "unreachable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.db_ping", err)
				}
			}
		}

		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.redis_ping", err)
				}
			}
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}

		responses.WriteJSON(w, status, map[string]any{
			"status":  state,
			"backend": cfg.Backend.Normalized(),
			"checks":  checks,
		})
	}
}
