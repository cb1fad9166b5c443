package controllers

import (
	"context"
	"net/http"

	"github.com/DesumovJP/flowerpos/api/responses"
	"github.com/DesumovJP/flowerpos/pkg/config"
	pkgerrors "github.com/DesumovJP/flowerpos/pkg/errors"
	"github.com/DesumovJP/flowerpos/pkg/logger"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FlowerPOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the backing store responds. Redis is
// optional; a terminal running journal-in-memory is still ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FlowerPOS-Env", cfg.App.Env)
		ctx := r.Context()

		checks := map[string]string{"db": "ok", "redis": "disabled"}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "degraded"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "health.redis_degraded")
				}
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
