package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/chiops/fleetops-backend/api/responses"
	"github.com/chiops/fleetops-backend/pkg/config"
	"github.com/chiops/fleetops-backend/pkg/db"
	pkgerrors "github.com/chiops/fleetops-backend/pkg/errors"
	"github.com/chiops/fleetops-backend/pkg/logger"
	"github.com/chiops/fleetops-backend/pkg/redis"
	"github.com/chiops/fleetops-backend/pkg/storage/gcs"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleet-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleet-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		failed := false

		check := func(name string, p interface {
			Ping(context.Context) error
		}) {
			if p == nil {
				checks[name] = "skipped"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = true
				if logg != nil {
					logg.Error(ctx, "readiness."+name, err)
				}
				return
			}
			checks[name] = "up"
		}

		check("postgres", dbP)
		check("redis", redisP)
		check("gcs", gcsP)

		if failed {
			responses.WriteError(ctx, logg, w, r,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
