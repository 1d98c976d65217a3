package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chiops/fleetops-backend/api/controllers"
	"github.com/chiops/fleetops-backend/api/middleware"
	"github.com/chiops/fleetops-backend/internal/assignments"
	"github.com/chiops/fleetops-backend/internal/vehicles"
	"github.com/chiops/fleetops-backend/pkg/config"
	"github.com/chiops/fleetops-backend/pkg/db"
	"github.com/chiops/fleetops-backend/pkg/logger"
	"github.com/chiops/fleetops-backend/pkg/metrics"
	"github.com/chiops/fleetops-backend/pkg/redis"
	"github.com/chiops/fleetops-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	httpMetrics *metrics.HTTPMetrics,
	vehicleService vehicles.Service,
	assignmentService assignments.Service,
) http.Handler {
	// A typed nil must not masquerade as a live store behind the interfaces.
	var idemStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisPinger = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger, gcsClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", controllers.VehicleCreate(vehicleService, logg))
			r.Get("/", controllers.VehicleList(vehicleService, logg))
			r.Get("/model/{model}", controllers.VehiclesByModel(vehicleService, logg))
			r.Get("/{vin}", controllers.VehicleByVIN(vehicleService, logg))
			r.Put("/{vin}", controllers.VehicleUpdate(vehicleService, logg))
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/assign", controllers.AssignmentCreate(assignmentService, logg))
			r.Post("/release", controllers.AssignmentRelease(assignmentService, logg))
			r.Post("/change-driver", controllers.AssignmentChangeDriver(assignmentService, logg))
			r.Get("/history", controllers.AssignmentHistory(assignmentService, logg))
			r.Get("/status/{status}", controllers.AssignmentsByStatus(assignmentService, logg))
			r.Get("/vehicle/{vin}", controllers.AssignmentByVIN(assignmentService, logg))
		})
	})

	return r
}
