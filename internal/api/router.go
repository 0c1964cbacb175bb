// Package api provides HTTP routing and handlers for the sentinel API server.
package api

import (
	"net/http"

	"github.com/asgard/sentinel/internal/api/handlers"
	apimiddleware "github.com/asgard/sentinel/internal/api/middleware"
	"github.com/asgard/sentinel/internal/api/realtime"
	"github.com/asgard/sentinel/internal/dispatch"
	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/asgard/sentinel/internal/risk"
	"github.com/asgard/sentinel/internal/spread"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/asgard/sentinel/internal/triangulation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies bundles everything the router needs to construct handlers.
// Grouping the wiring here keeps cmd/sentinel-api/main.go a thin assembly
// script, matching how the original repo's NewRouter constructor took every
// collaborating service as a parameter.
type Dependencies struct {
	Observations *store.ObservationRepository
	Archive      *store.SensorArchive
	Detections   *store.DetectionRepository
	Missions     *store.MissionRepository
	Tasks        *store.TaskRepository
	Tracks       *tracks.Store
	Coordinator  *dispatch.Coordinator
	Triangulator *triangulation.Engine
	SpreadEngine *spread.Engine
	RiskEngine   *risk.Engine
	Broadcaster  *realtime.Broadcaster
	AllowedOrigins []string
	SecretKey      string
}

// NewRouter sets up all API routes and handlers.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.HTTPMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler()
	telemetryHandler := handlers.NewTelemetryHandler(deps.Observations, deps.Archive)
	detectionHandler := handlers.NewDetectionHandler(deps.Coordinator, deps.Detections, deps.Tracks)
	missionHandler := handlers.NewMissionHandler(deps.Coordinator, deps.Missions)
	triangulationHandler := handlers.NewTriangulationHandler(deps.Triangulator)
	predictionHandler := handlers.NewPredictionHandler(deps.SpreadEngine, deps.RiskEngine)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	statsHandler := handlers.NewStatsHandler(deps.Missions, deps.Detections, deps.Tracks)

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.SecretKey != "" {
			r.Use(apimiddleware.OptionalAuth(deps.SecretKey))
		}

		r.Route("/telemetry", func(r chi.Router) {
			r.Post("/", telemetryHandler.Create)
			r.Get("/", telemetryHandler.List)
			r.Get("/devices", telemetryHandler.ListDevices)
			r.Get("/devices/{id}/latest", telemetryHandler.Latest)
		})

		r.Route("/detections", func(r chi.Router) {
			r.Post("/", detectionHandler.Create)
			r.Get("/tracks", detectionHandler.ListTracks)
		})

		r.Route("/missions", func(r chi.Router) {
			r.Post("/", missionHandler.Create)
			r.Get("/", missionHandler.List)
			r.Patch("/{mission_id}", missionHandler.Update)
		})

		r.Route("/triangulation", func(r chi.Router) {
			r.Post("/triangulate", triangulationHandler.Triangulate)
		})

		r.Route("/prediction", func(r chi.Router) {
			r.Post("/simulate", predictionHandler.Simulate)
			r.Post("/risk", predictionHandler.Score)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
		})

		r.Get("/stats", statsHandler.Get)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			realtime.HandleWebSocket(w, r, deps.Broadcaster)
		})
	})

	return r
}
