// Package main implements the Sentinel wildfire detection and response API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asgard/sentinel/internal/api"
	"github.com/asgard/sentinel/internal/api/realtime"
	"github.com/asgard/sentinel/internal/dispatch"
	"github.com/asgard/sentinel/internal/events"
	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/asgard/sentinel/internal/risk"
	"github.com/asgard/sentinel/internal/spread"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/asgard/sentinel/internal/triangulation"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	addr := flag.String("addr", ":8080", "HTTP server address")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.String("db-port", "55432", "PostgreSQL port")
	mongoHost := flag.String("mongo-host", "localhost", "MongoDB host")
	mongoPort := flag.String("mongo-port", "27018", "MongoDB port")
	flag.Parse()

	log.Println("=== Sentinel Wildfire Response API ===")
	log.Printf("HTTP Server: %s", *addr)

	shutdownTracing, err := observability.InitTracing(context.Background(), "sentinel-api")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Printf("Tracing shutdown error: %v", err)
			}
		}()
	}

	os.Setenv("POSTGRES_HOST", *dbHost)
	os.Setenv("POSTGRES_PORT", *dbPort)
	os.Setenv("MONGO_HOST", *mongoHost)
	os.Setenv("MONGO_PORT", *mongoPort)

	cfg, err := db.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	allowNoDB := os.Getenv("SENTINEL_ALLOW_NO_DB") == "true" || os.Getenv("SENTINEL_ALLOW_NO_DB") == "1"

	log.Println("Connecting to PostgreSQL...")
	pgDB, err := db.NewPostgresDB(cfg)
	if err != nil {
		if allowNoDB {
			log.Printf("Warning: PostgreSQL connection failed: %v (continuing without database)", err)
			pgDB = nil
		} else {
			log.Fatalf("PostgreSQL connection failed: %v", err)
		}
	}
	if pgDB != nil {
		log.Println("PostgreSQL connected successfully")
		defer pgDB.Close()
	}

	log.Println("Connecting to MongoDB...")
	mongoDB, err := db.NewMongoDB(cfg)
	if err != nil {
		log.Printf("Warning: MongoDB connection failed: %v", err)
		mongoDB = nil
	} else {
		log.Println("MongoDB connected successfully")
		defer mongoDB.Close(context.Background())
	}

	bus := events.NewBus()
	bus.Start()
	defer bus.Stop()

	var bridge *events.Bridge
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" || cfg.NATSURI() != "" {
		bridgeCfg := events.DefaultBridgeConfig()
		if natsURL != "" {
			bridgeCfg.URL = natsURL
		} else {
			bridgeCfg.URL = cfg.NATSURI()
		}
		if cfg.MissionsTopic != "" {
			bridgeCfg.MissionsTopic = cfg.MissionsTopic
		}
		bridge, err = events.NewBridge(bridgeCfg)
		if err != nil {
			log.Printf("Warning: NATS bridge unavailable: %v (mission updates will not mirror externally)", err)
			bridge = nil
		} else {
			bridge.Attach(bus)
			defer bridge.Close()
			log.Println("NATS mission bridge attached")
		}
	}

	trackStore := tracks.NewStore()
	broadcaster := realtime.NewBroadcaster()
	go broadcaster.Start()
	defer broadcaster.Stop()

	var (
		observations *store.ObservationRepository
		archive      *store.SensorArchive
		detections   *store.DetectionRepository
		missions     *store.MissionRepository
		tasks        *store.TaskRepository
	)
	if pgDB != nil {
		observations = store.NewObservationRepository(pgDB)
		detections = store.NewDetectionRepository(pgDB)
		missions = store.NewMissionRepository(pgDB)
		tasks = store.NewTaskRepository(pgDB)
	}
	if mongoDB != nil {
		archive = store.NewSensorArchive(mongoDB)
	}

	coordinator := dispatch.NewCoordinator(missions, detections, trackStore, bus, broadcaster)
	defer coordinator.Stop()

	triangulator := triangulation.NewEngine()
	spreadEngine := spread.NewEngine()
	riskEngine := risk.NewEngine()

	router := api.NewRouter(api.Dependencies{
		Observations:   observations,
		Archive:        archive,
		Detections:     detections,
		Missions:       missions,
		Tasks:          tasks,
		Tracks:         trackStore,
		Coordinator:    coordinator,
		Triangulator:   triangulator,
		SpreadEngine:   spreadEngine,
		RiskEngine:     riskEngine,
		Broadcaster:    broadcaster,
		AllowedOrigins: cfg.AllowedOrigins,
		SecretKey:      cfg.SecretKey,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on %s", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("Sentinel is ready and accepting connections")
	log.Println("API Endpoints:")
	log.Println("  - Health:        GET   /health")
	log.Println("  - Telemetry:     POST  /api/v1/telemetry")
	log.Println("  - Detections:    POST  /api/v1/detections")
	log.Println("  - Missions:      POST  /api/v1/missions, PATCH /api/v1/missions/{mission_id}")
	log.Println("  - Triangulation: POST  /api/v1/triangulation/triangulate")
	log.Println("  - Prediction:    POST  /api/v1/prediction/simulate, /api/v1/prediction/risk")
	log.Println("  - Live events:   WS    /ws/events")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down Sentinel...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Sentinel stopped")
}
