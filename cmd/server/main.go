package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bikeshare/internal/app"
	"bikeshare/internal/config"
	"bikeshare/internal/domain"
	"bikeshare/internal/handler"
	internalRedis "bikeshare/internal/redis"
	"bikeshare/internal/repository/postgres"
	"bikeshare/internal/service"
)

func main() {
	// Load .env if present, then configuration from the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, reconciler, err := wireServer(ctx, db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	if err := reconciler.Start(); err != nil {
		log.Fatalf("failed to start inventory reconciler: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	reconciler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// background reconciler.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.InventoryReconciler, error) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	stationRepo := postgres.NewStationRepository(db)
	bikeRepo := postgres.NewBikeRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	// Seed the in-memory inventory and the geo index from persisted state.
	inventory := service.NewStationInventory()
	stations, err := stationRepo.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, station := range stations {
		bikes, err := bikeRepo.GetByStation(ctx, station.ID)
		if err != nil {
			return nil, nil, err
		}
		docked := make([]domain.Bike, 0, len(bikes))
		for _, b := range bikes {
			docked = append(docked, *b)
		}
		if err := inventory.AddStation(*station, docked); err != nil {
			return nil, nil, err
		}
		if err := locationStore.AddStation(ctx, station.ID, station.Lat, station.Lng); err != nil {
			log.Printf("failed to index station %s location: %v", station.ID, err)
		}
	}
	log.Printf("Loaded %d stations into inventory", len(stations))

	// Initialize services.
	notificationService := service.NewNotificationService()
	pricingEngine := service.NewPricingEngine()
	registry := service.NewReservationRegistry()
	reservationService := service.NewReservationService(
		inventory,
		registry,
		pricingEngine,
		lockStore,
		cacheStore,
		reservationRepo,
		bikeRepo,
		stationRepo,
		notificationService,
		cfg.Reservation.MaxDurationMinutes,
	)
	stationService := service.NewStationService(inventory, locationStore, stationRepo, bikeRepo)
	reconciler := service.NewInventoryReconciler(inventory, stationRepo, notificationService, cfg.Reservation.ReconcileSchedule)

	// Initialize handlers.
	reservationHandler := handler.NewReservationHandler(reservationService)
	stationHandler := handler.NewStationHandler(stationService)
	planHandler := handler.NewPlanHandler()

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ReservationHandler: reservationHandler,
		StationHandler:     stationHandler,
		PlanHandler:        planHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, reconciler, nil
}
