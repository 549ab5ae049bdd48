package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bikeshare/internal/handler"
	"bikeshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ReservationHandler *handler.ReservationHandler
	StationHandler     *handler.StationHandler
	PlanHandler        *handler.PlanHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Reservation routes.
		reservations := v1.Group("/reservations")
		{
			reservations.POST("", deps.ReservationHandler.CreateReservation)
			reservations.GET("/active", deps.ReservationHandler.GetActive)
			reservations.GET("/history", deps.ReservationHandler.GetHistory)
			reservations.GET("/estimate", deps.ReservationHandler.Estimate)
			reservations.POST("/:id/end", deps.ReservationHandler.EndReservation)
			reservations.POST("/:id/cancel", deps.ReservationHandler.CancelReservation)
		}

		// Station routes.
		stations := v1.Group("/stations")
		{
			stations.POST("", deps.StationHandler.CreateStation)
			stations.GET("", deps.StationHandler.GetAll)
			stations.GET("/nearby", deps.StationHandler.GetNearby)
			stations.GET("/:id", deps.StationHandler.GetStation)
		}

		// Bike routes.
		bikes := v1.Group("/bikes")
		{
			bikes.POST("", deps.StationHandler.AddBike)
			bikes.PATCH("/:id/battery", deps.StationHandler.UpdateBattery)
		}

		// Pricing plan routes.
		v1.GET("/plans", deps.PlanHandler.GetAll)
	}

	return router
}
