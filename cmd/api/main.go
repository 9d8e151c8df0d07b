package main

import (
	"fmt"
	"log"
	"time"

	"studyspace-api/config"
	"studyspace-api/handlers"
	"studyspace-api/metrics"
	"studyspace-api/middleware"
	"studyspace-api/models"
	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis. The API keeps serving without it: caching and the
	// live feed turn off, session revocation falls back to token expiry.
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, continuing in degraded mode: %v", err)
	}
	defer cache.Close()

	// Services
	authService := services.NewAuthService(cfg.JWT)
	casClient := services.NewCASClient(cfg.CAS)

	params := metrics.Params{
		HalfLife:     time.Duration(cfg.Metrics.HalfLifeMin) * time.Minute,
		Lookback:     time.Duration(cfg.Metrics.LookbackMin) * time.Minute,
		RecentWindow: time.Duration(cfg.Metrics.RecentWindowMin) * time.Minute,
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(db, cache, authService, casClient, cfg)
	venuesHandler := handlers.NewVenuesHandler(db, cache, params)
	checkinsHandler := handlers.NewCheckinsHandler(db, cache)
	ratingsHandler := handlers.NewRatingsHandler(db, cache)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	requireSession := middleware.RequireSession(authService, cache)
	requireAdmin := middleware.RequireAdmin()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Authentication
	auth := router.Group("/auth")
	{
		auth.GET("/cas/login", authHandler.CASLogin)
		auth.GET("/cas/callback", authHandler.CASCallback)
		auth.GET("/dev/login", authHandler.DevLogin)
		auth.POST("/admin/login", authHandler.AdminLogin)
		auth.GET("/me", requireSession, authHandler.Me)
		auth.POST("/logout", requireSession, authHandler.Logout)
	}

	// Venues
	venues := router.Group("/venues")
	{
		venues.GET("", venuesHandler.List)
		venues.GET("/nearby", venuesHandler.Nearby)
		venues.GET("/nearest", venuesHandler.Nearest)
		venues.GET("/with_occupancy", venuesHandler.WithOccupancy)
		venues.GET("/:id", venuesHandler.Get)
		venues.GET("/:id/status", venuesHandler.Status)
		venues.GET("/:id/history", venuesHandler.History)
		venues.GET("/:id/forecast", venuesHandler.Forecast)
		venues.GET("/:id/alternatives", venuesHandler.Alternatives)
		venues.GET("/:id/ratings", ratingsHandler.ListForVenue)

		venues.POST("", requireSession, requireAdmin, venuesHandler.Create)
		venues.PATCH("/:id", requireSession, requireAdmin, venuesHandler.Update)
	}
	router.GET("/venues.geojson", venuesHandler.GeoJSON)
	router.GET("/map", handlers.MapPage)

	// Check-ins
	checkins := router.Group("/checkins")
	{
		checkins.GET("", requireSession, checkinsHandler.Counts)
		checkins.POST("", requireSession, checkinsHandler.Create)
		checkins.POST("/heartbeat", requireSession, checkinsHandler.Heartbeat)
		checkins.POST("/checkout", requireSession, checkinsHandler.Checkout)
	}

	// Ratings
	router.POST("/ratings", ratingsHandler.Create)

	// Live updates
	router.GET("/ws/live", handlers.LiveWebSocket(cache, authService))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
