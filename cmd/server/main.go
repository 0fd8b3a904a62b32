package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads variables from a .env file
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/fire-safety-monitor/internal/config"     // Internal config loader
	"github.com/iliyamo/fire-safety-monitor/internal/database"   // MySQL connection pool
	"github.com/iliyamo/fire-safety-monitor/internal/handler"    // HTTP handlers
	"github.com/iliyamo/fire-safety-monitor/internal/middleware" // JWT auth and response cache
	"github.com/iliyamo/fire-safety-monitor/internal/queue"      // Incident event consumer
	"github.com/iliyamo/fire-safety-monitor/internal/repository" // Data access layer
	"github.com/iliyamo/fire-safety-monitor/internal/router"     // Route registration
	queue_publisher "github.com/iliyamo/fire-safety-monitor/internal/service"
)

func main() {
	// Load a local .env file when present.  In containers the variables
	// arrive through the environment, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool.  The service cannot do anything useful without
	// its database, so a failure here is fatal.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache on the public browse endpoints.  It is
	// optional: when the client cannot be reached the API simply serves
	// every request from MySQL.
	var cacheMW echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable, response cache disabled")
	}

	// Repositories wrap the shared pool, one per entity.
	userRepo := repository.NewUserRepo(db)
	buildingRepo := repository.NewBuildingRepo(db)
	sensorRepo := repository.NewSensorRepo(db)
	incidentRepo := repository.NewIncidentRepo(db)

	// Handlers carry the business rules and depend on the repositories
	// through narrow interfaces.
	authH := handler.NewAuthHandler(cfg, userRepo)
	userH := handler.NewUserHandler(cfg, userRepo)
	buildingH := handler.NewBuildingHandler(buildingRepo)
	sensorH := handler.NewSensorHandler(sensorRepo, buildingRepo)
	incidentH := handler.NewIncidentHandler(incidentRepo, sensorRepo, queue_publisher.New())

	e := echo.New() // Create Echo instance
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authH)
	router.RegisterResources(e, userH, buildingH, sensorH, incidentH, cfg.JWTSecret, userRepo, cacheMW)

	// Consume incident.reported events in the background.  The consumer
	// reconnects on its own, so losing the broker never takes the API down.
	go queue.StartIncidentConsumer()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
