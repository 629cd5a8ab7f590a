package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/caregate/caregate/internal/api/handlers"
	"github.com/caregate/caregate/internal/api/router"
	"github.com/caregate/caregate/internal/audit"
	"github.com/caregate/caregate/internal/authflow"
	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/config"
	"github.com/caregate/caregate/internal/limiter"
	"github.com/caregate/caregate/internal/middleware"
	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Session and limiter storage: Redis when configured, memory otherwise
	var sessionStore session.Store
	var limitStore limiter.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessionStore = session.NewRedisStore(client, cfg.Session.TTL)
		limitStore = limiter.NewRedisStore(client)
	} else {
		sessionStore = session.NewMemoryStore()
		limitStore = limiter.NewMemoryStore()
	}

	sessions := session.NewManager(sessionStore)
	codec := session.NewCookieCodec(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.TTL)

	// Audit log: Postgres when configured, memory otherwise
	var auditLog audit.Log
	if cfg.Database.Enabled {
		pg, err := audit.NewPostgresLog(audit.BuildDSN(cfg.Database))
		if err != nil {
			log.Fatalf("Failed to initialize audit log: %v", err)
		}
		auditLog = pg
	} else {
		auditLog = audit.NewMemoryLog()
	}

	// Upstream client and services
	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, sessions)
	careSvc := care.NewService(api)
	cooldown := limiter.NewCooldown(limitStore, cfg.Session.ResendCooldown)
	flow := authflow.New(careSvc, sessions, cooldown)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Caregate",
	})

	// Middleware
	app.Use(recoverer.New())
	app.Use(cors.New())
	app.Use(logger.New())

	// Initialize handlers and middleware
	guard := middleware.NewGuard(sessions, codec)
	rateLimiter := middleware.NewRateLimiter(limitStore, cfg.Server.RateLimit.Enabled)
	authHandler := handlers.NewAuthHandler(flow, careSvc, sessions, guard, auditLog)
	entityHandler := handlers.NewEntityHandler(careSvc, sessions, auditLog)
	dashboardHandler := handlers.NewDashboardHandler(careSvc)

	// Initialize router
	apiRouter := router.NewRouter(
		app,
		authHandler,
		entityHandler,
		dashboardHandler,
		guard,
		rateLimiter,
	)

	// Setup routes
	apiRouter.SetupRoutes()

	// Start server
	log.Printf("Server starting on port %s (upstream %s)", cfg.Server.Port, cfg.Upstream.BaseURL)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
