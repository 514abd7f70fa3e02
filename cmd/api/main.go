package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/passbi/transit_catalogue/internal/api"
	"github.com/passbi/transit_catalogue/internal/cache"
	"github.com/passbi/transit_catalogue/internal/config"
	"github.com/passbi/transit_catalogue/internal/middleware"
	"github.com/passbi/transit_catalogue/internal/transit"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	configPath := flag.String("config", "", "Path to YAML configuration file")
	baseFile := flag.String("file", "", "Base file, overrides storage.path of the file backend")
	flag.Parse()

	log.Println("Starting transit catalogue API server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Load the base once; it is read-only afterwards
	store, closeStore, err := transit.OpenStore(ctx, cfg, *baseFile)
	if err != nil {
		log.Fatalf("Failed to open base store: %v", err)
	}
	state, err := transit.Load(ctx, store)
	closeStore()
	if err != nil {
		log.Fatalf("Failed to load base: %v", err)
	}
	log.Println("✓ Base loaded into memory")

	var rdb *redis.Client
	if cfg.API.RateLimitPerSecond > 0 {
		rdb, err = cache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("✓ Redis connection established")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Transit Catalogue API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: api.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if rdb != nil {
		app.Use(middleware.RateLimit(rdb, cfg.API.RateLimitPerSecond))
	}

	// Routes
	api.Register(app, api.NewHandler(state, rdb))

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.API.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Route: http://localhost%s/v1/route?from=STOP&to=STOP", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
