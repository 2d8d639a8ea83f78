package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/whachapay/backend/config"
	"github.com/whachapay/backend/database"
	"github.com/whachapay/backend/handlers"
	"github.com/whachapay/backend/services"
	"github.com/whachapay/backend/workflow"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations and seed the catalog if it is empty
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := database.SeedCatalog("database/fixtures.json"); err != nil {
		log.Printf("Fixture warning: %v", err)
	}

	// Initialize services
	catalogService := services.NewCatalogService(database.DB)
	dealService := services.NewDealService(database.DB)
	placesService := services.NewPlacesService(
		cfg.PlacesBaseURL,
		cfg.PlacesAPIKey,
		cfg.GetPlacesRadius(),
		cfg.GetPlacesTimeout(),
	)

	// Per-visitor workflow state lives in the server-side session store
	sessions := workflow.NewManager(cfg.GetSessionTTL())

	// Initialize handlers
	homeHandler := handlers.NewHomeHandler(catalogService, placesService, sessions)
	dealerHandler := handlers.NewDealerHandler(catalogService, dealService, sessions, cfg.GetPageSize())
	dealHandler := handlers.NewDealHandler(catalogService, dealService, sessions)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	app.Get("/", homeHandler.Home)
	app.Get("/update_selections", homeHandler.UpdateSelections)
	app.Get("/dealer_select", dealerHandler.DealerSelect)
	app.Get("/entry/:place_id", dealHandler.DealEntry)
	app.Post("/entry/:place_id", dealHandler.DealEntry)
	app.Get("/deal_entered", dealHandler.DealEntered)
	app.Get("/area_summary", dealerHandler.AreaSummary)
	app.Get("/dealer_deals/:place_id", dealerHandler.DealerDeals)
	app.Get("/deal/:id", dealHandler.DealDetail)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
