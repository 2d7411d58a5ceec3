package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"financas-go-be/database"
	"financas-go-be/handlers"
	"financas-go-be/scheduler"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Connect to Database
	database.ConnectDB()

	// Wire the recurring scheduler
	ruleStore := scheduler.NewGormRuleStore(database.DB)
	ledger := scheduler.NewGormExecutionLedger(database.DB)
	materializer := scheduler.NewMaterializer(ruleStore, ledger, logger)
	driver := scheduler.NewDriver(ruleStore, materializer, logger)

	// Initialize Fiber app
	app := fiber.New()

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health Check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Scheduler trigger (GET alias kept for easier manual invocation)
	runRecurring := handlers.RunRecurring(driver, logger)
	api.Post("/cron/recurring", runRecurring)
	api.Get("/cron/recurring", runRecurring)

	// Recurring rules
	api.Get("/recurring", handlers.ListRecurring)
	api.Post("/recurring", handlers.CreateRecurring)
	api.Patch("/recurring/:id", handlers.UpdateRecurring)
	api.Delete("/recurring/:id", handlers.DeleteRecurring)

	// Transactions
	api.Get("/transactions", handlers.ListTransactions)
	api.Post("/transactions", handlers.CreateTransaction)
	api.Delete("/transactions/:id", handlers.DeleteTransaction)

	// Categories
	api.Get("/categories", handlers.ListCategories)

	// AI Assistant
	api.Post("/chat", handlers.Chat)
	api.Get("/chat/history", handlers.ChatHistory)

	// Optional built-in daily trigger. External cron hitting the endpoint is
	// the primary mechanism; this covers deployments without one. Both may
	// fire for the same date, which the scheduler tolerates.
	if spec := os.Getenv("CRON_SCHEDULE"); spec != "" {
		c := cron.New()
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := driver.RunFor(ctx, time.Now().UTC()); err != nil {
				logger.Error().Err(err).Msg("scheduled recurring run failed")
			}
		})
		if err != nil {
			log.Fatal("Invalid CRON_SCHEDULE. \n", err)
		}
		c.Start()
		logger.Info().Str("schedule", spec).Msg("built-in recurring trigger enabled")
	}

	// Start Server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Fatal(app.Listen(":" + port))
}
