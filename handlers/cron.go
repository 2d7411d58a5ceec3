package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"financas-go-be/scheduler"
)

// TriggerResponse is the summary returned to the external cron invoker.
type TriggerResponse struct {
	Success   bool   `json:"success"`
	Processed int    `json:"processed"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Date      string `json:"date"`
}

// RunRecurring returns the handler for the scheduler trigger endpoint. The
// endpoint is idempotent by construction: the invoker may deliver the same
// date any number of times (retries, redeploys, overlapping instances) and
// every transaction is still created exactly once.
func RunRecurring(driver *scheduler.Driver, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("CRON_SECRET")
		if secret == "" {
			log.Warn().Msg("cron trigger called without CRON_SECRET configured")
		} else if c.Get("Authorization") != "Bearer "+secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid cron credential"})
		}

		ref := time.Now().UTC()
		if q := c.Query("date"); q != "" {
			parsed, err := time.Parse("2006-01-02", q)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
			}
			ref = parsed
		}

		summary, err := driver.RunFor(c.Context(), ref)
		if err != nil {
			log.Error().Err(err).Msg("recurring run failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Recurring processing failed"})
		}

		return c.JSON(TriggerResponse{
			Success:   true,
			Processed: summary.Candidates,
			Created:   summary.Created,
			Skipped:   summary.Skipped,
			Failed:    summary.Failed,
			Date:      scheduler.Midnight(ref).Format(time.RFC3339),
		})
	}
}
