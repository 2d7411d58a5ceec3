package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"financas-go-be/database"
	"financas-go-be/models"
)

// Freemium limits, mirrored from the pricing page.
const (
	freemiumMaxRecurrences       = 3
	freemiumTransactionsPerMonth = 12
	dailyQuestionLimit           = 16
)

// currentUserID extracts the authenticated user from the X-User-ID header.
// TODO: replace with real auth middleware once the session service lands.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Get("X-User-ID"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User ID required in X-User-ID header")
	}
	return id, nil
}

// isPro reports whether the user has an active subscription.
func isPro(userID uuid.UUID) bool {
	var sub models.Subscription
	if err := database.DB.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return false
	}
	return sub.Status == models.SubActive
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
