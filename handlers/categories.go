package handlers

import (
	"github.com/gofiber/fiber/v2"

	"financas-go-be/database"
	"financas-go-be/models"
)

// ListCategories returns the seeded categories for the caller's mode.
func ListCategories(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	mode := models.ModePersonal
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err == nil && user.Mode != "" {
		mode = user.Mode
	}

	var categories []models.Category
	if err := database.DB.Where("mode = ?", mode).Order("type, name").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch categories"})
	}
	return c.JSON(categories)
}
