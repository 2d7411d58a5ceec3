package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"financas-go-be/database"
	"financas-go-be/models"
)

// CreateTransactionRequest is the payload for a manual ledger entry.
type CreateTransactionRequest struct {
	Type        models.TransactionType `json:"type"`
	CategoryID  uuid.UUID              `json:"category_id"`
	Description string                 `json:"description"`
	AmountCents int64                  `json:"amount_cents"`
	Date        time.Time              `json:"date"`
}

// ListTransactions returns the caller's transactions, newest first.
func ListTransactions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var txns []models.Transaction
	if err := database.DB.Where("user_id = ?", userID).Order("date desc").Find(&txns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}
	return c.JSON(txns)
}

// CreateTransaction records a manual ledger entry. Scheduler-created entries
// never pass through here; they are written by the execution ledger.
func CreateTransaction(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Description == "" || req.AmountCents <= 0 || req.Date.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Description, a positive amount and a date are required"})
	}

	var category models.Category
	if err := database.DB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Category not found"})
	}
	if category.Type != req.Type {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Category does not match transaction type"})
	}

	if !isPro(userID) {
		var count int64
		database.DB.Model(&models.Transaction{}).
			Where("user_id = ? AND recurring_rule_id IS NULL AND created_at >= ?", userID, startOfMonth(time.Now().UTC())).
			Count(&count)
		if count >= freemiumTransactionsPerMonth {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Transaction limit reached. Upgrade to Pro."})
		}
	}

	txn := models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Date:        req.Date,
	}
	if err := database.DB.Create(&txn).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create transaction"})
	}
	return c.JSON(txn)
}

// DeleteTransaction removes an owned transaction.
func DeleteTransaction(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	txnID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction id"})
	}

	res := database.DB.Where("id = ? AND user_id = ?", txnID, userID).Delete(&models.Transaction{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete transaction"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}
