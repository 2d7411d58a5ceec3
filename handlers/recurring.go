package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"financas-go-be/database"
	"financas-go-be/models"
	"financas-go-be/scheduler"
)

// CreateRecurringRequest is the payload for declaring a recurring rule.
type CreateRecurringRequest struct {
	Description       string                 `json:"description"`
	AmountCents       int64                  `json:"amount_cents"`
	TransactionType   models.TransactionType `json:"transaction_type"`
	Type              models.RecurrenceType  `json:"type"`
	CategoryID        uuid.UUID              `json:"category_id"`
	DayOfMonth        *int                   `json:"day_of_month"`
	DayOfWeek         *int                   `json:"day_of_week"`
	TotalInstallments *int                   `json:"total_installments"`
	StartDate         *time.Time             `json:"start_date"`
}

// ListRecurring returns the caller's rules, newest first.
func ListRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var rules []models.RecurringRule
	if err := database.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&rules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recurring rules"})
	}
	return c.JSON(rules)
}

// CreateRecurring validates and persists a new rule. Malformed rules are
// rejected here so they can never reach the scheduler.
func CreateRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateRecurringRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Description == "" || req.AmountCents <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Description and a positive amount are required"})
	}
	if req.TransactionType != models.TypeIncome && req.TransactionType != models.TypeExpense {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction type"})
	}

	rule := models.RecurringRule{
		ID:              uuid.New(),
		UserID:          userID,
		Description:     req.Description,
		AmountCents:     req.AmountCents,
		TransactionType: req.TransactionType,
		Type:            req.Type,
		CategoryID:      req.CategoryID,
		StartDate:       scheduler.Midnight(time.Now().UTC()),
		IsActive:        true,
	}

	switch req.Type {
	case models.RecurrenceMonthly:
		// 29-31 are rejected so short months never have undefined behavior.
		if req.DayOfMonth == nil || *req.DayOfMonth < 1 || *req.DayOfMonth > 28 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_month must be between 1 and 28"})
		}
		rule.DayOfMonth = req.DayOfMonth
	case models.RecurrenceWeekly:
		if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_week must be between 0 (Sunday) and 6"})
		}
		rule.DayOfWeek = req.DayOfWeek
	case models.RecurrenceInstallment:
		if req.TotalInstallments == nil || *req.TotalInstallments < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_installments must be at least 1"})
		}
		rule.TotalInstallments = req.TotalInstallments
		if req.StartDate != nil {
			rule.StartDate = scheduler.Midnight(*req.StartDate)
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recurrence type"})
	}

	// Category must exist and match the rule's transaction type; the
	// scheduler trusts category_id on persisted rules.
	var category models.Category
	if err := database.DB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Category not found"})
	}
	if category.Type != req.TransactionType {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Category does not match transaction type"})
	}

	if !isPro(userID) {
		var count int64
		database.DB.Model(&models.RecurringRule{}).Where("user_id = ?", userID).Count(&count)
		if count >= freemiumMaxRecurrences {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Recurrence limit reached. Upgrade to Pro."})
		}
	}

	if err := database.DB.Create(&rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create recurring rule"})
	}
	return c.JSON(rule)
}

// UpdateRecurringRequest whitelists the fields a PATCH may touch.
type UpdateRecurringRequest struct {
	Description *string `json:"description"`
	AmountCents *int64  `json:"amount_cents"`
	DayOfMonth  *int    `json:"day_of_month"`
	DayOfWeek   *int    `json:"day_of_week"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateRecurring patches an owned rule, whitelisting fields to prevent mass
// assignment.
func UpdateRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	ruleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule id"})
	}

	var rule models.RecurringRule
	if err := database.DB.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recurring rule not found"})
	}

	var req UpdateRecurringRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.AmountCents != nil {
		if *req.AmountCents <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive"})
		}
		rule.AmountCents = *req.AmountCents
	}
	if req.DayOfMonth != nil {
		if rule.Type != models.RecurrenceMonthly || *req.DayOfMonth < 1 || *req.DayOfMonth > 28 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_month must be between 1 and 28 on a monthly rule"})
		}
		rule.DayOfMonth = req.DayOfMonth
	}
	if req.DayOfWeek != nil {
		if rule.Type != models.RecurrenceWeekly || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_week must be between 0 and 6 on a weekly rule"})
		}
		rule.DayOfWeek = req.DayOfWeek
	}
	if req.IsActive != nil {
		// A fully paid installment stays inactive no matter what.
		if *req.IsActive && rule.Type == models.RecurrenceInstallment &&
			rule.TotalInstallments != nil && rule.PaidInstallments >= *rule.TotalInstallments {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Installment rule is already completed"})
		}
		rule.IsActive = *req.IsActive
	}

	if err := database.DB.Save(&rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update recurring rule"})
	}
	return c.JSON(rule)
}

// DeleteRecurring removes an owned rule. Run markers are retained as audit
// history unless RETAIN_RUN_HISTORY=false, in which case they are deleted in
// the same storage transaction.
func DeleteRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	ruleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rule id"})
	}

	var rule models.RecurringRule
	if err := database.DB.Where("id = ? AND user_id = ?", ruleID, userID).First(&rule).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recurring rule not found"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if os.Getenv("RETAIN_RUN_HISTORY") == "false" {
			if err := tx.Where("recurring_rule_id = ?", rule.ID).Delete(&models.RecurringRun{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&rule).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete recurring rule"})
	}
	return c.JSON(fiber.Map{"success": true})
}
