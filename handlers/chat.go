package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"financas-go-be/database"
	"financas-go-be/models"
)

const (
	maxInputLength     = 400
	maxHistoryMessages = 30
	chatModel          = "gemini-1.5-flash"
)

// ChatRequest is a single question for the assistant.
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat answers a financial question with the user's recent ledger as context.
func Chat(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}
	if len(req.Message) > maxInputLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message too long"})
	}

	// Daily question cap for non-Pro users.
	if !isPro(userID) {
		var count int64
		database.DB.Model(&models.ChatMessage{}).
			Where("user_id = ? AND role = ? AND created_at >= ?", userID, "user", startOfDay(time.Now().UTC())).
			Count(&count)
		if count >= dailyQuestionLimit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Daily question limit reached"})
		}
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Error().Msg("GEMINI_API_KEY not set")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Assistant unavailable"})
	}

	prompt := buildFinancialPrompt(userID, req.Message)

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		log.Error().Err(err).Msg("failed to init AI client")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to init AI client"})
	}

	resp, err := client.Models.GenerateContent(ctx, chatModel, genai.Text(prompt), nil)
	if err != nil {
		log.Error().Err(err).Msg("AI generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "AI generation failed"})
	}

	reply := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				reply += part.Text
			}
		}
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Empty response from AI"})
	}

	database.DB.Create(&models.ChatMessage{ID: uuid.New(), UserID: userID, Role: "user", Content: req.Message})
	database.DB.Create(&models.ChatMessage{ID: uuid.New(), UserID: userID, Role: "assistant", Content: reply})

	return c.JSON(fiber.Map{"reply": reply})
}

// ChatHistory returns the most recent conversation turns, oldest first.
func ChatHistory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var messages []models.ChatMessage
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at desc").Limit(maxHistoryMessages).Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch history"})
	}

	// Reverse to chronological order for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return c.JSON(messages)
}

// buildFinancialPrompt summarizes the user's recent ledger so the model can
// answer with real numbers. Kept to the last 100 transactions to bound token
// usage.
func buildFinancialPrompt(userID uuid.UUID, question string) string {
	var txns []models.Transaction
	database.DB.Where("user_id = ?", userID).Order("date desc").Limit(100).Find(&txns)

	now := time.Now().UTC()
	monthStart := startOfMonth(now)
	var income, expense int64
	for _, t := range txns {
		if t.Date.Before(monthStart) {
			continue
		}
		if t.Type == models.TypeIncome {
			income += t.AmountCents
		} else {
			expense += t.AmountCents
		}
	}

	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Answer concisely in the user's language.\n")
	b.WriteString("Amounts are in minor currency units (cents).\n\n")
	fmt.Fprintf(&b, "Current month income: %d cents. Current month expenses: %d cents.\n", income, expense)
	b.WriteString("Recent transactions:\n")
	for i, t := range txns {
		if i >= 30 {
			break
		}
		fmt.Fprintf(&b, "- %s | %s | %s | %d cents\n", t.Date.Format("2006-01-02"), t.Type, t.Description, t.AmountCents)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
