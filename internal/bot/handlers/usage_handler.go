package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUsageHandler returns a handler for the /usage command, which reports
// the caller's accumulated token usage.
func NewUsageHandler(deps HandlerDeps) bot.HandlerFunc {
	return usageHandler{deps}.Handle
}

type usageHandler struct {
	deps HandlerDeps
}

func (h usageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "usage")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Usage handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /usage command", "chat_id", chatID, "user_id", userID)

	user, err := h.deps.Store.GetUser(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user for usage report", "error", err, "user_id", userID)
		replyText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if user == nil {
		replyText(ctx, b, log, chatID, "I don't know you yet. Send /start first!")
		return
	}

	reply := fmt.Sprintf("📊 Your usage so far:\nPrompt tokens: %d\nCompletion tokens: %d",
		user.PromptTokens, user.CompletionTokens)
	replyText(ctx, b, log, chatID, reply)
}
