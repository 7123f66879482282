package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jackiboi12/telegram-bot/internal/database"
)

// NewStartHandler returns a handler for the /start command. It onboards the
// sender (insert-only profile upsert) and sends a personalized welcome.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", from.ID)

	_, err := h.deps.Store.EnsureUser(ctx, &database.User{
		UserID:    from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.Username,
		IsBot:     from.IsBot,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to ensure user profile", "error", err, "user_id", from.ID)
		replyText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	replyText(ctx, b, log, chatID, fmt.Sprintf(h.deps.Config.Messages.Welcome, from.FirstName))
}
