package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/jackiboi12/telegram-bot/internal/generator"
)

// NewGenerateHandler returns a handler for the /generate command. It posts a
// placeholder while the generation workflow runs, then replaces it with the
// drafted posts or a reply describing the typed failure. Raw provider and
// store errors stay in the logs.
func NewGenerateHandler(deps HandlerDeps) bot.HandlerFunc {
	return generateHandler{deps}.Handle
}

type generateHandler struct {
	deps HandlerDeps
}

func (h generateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "generate")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Generate handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /generate command", "chat_id", chatID, "user_id", from.ID)

	placeholder, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf(h.deps.Config.Messages.Crafting, from.FirstName),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send placeholder message", "error", err, "chat_id", chatID)
		// Generation can still proceed; the user just misses the progress note.
	}

	result, genErr := h.deps.Generator.Generate(ctx, from.ID, time.Now())

	if placeholder != nil {
		_, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: placeholder.ID})
		if err != nil {
			log.WarnContext(ctx, "Failed to delete placeholder message", "error", err, "chat_id", chatID)
		}
	}

	if genErr != nil {
		replyText(ctx, b, log, chatID, h.failureReply(genErr))
		return
	}

	replyText(ctx, b, log, chatID, result.Text)
}

// failureReply maps a typed generation failure to its user-facing message.
func (h generateHandler) failureReply(err error) string {
	msgs := h.deps.Config.Messages
	switch {
	case errors.Is(err, generator.ErrRateLimited):
		return msgs.RateLimited
	case errors.Is(err, generator.ErrNoEvents):
		return msgs.NoEvents
	case errors.Is(err, generator.ErrQuotaExceeded):
		return msgs.QuotaReached
	default:
		return msgs.GeneralError
	}
}
