package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewEventHandler returns the default handler for plain text messages.
// Every non-command text message becomes a recorded event for the sender's
// daily aggregation.
func NewEventHandler(deps HandlerDeps) bot.HandlerFunc {
	return eventHandler{deps}.Handle
}

type eventHandler struct {
	deps HandlerDeps
}

func (h eventHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "event")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	text := msg.Text
	if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "/") {
		// Unknown commands and non-text updates are not events.
		return
	}

	chatID := msg.Chat.ID
	ack, err := h.deps.Recorder.Record(ctx, msg.From.ID, text, time.Now())
	if err != nil {
		log.ErrorContext(ctx, "Failed to record event", "error", err, "user_id", msg.From.ID)
		replyText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.DebugContext(ctx, "Event acknowledged", "event_id", ack.EventID, "chat_id", chatID)
	replyText(ctx, b, log, chatID, h.deps.Config.Messages.EventSaved)
}
