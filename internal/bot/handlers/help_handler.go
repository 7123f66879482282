package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = `Here's how it works:

Send me any text message and I'll record it as an event for today.

/generate — turn today's events into LinkedIn, Facebook, and Twitter post drafts
/usage — show your accumulated token usage
/help — show this message`

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil {
		return
	}

	replyText(ctx, b, log, update.Message.Chat.ID, helpText)
}
