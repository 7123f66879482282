package handlers

import (
	"log/slog"

	"github.com/jackiboi12/telegram-bot/internal/config"
	"github.com/jackiboi12/telegram-bot/internal/database"
	"github.com/jackiboi12/telegram-bot/internal/generator"
	"github.com/jackiboi12/telegram-bot/internal/intake"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Recorder  *intake.Recorder
	Generator *generator.Generator
}
