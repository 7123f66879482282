// Package config loads and validates application configuration from a YAML
// file and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config holds the full application configuration. Values can be set in
// config.yaml or through environment variables prefixed with BOT_
// (e.g. BOT_TELEGRAM_TOKEN, BOT_GEMINI_API_KEY).
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credential and runtime bot identity.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// BotInfo is populated at startup via GetMe, not from the config file.
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key" validate:"required"`
	Model           string        `mapstructure:"model" validate:"required"`
	Instruction     string        `mapstructure:"instruction"`
	Temperature     float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens" validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
}

// GeneratorConfig holds post-generation workflow settings.
type GeneratorConfig struct {
	// Cooldown is the minimum time a user must wait between accepted
	// /generate requests.
	Cooldown time.Duration `mapstructure:"cooldown" validate:"gt=0"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds the user-facing reply texts.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"`
	EventSaved   string `mapstructure:"event_saved"`
	Crafting     string `mapstructure:"crafting"`
	RateLimited  string `mapstructure:"rate_limited"`
	NoEvents     string `mapstructure:"no_events"`
	QuotaReached string `mapstructure:"quota_reached"`
	GeneralError string `mapstructure:"general_error"`
}

// LoadConfig reads configuration from the given YAML file path, applies
// defaults and environment overrides, and validates the result. A missing
// config file is not an error as long as required values arrive via
// environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// viper reports a missing explicit file as *fs.PathError rather than
		// ConfigFileNotFoundError; both mean "run on env vars and defaults".
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	// Secrets default to empty so viper knows the keys; AutomaticEnv only
	// overrides keys it has seen, and these usually arrive via BOT_* vars.
	v.SetDefault("telegram.token", "")
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.instruction", "")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.max_output_tokens", 500)
	v.SetDefault("gemini.timeout", 2*time.Minute)

	v.SetDefault("generator.cooldown", 10*time.Second)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("messages.welcome", "Hello %s! 👋\nWelcome to the bot. Send me short updates about your day and I'll turn them into social media posts. Let's get started!")
	v.SetDefault("messages.event_saved", "📝 Got it! Your event has been recorded.")
	v.SetDefault("messages.crafting", "✨ Hi %s, I'm crafting your social media posts. Please hold on for a moment...")
	v.SetDefault("messages.rate_limited", "⏳ Please wait a few seconds before trying again.")
	v.SetDefault("messages.no_events", "📅 No events found for today. Please add some events first!")
	v.SetDefault("messages.quota_reached", "🚫 Sorry, I've reached my usage limit for today. Please try again tomorrow!")
	v.SetDefault("messages.general_error", "⚠️ An unexpected error occurred. Please try again later.")
}
