// Package generator implements the daily-event post generation workflow:
// cooldown check, aggregation of today's events, the Gemini call, and
// per-user token usage accounting.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackiboi12/telegram-bot/internal/database"
	"github.com/jackiboi12/telegram-bot/internal/gemini"
)

// Typed failures of a generation request. Handlers map each one to a
// distinct user-facing reply; the wrapped details stay in the logs.
var (
	// ErrRateLimited means the user's cooldown window has not elapsed.
	ErrRateLimited = errors.New("generation rate limited")

	// ErrNoEvents means the user has no events recorded today.
	ErrNoEvents = errors.New("no events recorded today")

	// ErrQuotaExceeded means the provider rejected the call for quota
	// reasons; retrying now will not help.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrProvider covers any other provider failure.
	ErrProvider = errors.New("provider error")
)

// Result is a successful generation: the drafted posts and what they cost.
type Result struct {
	Text  string
	Usage gemini.TokenUsage
}

// Generator orchestrates post generation for a user.
type Generator struct {
	log   *slog.Logger
	store database.Store
	ai    gemini.Client
	gate  CooldownGate
}

// New creates a Generator from its collaborators.
func New(log *slog.Logger, store database.Store, ai gemini.Client, gate CooldownGate) *Generator {
	return &Generator{
		log:   log.With("component", "generator"),
		store: store,
		ai:    ai,
		gate:  gate,
	}
}

// Generate runs the full workflow for one user request handled at now:
//
//  1. cooldown check (consumes the window even if a later step fails),
//  2. fetch today's events (half-open local-midnight window),
//  3. build the prompt and call Gemini,
//  4. on success, atomically add the reported token usage to the user.
//
// Failures are reported through the typed errors above; the user's token
// totals are only touched on success. There are no automatic retries: a
// failed attempt requires a new user request, itself subject to the
// cooldown just consumed.
func (g *Generator) Generate(ctx context.Context, userID int64, now time.Time) (*Result, error) {
	if wait, ok := g.gate.TryAcquire(userID, now); !ok {
		g.log.InfoContext(ctx, "Generation rate limited", "user_id", userID, "retry_in", wait)
		return nil, fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
	}

	start, end := DayWindow(now)
	events, err := g.store.GetEventsByUserBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch today's events for user %d: %w", userID, err)
	}
	if len(events) == 0 {
		g.log.InfoContext(ctx, "No events for today", "user_id", userID, "window_start", start)
		return nil, ErrNoEvents
	}

	texts := make([]string, len(events))
	for i, e := range events {
		texts[i] = e.Text
	}

	text, usage, err := g.ai.GeneratePosts(ctx, texts)
	if err != nil {
		if errors.Is(err, gemini.ErrQuotaExhausted) {
			g.log.WarnContext(ctx, "Generation hit provider quota", "user_id", userID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		g.log.ErrorContext(ctx, "Generation provider call failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	// Lost accounting on a failure here is tolerated: the user already has
	// their posts, and the counters are only advisory cost tracking.
	if err := g.store.AddTokenUsage(ctx, userID, usage.PromptTokens, usage.CompletionTokens); err != nil {
		g.log.ErrorContext(ctx, "Failed to record token usage", "user_id", userID, "error", err)
	}

	g.log.InfoContext(ctx, "Generation succeeded",
		"user_id", userID,
		"event_count", len(events),
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens)
	return &Result{Text: text, Usage: usage}, nil
}

// DayWindow returns the half-open interval [local midnight, local midnight
// + 24h) containing now. "Today" is evaluated at request time in the
// process-local timezone.
func DayWindow(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.Add(24 * time.Hour)
}
