package database

import (
	"time"
)

// UnknownField is stored when Telegram does not supply an optional
// profile field (last name, username).
const UnknownField = "N/A"

// User represents a bot user and their accumulated Gemini token usage.
// Token counters only ever grow and are incremented by the generation
// workflow after a successful API call.
type User struct {
	UserID    int64     `db:"user_id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Username  string    `db:"username"`
	IsBot     bool      `db:"is_bot"`

	PromptTokens     int64 `db:"prompt_tokens"`
	CompletionTokens int64 `db:"completion_tokens"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Event is a single free-text entry submitted by a user. Events are
// immutable once created and are aggregated per calendar day when
// generating posts. UserID is a soft reference to users; no foreign key
// is enforced.
type Event struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Text      string    `db:"text"`
	CreatedAt time.Time `db:"created_at"`
}

// UsageTotals aggregates token counters across all users, for reporting.
type UsageTotals struct {
	Users            int64 `db:"users"`
	PromptTokens     int64 `db:"prompt_tokens"`
	CompletionTokens int64 `db:"completion_tokens"`
}
