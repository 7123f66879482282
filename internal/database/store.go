package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// EnsureUser inserts a user record if none exists for the user ID and
	// returns the stored record. Fields of an existing record are never
	// overwritten; concurrent first contacts for the same ID yield one row.
	EnsureUser(ctx context.Context, user *User) (*User, error)

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// AddTokenUsage atomically increments a user's token counters by the
	// given amounts. The addition happens in SQL relative to the stored
	// values, never against a cached copy.
	AddTokenUsage(ctx context.Context, userID int64, promptTokens, completionTokens int64) error

	// SaveEvent inserts a new event record, assigning an ID if unset.
	SaveEvent(ctx context.Context, event *Event) error

	// GetEventsByUserBetween retrieves a user's events with created_at in
	// the half-open interval [start, end), in chronological order.
	GetEventsByUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]*Event, error)

	// GetUsageTotals aggregates token counters across all users.
	GetUsageTotals(ctx context.Context) (*UsageTotals, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureUser performs an insert-only upsert keyed by user_id.
func (s *sqlxStore) EnsureUser(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, fmt.Errorf("cannot ensure nil user")
	}
	if user.UserID == 0 {
		return nil, fmt.Errorf("user must have a non-zero user_id")
	}
	if user.FirstName == "" {
		return nil, fmt.Errorf("user must have a non-empty first_name")
	}

	if user.LastName == "" {
		user.LastName = UnknownField
	}
	if user.Username == "" {
		user.Username = UnknownField
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	// ON CONFLICT DO NOTHING makes first contact idempotent: concurrent
	// inserts for the same user_id cannot create duplicates, and an
	// existing row keeps its original field values.
	query := `
        INSERT INTO users (user_id, first_name, last_name, username, is_bot, prompt_tokens, completion_tokens, created_at, updated_at)
        VALUES (:user_id, :first_name, :last_name, :username, :is_bot, 0, 0, :created_at, :updated_at)
        ON CONFLICT (user_id) DO NOTHING;
    `
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", user.UserID, "error", err)
		return nil, fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
	}

	stored, err := s.GetUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("user %d missing after upsert", user.UserID)
	}

	s.logger.DebugContext(ctx, "User ensured", "user_id", stored.UserID, "created_at", stored.CreatedAt)
	return stored, nil
}

// GetUser retrieves a user by ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var user User
	query := `SELECT user_id, first_name, last_name, username, is_bot, prompt_tokens, completion_tokens, created_at, updated_at
	          FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// AddTokenUsage atomically increments a user's token counters.
func (s *sqlxStore) AddTokenUsage(ctx context.Context, userID int64, promptTokens, completionTokens int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if promptTokens < 0 || completionTokens < 0 {
		return fmt.Errorf("token amounts must be non-negative (prompt %d, completion %d)", promptTokens, completionTokens)
	}

	query := `
        UPDATE users
        SET prompt_tokens = prompt_tokens + ?,
            completion_tokens = completion_tokens + ?,
            updated_at = ?
        WHERE user_id = ?;
    `
	result, err := s.db.ExecContext(ctx, query, promptTokens, completionTokens, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding token usage", "user_id", userID, "error", err)
		return fmt.Errorf("failed to add token usage for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		// Events carry only a soft reference to users, so a generation
		// without a prior /start leaves no row to charge. Not an error.
		s.logger.WarnContext(ctx, "Token usage recorded for unknown user", "user_id", userID)
	}

	s.logger.DebugContext(ctx, "Token usage added",
		"user_id", userID, "prompt_tokens", promptTokens, "completion_tokens", completionTokens)
	return nil
}

// SaveEvent inserts a new event record.
func (s *sqlxStore) SaveEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("cannot save nil event")
	}
	if event.UserID == 0 {
		return fmt.Errorf("event must have a non-zero user_id")
	}
	if event.Text == "" {
		return fmt.Errorf("event must have non-empty text")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	// Timestamps are stored in UTC so that range comparisons over the
	// driver's text encoding stay chronological.
	event.CreatedAt = event.CreatedAt.UTC()

	query := `
        INSERT INTO events (id, user_id, text, created_at)
        VALUES (:id, :user_id, :text, :created_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, event); err != nil {
		s.logger.ErrorContext(ctx, "Error saving event", "user_id", event.UserID, "error", err)
		return fmt.Errorf("failed to save event for user %d: %w", event.UserID, err)
	}

	s.logger.DebugContext(ctx, "Event saved", "event_id", event.ID, "user_id", event.UserID)
	return nil
}

// GetEventsByUserBetween retrieves a user's events within [start, end).
func (s *sqlxStore) GetEventsByUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]*Event, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end %v must be after start %v", end, start)
	}

	var events []*Event
	query := `
        SELECT id, user_id, text, created_at
        FROM events
        WHERE user_id = ? AND created_at >= ? AND created_at < ?
        ORDER BY created_at ASC;
    `

	err := s.db.SelectContext(ctx, &events, query, userID, start.UTC(), end.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting events", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get events for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Fetched events", "user_id", userID, "count", len(events))
	return events, nil
}

// GetUsageTotals aggregates token counters across all users.
func (s *sqlxStore) GetUsageTotals(ctx context.Context) (*UsageTotals, error) {
	var totals UsageTotals
	query := `
        SELECT COUNT(*) AS users,
               COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
               COALESCE(SUM(completion_tokens), 0) AS completion_tokens
        FROM users;
    `

	if err := s.db.GetContext(ctx, &totals, query); err != nil {
		s.logger.ErrorContext(ctx, "Error aggregating usage totals", "error", err)
		return nil, fmt.Errorf("failed to aggregate usage totals: %w", err)
	}

	return &totals, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
// VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
