// Package intake records inbound free-text messages as daily events.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackiboi12/telegram-bot/internal/database"
)

// ErrEmptyText is returned when a message carries no recordable text.
// Telegram does not normally deliver empty text messages, so this guards
// callers that feed the recorder directly.
var ErrEmptyText = errors.New("event text is empty")

// Ack acknowledges a recorded event.
type Ack struct {
	// EventID is the identifier assigned to the stored event.
	EventID string
}

// Recorder persists inbound text messages as events.
type Recorder struct {
	log   *slog.Logger
	store database.Store
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(log *slog.Logger, store database.Store) *Recorder {
	return &Recorder{
		log:   log.With("component", "intake"),
		store: store,
	}
}

// Record persists text as a new event owned by userID, created at now.
// Events are immutable once stored; there is no update or deletion path.
func (r *Recorder) Record(ctx context.Context, userID int64, text string, now time.Time) (*Ack, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	event := &database.Event{
		UserID:    userID,
		Text:      text,
		CreatedAt: now,
	}
	if err := r.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record event for user %d: %w", userID, err)
	}

	r.log.InfoContext(ctx, "Event recorded", "event_id", event.ID, "user_id", userID)
	return &Ack{EventID: event.ID}, nil
}
