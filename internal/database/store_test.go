package database_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackiboi12/telegram-bot/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEnsureUser_InsertAndIdempotency(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.EnsureUser(ctx, &database.User{UserID: 100, FirstName: "Alice", Username: "alice"})
	if err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}
	if first.FirstName != "Alice" || first.Username != "alice" {
		t.Errorf("stored user = %+v", first)
	}
	if first.LastName != database.UnknownField {
		t.Errorf("missing last name stored as %q, want %q", first.LastName, database.UnknownField)
	}

	// Second contact with different fields must not overwrite the first.
	second, err := store.EnsureUser(ctx, &database.User{UserID: 100, FirstName: "Bob", Username: "bob"})
	if err != nil {
		t.Fatalf("EnsureUser() second call error = %v", err)
	}
	if second.FirstName != "Alice" || second.Username != "alice" {
		t.Errorf("existing user overwritten: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed on repeat contact: %v vs %v", second.CreatedAt, first.CreatedAt)
	}

	totals, err := store.GetUsageTotals(ctx)
	if err != nil {
		t.Fatalf("GetUsageTotals() error = %v", err)
	}
	if totals.Users != 1 {
		t.Errorf("users = %d, want 1", totals.Users)
	}
}

func TestEnsureUser_Validation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.EnsureUser(ctx, nil); err == nil {
		t.Error("nil user should be rejected")
	}
	if _, err := store.EnsureUser(ctx, &database.User{FirstName: "NoID"}); err == nil {
		t.Error("zero user_id should be rejected")
	}
	if _, err := store.EnsureUser(ctx, &database.User{UserID: 5}); err == nil {
		t.Error("empty first_name should be rejected")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("GetUser() = %+v, want nil for unknown user", user)
	}
}

func TestAddTokenUsage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.EnsureUser(ctx, &database.User{UserID: 7, FirstName: "Carol"}); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	if err := store.AddTokenUsage(ctx, 7, 10, 20); err != nil {
		t.Fatalf("AddTokenUsage() error = %v", err)
	}
	if err := store.AddTokenUsage(ctx, 7, 5, 7); err != nil {
		t.Fatalf("AddTokenUsage() second call error = %v", err)
	}

	user, err := store.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.PromptTokens != 15 || user.CompletionTokens != 27 {
		t.Errorf("counters = %d/%d, want 15/27", user.PromptTokens, user.CompletionTokens)
	}

	if err := store.AddTokenUsage(ctx, 7, -1, 0); err == nil {
		t.Error("negative amounts should be rejected")
	}

	// Unknown users are tolerated: events exist without a /start row.
	if err := store.AddTokenUsage(ctx, 404, 1, 1); err != nil {
		t.Errorf("AddTokenUsage() for unknown user error = %v, want nil", err)
	}
}

func TestAddTokenUsage_Concurrent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.EnsureUser(ctx, &database.User{UserID: 8, FirstName: "Dan"}); err != nil {
		t.Fatalf("EnsureUser() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.AddTokenUsage(ctx, 8, 1, 2); err != nil {
				t.Errorf("AddTokenUsage() error = %v", err)
			}
		}()
	}
	wg.Wait()

	user, err := store.GetUser(ctx, 8)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.PromptTokens != 20 || user.CompletionTokens != 40 {
		t.Errorf("counters = %d/%d, want 20/40", user.PromptTokens, user.CompletionTokens)
	}
}

func TestSaveEvent_AssignsID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	event := &database.Event{UserID: 1, Text: "shipped the release", CreatedAt: time.Now()}
	if err := store.SaveEvent(context.Background(), event); err != nil {
		t.Fatalf("SaveEvent() error = %v", err)
	}
	if event.ID == "" {
		t.Error("SaveEvent() should assign an ID when unset")
	}
}

func TestSaveEvent_Validation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveEvent(ctx, nil); err == nil {
		t.Error("nil event should be rejected")
	}
	if err := store.SaveEvent(ctx, &database.Event{Text: "no user"}); err == nil {
		t.Error("zero user_id should be rejected")
	}
	if err := store.SaveEvent(ctx, &database.Event{UserID: 1}); err == nil {
		t.Error("empty text should be rejected")
	}
}

func TestGetEventsByUserBetween(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	dayStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	save := func(userID int64, text string, at time.Time) {
		t.Helper()
		if err := store.SaveEvent(ctx, &database.Event{UserID: userID, Text: text, CreatedAt: at}); err != nil {
			t.Fatalf("SaveEvent(%q) error = %v", text, err)
		}
	}

	save(1, "afternoon", dayStart.Add(15*time.Hour))
	save(1, "morning", dayStart.Add(9*time.Hour))
	save(1, "last instant", dayEnd.Add(-time.Millisecond))
	save(1, "yesterday", dayStart.Add(-time.Minute))
	save(1, "next midnight", dayEnd)
	save(2, "other user", dayStart.Add(12*time.Hour))

	events, err := store.GetEventsByUserBetween(ctx, 1, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("GetEventsByUserBetween() error = %v", err)
	}

	var texts []string
	for _, e := range events {
		texts = append(texts, e.Text)
	}
	want := []string{"morning", "afternoon", "last instant"}
	if len(texts) != len(want) {
		t.Fatalf("events = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("events = %v, want %v (chronological, day-bounded)", texts, want)
		}
	}
}

func TestGetEventsByUserBetween_NormalizesTimezones(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, loc) // 05:00 UTC
	if err := store.SaveEvent(ctx, &database.Event{UserID: 3, Text: "offset event", CreatedAt: at}); err != nil {
		t.Fatalf("SaveEvent() error = %v", err)
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)
	events, err := store.GetEventsByUserBetween(ctx, 3, start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetEventsByUserBetween() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 regardless of the caller's timezone", len(events))
	}
}

func TestGetEventsByUserBetween_InvalidRange(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	now := time.Now()

	if _, err := store.GetEventsByUserBetween(context.Background(), 1, now, now); err == nil {
		t.Error("empty range should be rejected")
	}
}

func TestGetUsageTotals(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	totals, err := store.GetUsageTotals(ctx)
	if err != nil {
		t.Fatalf("GetUsageTotals() error = %v", err)
	}
	if totals.Users != 0 || totals.PromptTokens != 0 || totals.CompletionTokens != 0 {
		t.Errorf("empty database totals = %+v", totals)
	}

	for id, name := range map[int64]string{1: "A", 2: "B"} {
		if _, err := store.EnsureUser(ctx, &database.User{UserID: id, FirstName: name}); err != nil {
			t.Fatalf("EnsureUser() error = %v", err)
		}
		if err := store.AddTokenUsage(ctx, id, 10, 5); err != nil {
			t.Fatalf("AddTokenUsage() error = %v", err)
		}
	}

	totals, err = store.GetUsageTotals(ctx)
	if err != nil {
		t.Fatalf("GetUsageTotals() error = %v", err)
	}
	if totals.Users != 2 || totals.PromptTokens != 20 || totals.CompletionTokens != 10 {
		t.Errorf("totals = %+v, want 2 users, 20 prompt, 10 completion", totals)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Errorf("RunSQLMaintenance() error = %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.RunSQLMaintenance(cancelled); err == nil {
		t.Error("cancelled context should abort maintenance")
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"storage.db", "storage.db"},
		{"file:storage.db", "storage.db"},
		{"file:data/storage.db?cache=shared&mode=rwc", "data/storage.db"},
		{"file:my%20db.sqlite", "my db.sqlite"},
	}

	for _, tt := range tests {
		if got := database.ExtractDBNameFromPath(tt.path); got != tt.want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
