package generator_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jackiboi12/telegram-bot/internal/generator"
)

func TestMemoryGate_Window(t *testing.T) {
	t.Parallel()

	gate := generator.NewMemoryGate(10 * time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := gate.TryAcquire(1, base); !ok {
		t.Fatal("first request should be allowed")
	}

	wait, ok := gate.TryAcquire(1, base.Add(2*time.Second))
	if ok {
		t.Fatal("second request within the window should be refused")
	}
	if wait != 8*time.Second {
		t.Errorf("remaining wait = %v, want %v", wait, 8*time.Second)
	}

	if _, ok := gate.TryAcquire(1, base.Add(10*time.Second)); !ok {
		t.Error("request at exactly the window boundary should be allowed")
	}
}

func TestMemoryGate_RefusalLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	gate := generator.NewMemoryGate(10 * time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	gate.TryAcquire(7, base)
	gate.TryAcquire(7, base.Add(5*time.Second)) // refused, must not extend the window

	if _, ok := gate.TryAcquire(7, base.Add(11*time.Second)); !ok {
		t.Error("window should be measured from the accepted request, not the refused one")
	}
}

func TestMemoryGate_UsersIndependent(t *testing.T) {
	t.Parallel()

	gate := generator.NewMemoryGate(10 * time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, ok := gate.TryAcquire(1, base); !ok {
		t.Fatal("user 1 should be allowed")
	}
	if _, ok := gate.TryAcquire(2, base); !ok {
		t.Error("user 2 should not be throttled by user 1")
	}
}

func TestMemoryGate_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	gate := generator.NewMemoryGate(time.Second)
	now := time.Now()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			gate.TryAcquire(userID, now)
			gate.TryAcquire(userID, now.Add(time.Millisecond))
		}(int64(i % 10))
	}
	wg.Wait()
}
