package realtime

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewMemoryRegistry(newTestLogger())
	connID := uuid.New()

	if r.Online(7) {
		t.Fatal("user should start offline")
	}

	r.Bind(7, connID)

	if !r.Online(7) {
		t.Fatal("user should be online after bind")
	}
	userID, ok := r.UserOf(connID)
	if !ok || userID != 7 {
		t.Fatalf("UserOf returned (%d, %v), want (7, true)", userID, ok)
	}
	if sessions := r.SessionsFor(7); len(sessions) != 1 || sessions[0] != connID {
		t.Fatalf("SessionsFor returned %v, want [%s]", sessions, connID)
	}

	gone, ok := r.Unbind(connID)
	if !ok || gone != 7 {
		t.Fatalf("Unbind returned (%d, %v), want (7, true)", gone, ok)
	}
	if r.Online(7) {
		t.Fatal("user should be offline after unbind")
	}
	if _, ok := r.Unbind(connID); ok {
		t.Fatal("second unbind should report unknown session")
	}
}

func TestRegistryMultipleSessionsPerUser(t *testing.T) {
	r := NewMemoryRegistry(newTestLogger())
	tab1 := uuid.New()
	tab2 := uuid.New()

	// Same user in two tabs
	r.Bind(42, tab1)
	r.Bind(42, tab2)

	sessions := r.SessionsFor(42)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	found := map[uuid.UUID]bool{}
	for _, id := range sessions {
		found[id] = true
	}
	if !found[tab1] || !found[tab2] {
		t.Fatalf("sessions %v missing one of the two tabs", sessions)
	}

	// Closing one tab keeps the user online
	r.Unbind(tab1)
	if !r.Online(42) {
		t.Fatal("user should stay online while a tab remains")
	}
	if sessions := r.SessionsFor(42); len(sessions) != 1 || sessions[0] != tab2 {
		t.Fatalf("SessionsFor returned %v, want [%s]", sessions, tab2)
	}

	r.Unbind(tab2)
	if r.Online(42) {
		t.Fatal("user should be offline once every tab is gone")
	}
	if sessions := r.SessionsFor(42); sessions != nil {
		t.Fatalf("expected nil sessions for offline user, got %v", sessions)
	}
}

func TestRegistryRebindMovesSession(t *testing.T) {
	r := NewMemoryRegistry(newTestLogger())
	connID := uuid.New()

	r.Bind(1, connID)
	r.Bind(2, connID)

	if r.Online(1) {
		t.Fatal("first user should lose the session on rebind")
	}
	if !r.Online(2) {
		t.Fatal("second user should own the session after rebind")
	}
	userID, _ := r.UserOf(connID)
	if userID != 2 {
		t.Fatalf("UserOf returned %d, want 2", userID)
	}
}

func TestRegistryConcurrency(t *testing.T) {
	r := NewMemoryRegistry(newTestLogger())
	numGoroutines := 100
	var wg sync.WaitGroup

	connIDs := make([]uuid.UUID, numGoroutines)
	for i := range connIDs {
		connIDs[i] = uuid.New()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Bind(uint(i%10), connIDs[i])
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.SessionsFor(uint(i % 10))
			r.Online(uint(i % 10))
		}(i)
	}

	wg.Wait()

	// Every session landed on its user
	total := 0
	for userID := uint(0); userID < 10; userID++ {
		total += len(r.SessionsFor(userID))
	}
	if total != numGoroutines {
		t.Fatalf("expected %d bound sessions, got %d", numGoroutines, total)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Unbind(connIDs[i])
		}(i)
	}
	wg.Wait()

	for userID := uint(0); userID < 10; userID++ {
		if r.Online(userID) {
			t.Fatalf("user %d still online after all unbinds", userID)
		}
	}
}
