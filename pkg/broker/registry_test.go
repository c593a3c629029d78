package broker

import (
	"testing"
	"time"
)

func TestRegisterAutoActivatesFirstSession(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	id := r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "Baseplate", GameID: 10}, now)
	if id != "a" {
		t.Fatalf("expected session id 'a', got %q", id)
	}

	active, ok := r.Active()
	if !ok || active != "a" {
		t.Fatalf("expected session 'a' to be auto-activated, got %q (ok=%v)", active, ok)
	}
}

func TestRegisterEvictsSamePlaceDuplicate(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	r.Register(Registration{SessionID: "old", PlaceID: 1, PlaceName: "Baseplate", GameID: 10}, now)
	r.Register(Registration{SessionID: "new", PlaceID: 1, PlaceName: "Baseplate", GameID: 10}, now)

	sessions := r.List()
	if len(sessions) != 1 {
		t.Fatalf("expected exactly one session after duplicate eviction, got %d", len(sessions))
	}
	if sessions[0].SessionID != "new" {
		t.Fatalf("expected surviving session to be 'new', got %q", sessions[0].SessionID)
	}

	active, ok := r.Active()
	if !ok || active != "new" {
		t.Fatalf("expected active session to follow the eviction to 'new', got %q", active)
	}
}

func TestRegisterDropsQueuedRequestsOfEvictedDuplicate(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	r.Register(Registration{SessionID: "old", PlaceID: 1, PlaceName: "Baseplate", GameID: 10}, now)
	r.enqueue("old", &Request{ID: "req-1", Tool: "run_code"})

	r.Register(Registration{SessionID: "new", PlaceID: 1, PlaceName: "Baseplate", GameID: 10}, now)

	if _, ok := r.dequeue("new"); ok {
		t.Fatal("expected the new session's queue to be empty, the old one's request should not migrate")
	}
}

func TestUnregisterClearsActiveSessionWhenNoneRemain(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, now)
	r.Switch("a")
	r.Unregister("a")

	if active, ok := r.Active(); ok {
		t.Fatalf("expected no active session after removing the only one, got %q", active)
	}
}

func TestSwitchUnknownSessionFails(t *testing.T) {
	r := NewRegistry()
	if r.Switch("does-not-exist") {
		t.Fatal("expected Switch to fail for an unregistered session")
	}
}

func TestHeartbeatAndConnectivity(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, now)

	if !r.IsConnected("a", now) {
		t.Fatal("expected freshly registered session to be connected")
	}

	future := now.Add(heartbeatWindow + time.Second)
	if r.IsConnected("a", future) {
		t.Fatal("expected session without a heartbeat refresh to go stale after heartbeatWindow")
	}

	r.Heartbeat("a", future)
	if !r.IsConnected("a", future) {
		t.Fatal("expected heartbeat refresh to keep the session connected")
	}
}

func TestReapEvictsStaleSessions(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, now)

	future := now.Add(staleWindow + time.Second)
	r.Reap(future)

	if len(r.List()) != 0 {
		t.Fatal("expected a session with no heartbeat for over staleWindow to be reaped")
	}
}

func TestReapKeepsFreshSessions(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, now)

	r.Reap(now.Add(time.Second))
	if len(r.List()) != 1 {
		t.Fatal("expected a recently heartbeating session to survive a reap pass")
	}
}
