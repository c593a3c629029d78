package broker

import (
	"context"
	"testing"
	"time"
)

func TestPollReturnsImmediatelyQueuedRequest(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, now)
	r.enqueue("a", &Request{ID: "req-1", Tool: "get_console_output"})

	req, err := r.Poll(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req == nil || req.ID != "req-1" {
		t.Fatalf("expected req-1 to be returned immediately, got %+v", req)
	}
}

func TestPollWakesOnLateEnqueue(t *testing.T) {
	r := NewRegistry()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, time.Now())

	done := make(chan *Request, 1)
	go func() {
		req, _ := r.Poll(context.Background(), "a")
		done <- req
	}()

	time.Sleep(20 * time.Millisecond)
	r.enqueue("a", &Request{ID: "req-2", Tool: "insert_model"})

	select {
	case req := <-done:
		if req == nil || req.ID != "req-2" {
			t.Fatalf("expected req-2 to wake the poller, got %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller was not woken by the late enqueue")
	}
}

func TestPollUnknownSession(t *testing.T) {
	r := NewRegistry()
	_, err := r.Poll(context.Background(), "ghost")
	if err != ErrUnknownSession {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestPollContextCancellation(t *testing.T) {
	r := NewRegistry()
	r.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Poll(ctx, "a")
	if err == nil {
		t.Fatal("expected Poll to return an error when ctx is cancelled")
	}
}
