package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flarecore/studiolink/internal/brokererr"
)

func testBroker(t *testing.T) *Broker {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Broker{
		Registry: NewRegistry(),
		corr:     newCorrelator(),
		log:      log,
		mode:     Primary,
	}
}

func TestSendNoActiveSessionReturnsPluginNotConnected(t *testing.T) {
	b := testBroker(t)
	_, err := b.Send(context.Background(), "run_code", nil, DefaultTimeout)
	if berr, ok := err.(*brokererr.Error); !ok || berr.Kind != brokererr.KindPluginNotConnected {
		t.Fatalf("expected PluginNotConnected, got %v", err)
	}
}

func TestSendDeliversSuccessfulResponse(t *testing.T) {
	b := testBroker(t)
	b.Registry.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, time.Now())

	go func() {
		req, err := b.Registry.Poll(context.Background(), "a")
		if err != nil || req == nil {
			t.Errorf("expected a queued request, got %v / %v", req, err)
			return
		}
		b.Deliver(Response{ID: req.ID, Success: true, Result: json.RawMessage(`{"ok":true}`)})
	}()

	result, err := b.Send(context.Background(), "run_code", json.RawMessage(`{"code":"print(1)"}`), DefaultTimeout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `{"ok":true}` {
		t.Fatalf("unexpected result: %s", result)
	}
}

func TestSendPropagatesPluginError(t *testing.T) {
	b := testBroker(t)
	b.Registry.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, time.Now())

	go func() {
		req, _ := b.Registry.Poll(context.Background(), "a")
		b.Deliver(Response{ID: req.ID, Success: false, Error: "script threw"})
	}()

	_, err := b.Send(context.Background(), "run_code", nil, DefaultTimeout)
	berr, ok := err.(*brokererr.Error)
	if !ok || berr.Kind != brokererr.KindPluginError || berr.Message != "script threw" {
		t.Fatalf("expected PluginError(script threw), got %v", err)
	}
}

func TestSendTimesOutWhenPluginNeverAnswers(t *testing.T) {
	b := testBroker(t)
	b.Registry.Register(Registration{SessionID: "a", PlaceID: 1, PlaceName: "P1", GameID: 1}, time.Now())

	_, err := b.Send(context.Background(), "run_code", nil, 20*time.Millisecond)
	berr, ok := err.(*brokererr.Error)
	if !ok || berr.Kind != brokererr.KindRequestTimeout || berr.Tool != "run_code" {
		t.Fatalf("expected RequestTimeout(run_code), got %v", err)
	}
}

func TestSendViaProxyForwardsAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proxy/tool_call" {
			http.NotFound(w, r)
			return
		}
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{ID: req.ID, Success: true, Result: json.RawMessage(`{"echo":true}`)})
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	b := &Broker{mode: Proxy, proxyURL: srv.URL, log: log, corr: newCorrelator(), Registry: NewRegistry()}

	result, err := b.Send(context.Background(), "get_console_output", nil, DefaultTimeout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != `{"echo":true}` {
		t.Fatalf("unexpected result: %s", result)
	}
}

func TestSendViaProxyServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	b := &Broker{mode: Proxy, proxyURL: srv.URL, log: log, corr: newCorrelator(), Registry: NewRegistry()}

	_, err := b.Send(context.Background(), "run_code", nil, DefaultTimeout)
	berr, ok := err.(*brokererr.Error)
	if !ok || berr.Kind != brokererr.KindPluginNotConnected {
		t.Fatalf("expected PluginNotConnected, got %v", err)
	}
}
