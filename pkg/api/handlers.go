package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flarecore/studiolink/pkg/broker"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleRegister services POST /register — a plugin registering itself as
// a new (or replacement) session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg broker.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, "invalid registration payload", http.StatusBadRequest)
		return
	}

	sessionID := s.b.Registry.Register(reg, time.Now())
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "registered",
		"session_id": sessionID,
	})
}

// handleUnregister services POST /unregister.
func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	s.b.Registry.Unregister(payload.SessionID)
	w.WriteHeader(http.StatusOK)
}

// handleListSessions services GET /sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.b.Registry.List()
	active, _ := s.b.Registry.Active()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions":       sessions,
		"active_session": active,
		"count":          len(sessions),
	})
}

// handlePollRequest services GET /request?session_id=xxx, the plugin's
// long-poll for the next queued tool call. It blocks for up to
// broker.PollTimeout before responding 204 with nothing queued.
func (s *Server) handlePollRequest(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), broker.PollTimeout+5*time.Second)
	defer cancel()

	req, err := s.b.Registry.Poll(ctx, sessionID)
	switch {
	case err == broker.ErrUnknownSession:
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "", http.StatusNoContent)
		return
	case req == nil:
		http.Error(w, "", http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// handlePluginResponse services POST /response — the plugin posting back
// the result of a tool call it previously polled.
func (s *Server) handlePluginResponse(w http.ResponseWriter, r *http.Request) {
	var resp broker.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		http.Error(w, "invalid response payload", http.StatusBadRequest)
		return
	}

	if s.b.Deliver(resp) {
		w.WriteHeader(http.StatusOK)
	} else {
		http.Error(w, "no caller waiting for this request id", http.StatusNotFound)
	}
}

// handleProxyToolCall services POST /proxy/tool_call — a sibling process
// running in Proxy mode forwards a tool call here; this handler queues it
// for the active session and blocks for the plugin's answer the same way
// broker.Broker.Send does for in-process callers.
func (s *Server) handleProxyToolCall(w http.ResponseWriter, r *http.Request) {
	var req broker.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	if _, ok := s.b.Registry.Active(); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.b.Send(ctx, req.Tool, req.Args, 60*time.Second)
	if err != nil {
		if ctx.Err() != nil {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		writeJSON(w, http.StatusOK, broker.Response{ID: req.ID, Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, broker.Response{ID: req.ID, Success: true, Result: result})
}

// handleSwitchSession services POST /switch_session.
func (s *Server) handleSwitchSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if s.b.Registry.Switch(payload.SessionID) {
		info, _ := s.b.Registry.ActiveInfo()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"message":    "Switched to session: " + payload.SessionID,
			"place_name": info.PlaceName,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": false,
		"message": "Session '" + payload.SessionID + "' not found.",
	})
}

// handleHealth services GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.b.Health())
}
