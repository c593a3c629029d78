// Package api implements the plugin-facing HTTP surface: the handful of
// endpoints a Roblox Studio plugin calls to register itself, long-poll for
// queued tool calls, and post back results.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flarecore/studiolink/pkg/broker"
)

// Server wires a *broker.Broker to the gorilla/mux router the plugin talks
// to. It exists only in Primary mode — a Proxy-mode process never serves
// this router, it only calls out through broker.Broker.Send.
type Server struct {
	b *broker.Broker
}

// NewServer returns a Server bound to b.
func NewServer(b *broker.Broker) *Server {
	return &Server{b: b}
}

// Router builds the gorilla/mux router exposing every plugin-facing route.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/unregister", s.handleUnregister).Methods(http.MethodPost)
	r.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/request", s.handlePollRequest).Methods(http.MethodGet)
	r.HandleFunc("/response", s.handlePluginResponse).Methods(http.MethodPost)
	r.HandleFunc("/proxy/tool_call", s.handleProxyToolCall).Methods(http.MethodPost)
	r.HandleFunc("/switch_session", s.handleSwitchSession).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return permissiveCORS(r)
}

// permissiveCORS mirrors the original server's CorsLayer::permissive(): the
// plugin runs inside Roblox Studio's embedded browser context, which sends
// an Origin header the broker has no principled way to allow-list.
func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
