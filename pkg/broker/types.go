// Package broker implements the session registry, request queue, long-poll
// coordinator and dispatcher that sit between the MCP-facing tool wrappers
// and the HTTP endpoints a Roblox Studio plugin polls.
package broker

import "encoding/json"

// Registration is the payload a plugin sends to POST /register.
type Registration struct {
	SessionID string `json:"session_id"`
	PlaceID   uint64 `json:"place_id"`
	PlaceName string `json:"place_name"`
	GameID    uint64 `json:"game_id"`
}

// SessionInfo is the serializable snapshot of a connected session returned
// by GET /sessions and by the list_sessions tool.
type SessionInfo struct {
	SessionID   string `json:"session_id"`
	PlaceID     uint64 `json:"place_id"`
	PlaceName   string `json:"place_name"`
	GameID      uint64 `json:"game_id"`
	ConnectedAt uint64 `json:"connected_at"`
}

// Request is a queued call waiting for the plugin to poll it off the queue.
type Request struct {
	ID   string          `json:"id"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// Response is what the plugin posts back to /response once it has executed
// a Request.
type Response struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}
