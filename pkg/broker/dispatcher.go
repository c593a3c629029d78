package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flarecore/studiolink/internal/brokererr"
)

// DefaultTimeout and ExtendedTimeout are the two timeout classes every tool
// wrapper picks between (spec §4.4 / §9).
const (
	DefaultTimeout  = 30 * time.Second
	ExtendedTimeout = 120 * time.Second

	// proxyTimeoutSlack is added on top of the caller's own timeout when
	// forwarding over HTTP. The primary bounds a forwarded call by its own
	// fixed 60s window, independent of this timeout, so which deadline
	// expires first depends on the caller's timeout.
	proxyTimeoutSlack = 5 * time.Second
)

// Send routes a single tool call to the active session's plugin, blocking
// until the plugin answers, the timeout elapses, or ctx is cancelled. It is
// the one primitive every generated tool wrapper in pkg/tools calls.
func (b *Broker) Send(ctx context.Context, tool string, args json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	if b.mode == Proxy {
		return b.sendViaProxy(ctx, tool, args, timeout)
	}
	return b.sendLocal(ctx, tool, args, timeout)
}

func (b *Broker) sendLocal(ctx context.Context, tool string, args json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	sessionID, ok := b.Registry.Active()
	if !ok || !b.Registry.IsPluginConnected(time.Now()) {
		return nil, brokererr.PluginNotConnected()
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, brokererr.ServerError(fmt.Sprintf("generating request id: %v", err))
	}
	reqID := id.String()

	reply := b.corr.register(reqID)
	req := &Request{ID: reqID, Tool: tool, Args: args}
	if !b.Registry.enqueue(sessionID, req) {
		b.corr.forget(reqID)
		return nil, brokererr.PluginNotConnected()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-reply:
		if !resp.Success {
			return nil, brokererr.PluginError(resp.Error)
		}
		return resp.Result, nil
	case <-timer.C:
		b.corr.forget(reqID)
		return nil, brokererr.RequestTimeout(tool)
	case <-ctx.Done():
		b.corr.forget(reqID)
		return nil, ctx.Err()
	}
}

// deliver is called by the plugin-facing /response handler to route a
// Response back to whichever sendLocal call is waiting on it.
func (b *Broker) deliver(resp Response) bool {
	return b.corr.deliver(resp)
}

func (b *Broker) sendViaProxy(ctx context.Context, tool string, args json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, brokererr.ServerError(fmt.Sprintf("generating request id: %v", err))
	}

	body, err := json.Marshal(&Request{ID: id.String(), Tool: tool, Args: args})
	if err != nil {
		return nil, brokererr.ServerError(fmt.Sprintf("encoding proxy request: %v", err))
	}

	client := &http.Client{Timeout: timeout + proxyTimeoutSlack}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.proxyURL+"/proxy/tool_call", bytes.NewReader(body))
	if err != nil {
		return nil, brokererr.ServerError(fmt.Sprintf("building proxy request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, brokererr.RequestTimeout(tool)
		}
		return nil, brokererr.ServerError(fmt.Sprintf("proxying to primary: %v", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		return nil, brokererr.PluginNotConnected()
	case http.StatusGatewayTimeout:
		return nil, brokererr.RequestTimeout(tool)
	case http.StatusOK:
		// fall through to decode below
	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, brokererr.ServerError(fmt.Sprintf("primary returned %d: %s", resp.StatusCode, data))
	}

	var pr Response
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, brokererr.ServerError(fmt.Sprintf("decoding proxy response: %v", err))
	}
	if !pr.Success {
		return nil, brokererr.PluginError(pr.Error)
	}
	return pr.Result, nil
}

// ListSessions returns every registered session, either from the local
// Registry (Primary) or by proxying to the primary's /sessions (Proxy).
func (b *Broker) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	if b.mode != Proxy {
		return b.Registry.List(), nil
	}
	var out struct {
		Sessions []SessionInfo `json:"sessions"`
	}
	if err := b.proxyGet(ctx, "/sessions", &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetActiveSession returns the active session's info, local or proxied.
func (b *Broker) GetActiveSession(ctx context.Context) (SessionInfo, bool, error) {
	if b.mode != Proxy {
		info, ok := b.Registry.ActiveInfo()
		return info, ok, nil
	}
	var out healthPayload
	if err := b.proxyGet(ctx, "/health", &out); err != nil {
		return SessionInfo{}, false, err
	}
	if out.ActiveSession == "" {
		return SessionInfo{}, false, nil
	}
	// The proxy path only has the session id from /health; callers that
	// need full info should use ListSessions and filter, matching the
	// original tool's own behaviour in proxy mode.
	return SessionInfo{SessionID: out.ActiveSession}, true, nil
}

// SwitchSession makes sessionID active, local or proxied.
func (b *Broker) SwitchSession(ctx context.Context, sessionID string) (bool, error) {
	if b.mode != Proxy {
		return b.Registry.Switch(sessionID), nil
	}
	body, _ := json.Marshal(map[string]string{"session_id": sessionID})
	var out struct {
		Success bool `json:"success"`
	}
	if err := b.proxyPost(ctx, "/switch_session", body, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (b *Broker) proxyGet(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.proxyURL+path, nil)
	if err != nil {
		return brokererr.ServerError(err.Error())
	}
	client := &http.Client{Timeout: DefaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return brokererr.ServerError(err.Error())
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *Broker) proxyPost(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.proxyURL+path, bytes.NewReader(body))
	if err != nil {
		return brokererr.ServerError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: DefaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return brokererr.ServerError(err.Error())
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

type healthPayload struct {
	Server            string `json:"server"`
	Version           string `json:"version"`
	ActiveSession     string `json:"active_session"`
	ConnectedSessions int    `json:"connected_sessions"`
	PluginConnected   bool   `json:"plugin_connected"`
}
