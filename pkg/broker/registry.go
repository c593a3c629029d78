package broker

import (
	"sync"
	"time"
)

// heartbeatWindow is how long a session is considered connected after its
// last poll. staleWindow is how long an un-polled session is kept around
// before the reaper evicts it outright. Both mirror the original server.
const (
	heartbeatWindow = 30 * time.Second
	staleWindow     = 60 * time.Second
)

// session is the broker's internal, mutable view of a connected plugin.
// Everything here is guarded by Registry.mu.
type session struct {
	info          SessionInfo
	lastHeartbeat time.Time
	queue         []*Request

	// wake is closed (and replaced) every time a request is queued for
	// this session, broadcasting to any poller blocked in Registry.Poll.
	wake chan struct{}
}

// Registry owns the set of connected sessions and the single active
// session that tool calls are routed to.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*session
	active string // session id, "" if none
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*session)}
}

// Register records a newly connected plugin session, evicting any existing
// session for the same (place_id, place_name) pair — this is how a Studio
// restart replaces its own stale Edit session. Pending requests queued for
// the evicted session are dropped, not migrated: the process that would
// have polled them is gone, and the new session never saw them queued.
//
// If there is no active session, or the current active session's plugin
// has stopped heartbeating, the new session becomes active automatically.
func (r *Registry) Register(reg Registration, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reapLocked(now)

	for id, s := range r.byID {
		if id == reg.SessionID {
			continue
		}
		if s.info.PlaceID == reg.PlaceID && s.info.PlaceName == reg.PlaceName {
			r.unregisterLocked(id)
		}
	}

	r.byID[reg.SessionID] = &session{
		info: SessionInfo{
			SessionID:   reg.SessionID,
			PlaceID:     reg.PlaceID,
			PlaceName:   reg.PlaceName,
			GameID:      reg.GameID,
			ConnectedAt: uint64(now.Unix()),
		},
		lastHeartbeat: now,
		wake:          make(chan struct{}),
	}

	if r.active == "" || !r.isPluginConnectedLocked(now) {
		r.active = reg.SessionID
	}

	return reg.SessionID
}

// Unregister removes a session, reassigning the active session to whatever
// remains (arbitrarily — map order is unspecified, matching the source's
// own non-deterministic "first remaining" choice) or clearing it entirely.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(sessionID)
}

func (r *Registry) unregisterLocked(sessionID string) {
	delete(r.byID, sessionID)
	if r.active == sessionID {
		r.active = ""
		for id := range r.byID {
			r.active = id
			break
		}
	}
}

// Switch makes sessionID the active session, returning false if it is not
// currently registered.
func (r *Registry) Switch(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[sessionID]; !ok {
		return false
	}
	r.active = sessionID
	return true
}

// Active returns the active session id and whether one is set.
func (r *Registry) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// ActiveInfo returns a snapshot of the active session's info.
func (r *Registry) ActiveInfo() (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" {
		return SessionInfo{}, false
	}
	s, ok := r.byID[r.active]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info, true
}

// List returns a snapshot of every registered session's info, including
// sessions whose heartbeat has gone stale but which have not been reaped yet.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s.info)
	}
	return out
}

// Heartbeat records that sessionID's plugin just polled in.
func (r *Registry) Heartbeat(sessionID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[sessionID]; ok {
		s.lastHeartbeat = now
	}
}

// IsConnected reports whether sessionID has polled within heartbeatWindow.
func (r *Registry) IsConnected(sessionID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return false
	}
	return now.Sub(s.lastHeartbeat) < heartbeatWindow
}

// IsPluginConnected reports whether the active session is connected.
func (r *Registry) IsPluginConnected(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isPluginConnectedLocked(now)
}

func (r *Registry) isPluginConnectedLocked(now time.Time) bool {
	if r.active == "" {
		return false
	}
	s, ok := r.byID[r.active]
	if !ok {
		return false
	}
	return now.Sub(s.lastHeartbeat) < heartbeatWindow
}

// Reap evicts sessions that have not heartbeated within staleWindow. It is
// invoked both inline (on every Register, to prevent zombie buildup) and
// periodically by the cron-driven reaper.
func (r *Registry) Reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked(now)
}

func (r *Registry) reapLocked(now time.Time) {
	for id, s := range r.byID {
		if now.Sub(s.lastHeartbeat) > staleWindow {
			r.unregisterLocked(id)
		}
	}
}

// enqueue appends req to sessionID's queue and wakes any blocked poller.
// Returns false if sessionID is not registered.
func (r *Registry) enqueue(sessionID string, req *Request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return false
	}
	s.queue = append(s.queue, req)
	close(s.wake)
	s.wake = make(chan struct{})
	return true
}

// dequeue pops the oldest queued request for sessionID, if any.
func (r *Registry) dequeue(sessionID string) (*Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok || len(s.queue) == 0 {
		return nil, false
	}
	req := s.queue[0]
	s.queue = s.queue[1:]
	return req, true
}

// wakeChan returns the current wake channel for sessionID, for a poller to
// select on. ok is false if the session does not exist.
func (r *Registry) wakeChan(sessionID string) (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false
	}
	return s.wake, true
}
