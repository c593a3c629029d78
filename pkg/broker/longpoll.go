package broker

import (
	"context"
	"errors"
	"time"
)

// PollTimeout bounds how long a plugin's GET /request call blocks before
// the handler returns an empty poll and the plugin reconnects.
const PollTimeout = 30 * time.Second

// ErrUnknownSession is returned by Poll when sessionID has never registered
// or has since been reaped.
var ErrUnknownSession = errors.New("unknown session")

// Poll services one long-poll cycle for sessionID: it records a heartbeat,
// returns immediately if a request is already queued, and otherwise blocks
// until either a request is queued, ctx is done, or PollTimeout elapses —
// whichever comes first. A nil, nil return means the poll window elapsed
// with nothing queued; the caller should respond with an empty/204 poll.
func (r *Registry) Poll(ctx context.Context, sessionID string) (*Request, error) {
	now := time.Now()
	r.Heartbeat(sessionID, now)

	if req, ok := r.dequeue(sessionID); ok {
		return req, nil
	}

	wake, ok := r.wakeChan(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}

	timer := time.NewTimer(PollTimeout)
	defer timer.Stop()

	select {
	case <-wake:
		req, ok := r.dequeue(sessionID)
		if !ok {
			// Woken by a notification for someone else's enqueue race,
			// or the queue was drained by a concurrent poller; treat as
			// an empty cycle rather than blocking again.
			return nil, nil
		}
		return req, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
