package broker

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Version is the broker's own version string, reported by /health and in
// the MCP server's implementation info. Set at build time in a full release pipeline;
// hardcoded here since this repository has no release tooling of its own.
const Version = "0.1.0"

// Mode records whether this process owns the well-known port (Primary) or
// is forwarding tool calls to whichever process does (Proxy).
type Mode int

const (
	// Primary means this process bound the well-known loopback port and
	// serves the plugin-facing HTTP endpoints directly.
	Primary Mode = iota
	// Proxy means another process already held the port; tool calls are
	// forwarded to it over HTTP instead.
	Proxy
)

func (m Mode) String() string {
	if m == Primary {
		return "primary"
	}
	return "proxy"
}

// Broker is the shared core wired into both the plugin-facing HTTP server
// and the assistant-facing MCP tool wrappers. Exactly one Broker exists per
// process; Mode determines whether Send talks to the local Registry or
// forwards over HTTP to a sibling process's Broker.
type Broker struct {
	Registry *Registry
	corr     *correlator

	mode     Mode
	port     int
	proxyURL string

	// listener is non-nil only in Primary mode; the caller uses it to
	// serve the plugin-facing HTTP router.
	listener net.Listener

	startedAt time.Time
	log       *logrus.Logger
}

// New attempts to bind the well-known loopback port. On success the
// returned Broker is Primary and owns the listener the caller should serve
// the HTTP router on. On a bind failure that looks like "port already in
// use", the Broker instead becomes a Proxy that forwards to the sibling
// process already listening there — any other bind error is returned, since
// it likely indicates a misconfiguration (e.g. permission denied) rather
// than a second instance racing for the port.
func New(port int, log *logrus.Logger) (*Broker, error) {
	b := &Broker{
		Registry:  NewRegistry(),
		corr:      newCorrelator(),
		port:      port,
		log:       log,
		startedAt: time.Now(),
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if !isPortInUse(err) {
			return nil, fmt.Errorf("binding %s: %w", addr, err)
		}
		b.mode = Proxy
		b.proxyURL = fmt.Sprintf("http://127.0.0.1:%d", port)
		log.WithField("proxy_url", b.proxyURL).Info("port already bound, starting in proxy mode")
		return b, nil
	}

	b.mode = Primary
	b.listener = listener
	log.WithField("addr", addr).Info("bound plugin port, starting in primary mode")
	return b, nil
}

// Mode reports whether this Broker is Primary or Proxy.
func (b *Broker) Mode() Mode { return b.mode }

// Listener returns the bound listener in Primary mode, nil otherwise.
func (b *Broker) Listener() net.Listener { return b.listener }

// Log returns the broker-wide logger, shared with the HTTP and MCP layers.
func (b *Broker) Log() *logrus.Logger { return b.log }

// Deliver routes a plugin's Response back to its waiting caller. It is
// called by the POST /response handler; only meaningful in Primary mode.
func (b *Broker) Deliver(resp Response) bool { return b.deliver(resp) }

// HealthSnapshot is the payload GET /health reports.
type HealthSnapshot struct {
	Server            string `json:"server"`
	Version           string `json:"version"`
	ActiveSession     string `json:"active_session,omitempty"`
	ConnectedSessions int    `json:"connected_sessions"`
	PluginConnected   bool   `json:"plugin_connected"`
	Mode              string `json:"mode"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
}

// Health reports the broker's own status, used by GET /health.
func (b *Broker) Health() HealthSnapshot {
	now := time.Now()
	active, _ := b.Registry.Active()
	return HealthSnapshot{
		Server:            "studiolink",
		Version:           Version,
		ActiveSession:     active,
		ConnectedSessions: len(b.Registry.List()),
		PluginConnected:   b.Registry.IsPluginConnected(now),
		Mode:              b.mode.String(),
		UptimeSeconds:     int64(now.Sub(b.startedAt).Seconds()),
	}
}

// isPortInUse reports whether err looks like the address was already bound
// by another process, as opposed to some other bind failure.
func isPortInUse(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "address already in use") ||
		strings.Contains(s, "bind: address already in use") ||
		strings.Contains(s, "Only one usage of each socket address")
}
