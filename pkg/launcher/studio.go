// Package launcher wires the broker, its plugin-facing HTTP server, the
// background session reaper, and the stdio MCP server into one running
// process — deciding along the way whether this process is Primary (it
// bound the well-known port) or Proxy (another instance already has it).
package launcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flarecore/studiolink/pkg/api"
	"github.com/flarecore/studiolink/pkg/broker"
	studiomcp "github.com/flarecore/studiolink/pkg/mcp"
)

// RunStudio brings up studiolink on port: it tries to bind the plugin port
// (becoming Primary) or falls back to proxying through whichever sibling
// process already holds it, then serves the MCP stdio loop until ctx is
// cancelled or the assistant disconnects.
func RunStudio(ctx context.Context, port int, log *logrus.Logger) error {
	b, err := broker.New(port, log)
	if err != nil {
		return fmt.Errorf("starting broker: %w", err)
	}

	// The MCP loop returning (the assistant closed stdio) must also stop the
	// HTTP server and reaper, so it cancels this context on its way out.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)

	if b.Mode() == broker.Primary {
		server := api.NewServer(b)
		httpServer := &http.Server{Handler: server.Router()}

		group.Go(func() error {
			<-gctx.Done()
			return httpServer.Close()
		})
		group.Go(func() error {
			log.WithField("addr", b.Listener().Addr().String()).Info("serving plugin HTTP endpoints")
			if err := httpServer.Serve(b.Listener()); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("plugin HTTP server: %w", err)
			}
			return nil
		})

		stopReaper := b.StartReaper()
		group.Go(func() error {
			<-gctx.Done()
			stopReaper()
			return nil
		})
	}

	mcpServer := studiomcp.NewServer(b)
	group.Go(func() error {
		defer cancel()
		log.Info("serving MCP tool catalog on stdio")
		if err := studiomcp.Serve(gctx, mcpServer); err != nil {
			return fmt.Errorf("MCP server: %w", err)
		}
		return nil
	})

	return group.Wait()
}
