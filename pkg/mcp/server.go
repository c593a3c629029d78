// Package mcp wires the broker's tool catalog into an MCP server speaking
// line-delimited JSON-RPC over stdio to the assistant process.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flarecore/studiolink/pkg/broker"
	"github.com/flarecore/studiolink/pkg/tools"
)

// NewServer builds the MCP server advertising the full studiolink tool
// catalog, wired to b for dispatch.
func NewServer(b *broker.Broker) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "studiolink",
		Version: broker.Version,
	}, nil)

	tools.Register(server, b)
	return server
}

// Serve runs the MCP server on stdio until the client disconnects or ctx is
// cancelled. This is the main loop of the process — the plugin-facing HTTP
// server (Primary mode) runs independently in the background.
func Serve(ctx context.Context, server *sdkmcp.Server) error {
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
