package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flarecore/studiolink/internal/brokererr"
	"github.com/flarecore/studiolink/pkg/broker"
)

// Register adds every tool in Catalog, plus the three session-management
// tools that bypass the plugin queue, to server.
func Register(server *mcp.Server, b *broker.Broker) {
	for _, spec := range Catalog {
		mcp.AddTool(server, &mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
		}, dispatchHandler(b, spec))
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List every Studio session currently connected to this broker.",
	}, listSessionsHandler(b))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "switch_session",
		Description: "Switch which connected Studio session tool calls are routed to.",
	}, switchSessionHandler(b))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_active_session",
		Description: "Report which Studio session is currently active.",
	}, getActiveSessionHandler(b))
}

// dispatchHandler builds the generic wrapper every catalog tool uses:
// marshal the typed args back to JSON, call broker.Broker.Send, and
// translate the outcome into an MCP tool result.
func dispatchHandler(b *broker.Broker, spec Spec) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return errorResult(brokererr.InvalidArguments(err.Error())), nil, nil
		}

		result, err := b.Send(ctx, spec.Name, raw, spec.Timeout.Duration())
		if err != nil {
			return errorResult(err), nil, nil
		}
		return textResult(string(result)), nil, nil
	}
}

type switchSessionArgs struct {
	SessionID string `json:"session_id"`
}

func listSessionsHandler(b *broker.Broker) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ map[string]any) (*mcp.CallToolResult, any, error) {
		sessions, err := b.ListSessions(ctx)
		if err != nil {
			return errorResult(err), nil, nil
		}
		encoded, err := json.Marshal(sessions)
		if err != nil {
			return errorResult(brokererr.ServerError(err.Error())), nil, nil
		}
		return textResult(string(encoded)), nil, nil
	}
}

func switchSessionHandler(b *broker.Broker) func(context.Context, *mcp.CallToolRequest, switchSessionArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args switchSessionArgs) (*mcp.CallToolResult, any, error) {
		if args.SessionID == "" {
			return errorResult(brokererr.InvalidArguments("session_id is required")), nil, nil
		}
		ok, err := b.SwitchSession(ctx, args.SessionID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		if !ok {
			return errorResult(brokererr.InvalidArguments(fmt.Sprintf("session %q not found", args.SessionID))), nil, nil
		}
		return textResult(fmt.Sprintf("switched to session %s", args.SessionID)), nil, nil
	}
}

func getActiveSessionHandler(b *broker.Broker) func(context.Context, *mcp.CallToolRequest, map[string]any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ map[string]any) (*mcp.CallToolResult, any, error) {
		info, ok, err := b.GetActiveSession(ctx)
		if err != nil {
			return errorResult(err), nil, nil
		}
		if !ok {
			return errorResult(brokererr.PluginNotConnected()), nil, nil
		}
		encoded, err := json.Marshal(info)
		if err != nil {
			return errorResult(brokererr.ServerError(err.Error())), nil, nil
		}
		return textResult(string(encoded)), nil, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
