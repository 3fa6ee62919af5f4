// Package mcpbridge exposes the back-end's inline state queries as MCP
// tools so an assistant can inspect a running program.
package mcpbridge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/R3defined/thonny/internal/protocol"
)

// Querier sends an inline command and returns its response.
type Querier interface {
	Inline(ctx context.Context, cmd *protocol.Record) (*protocol.Record, error)
}

type bridge struct {
	q       Querier
	timeout time.Duration
}

// NewServer builds an MCP server with the get_globals and get_frame_info
// tools. Each call is bounded by timeout.
func NewServer(q Querier, version string, timeout time.Duration) *server.MCPServer {
	b := &bridge{q: q, timeout: timeout}
	s := server.NewMCPServer("thonny", version)

	s.AddTool(mcp.Tool{
		Name:        "get_globals",
		Description: "List the global variables of a loaded module in the running program",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"module_name": map[string]any{
					"type":        "string",
					"description": "Module to inspect (default __main__)",
				},
			},
		},
	}, b.getGlobals)

	s.AddTool(mcp.Tool{
		Name:        "get_frame_info",
		Description: "Show a paused stack frame with its local and global variables",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"frame_id": map[string]any{
					"type":        "integer",
					"description": "Frame id from the debugger stack",
				},
			},
			Required: []string{"frame_id"},
		},
	}, b.getFrameInfo)

	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (b *bridge) getGlobals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module := request.GetString("module_name", "__main__")
	resp, errResult := b.inline(ctx, protocol.NewInlineCommand("get_globals", protocol.F("module_name", module)))
	if errResult != nil {
		return errResult, nil
	}

	globals, err := resp.GetDict("globals")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("malformed response: %v", err)), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "globals of %s:\n", module)
	writeVariables(&sb, globals)
	return mcp.NewToolResultText(sb.String()), nil
}

func (b *bridge) getFrameInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetFloat("frame_id", -1)
	if id < 0 || id != float64(int64(id)) {
		return mcp.NewToolResultError("frame_id must be a non-negative integer"), nil
	}
	resp, errResult := b.inline(ctx, protocol.NewInlineCommand("get_frame_info", protocol.F("frame_id", int64(id))))
	if errResult != nil {
		return errResult, nil
	}

	frameRec, err := resp.GetRecord("frame")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("malformed response: %v", err)), nil
	}
	frame, err := protocol.FrameInfoFromRecord(frameRec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("malformed response: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(frame.Description())
	sb.WriteString("\n")
	for _, section := range []string{"locals", "globals"} {
		d, err := resp.GetDict(section)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", section)
		writeVariables(&sb, d)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// inline runs cmd and turns transport failures and back-end errors into
// tool error results.
func (b *bridge) inline(ctx context.Context, cmd *protocol.Record) (*protocol.Record, *mcp.CallToolResult) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	resp, err := b.q.Inline(ctx, cmd)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("backend: %v", err))
	}
	if msg, ok := resp.Lookup("error", nil).(string); ok {
		return nil, mcp.NewToolResultError(msg)
	}
	return resp, nil
}

func writeVariables(sb *strings.Builder, d *protocol.Dict) {
	if d.Len() == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	lines := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		lines = append(lines, fmt.Sprintf("  %v = %v", e.Key, e.Value))
	}
	sort.Strings(lines)
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
}
