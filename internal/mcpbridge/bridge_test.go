package mcpbridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/R3defined/thonny/internal/protocol"
)

type fakeQuerier struct {
	got  []*protocol.Record
	resp func(cmd *protocol.Record) (*protocol.Record, error)
}

func (f *fakeQuerier) Inline(_ context.Context, cmd *protocol.Record) (*protocol.Record, error) {
	f.got = append(f.got, cmd)
	return f.resp(cmd)
}

func globalsQuerier() *fakeQuerier {
	return &fakeQuerier{resp: func(cmd *protocol.Record) (*protocol.Record, error) {
		module := cmd.Lookup("module_name", "").(string)
		if module != "__main__" {
			return protocol.NewInlineResponse("get_globals", protocol.F("error", "module \""+module+"\" is not loaded")), nil
		}
		return protocol.NewInlineResponse("get_globals",
			protocol.F("module_name", module),
			protocol.F("globals", map[string]any{"y": "2", "x": "1"}),
		), nil
	}}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "")
}

func TestGetGlobalsTool(t *testing.T) {
	q := globalsQuerier()
	b := &bridge{q: q, timeout: time.Second}

	res, err := b.getGlobals(context.Background(), callRequest("get_globals", nil))
	if err != nil {
		t.Fatalf("getGlobals() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("getGlobals() IsError, text = %q", resultText(t, res))
	}
	want := "globals of __main__:\n  x = 1\n  y = 2\n"
	if got := resultText(t, res); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if len(q.got) != 1 || q.got[0].Kind() != protocol.KindInlineCommand {
		t.Fatalf("querier got %v, want one inline command", q.got)
	}
}

func TestGetGlobalsToolBackendError(t *testing.T) {
	b := &bridge{q: globalsQuerier()}
	res, err := b.getGlobals(context.Background(), callRequest("get_globals", map[string]any{"module_name": "zzz"}))
	if err != nil {
		t.Fatalf("getGlobals() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("IsError = false, want true")
	}
	if got := resultText(t, res); got != `module "zzz" is not loaded` {
		t.Fatalf("text = %q", got)
	}
}

func TestToolTransportError(t *testing.T) {
	b := &bridge{q: &fakeQuerier{resp: func(*protocol.Record) (*protocol.Record, error) {
		return nil, errors.New("channel closed")
	}}}
	res, err := b.getGlobals(context.Background(), callRequest("get_globals", nil))
	if err != nil {
		t.Fatalf("getGlobals() error = %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "backend: channel closed") {
		t.Fatalf("result = %+v, want backend error", res)
	}
}

func TestGetFrameInfoTool(t *testing.T) {
	focus := protocol.TextRange{Lineno: 2, ColOffset: 4, EndLineno: 2, EndColOffset: 11}
	q := &fakeQuerier{resp: func(cmd *protocol.Record) (*protocol.Record, error) {
		id, _ := cmd.GetInt("frame_id")
		return protocol.NewInlineResponse("get_frame_info",
			protocol.F("frame", protocol.FrameInfo{ID: id, CodeName: "f", Filename: "/p/a.py", Focus: &focus}),
			protocol.F("locals", map[string]any{"n": "3"}),
			protocol.F("globals", map[string]any{}),
		), nil
	}}
	b := &bridge{q: q}

	res, err := b.getFrameInfo(context.Background(), callRequest("get_frame_info", map[string]any{"frame_id": float64(5)}))
	if err != nil {
		t.Fatalf("getFrameInfo() error = %v", err)
	}
	want := "[5] f in /p/a.py, focus=TR(2.4, 2.11)\nlocals:\n  n = 3\nglobals:\n  (none)\n"
	if got := resultText(t, res); got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}

	res, err = b.getFrameInfo(context.Background(), callRequest("get_frame_info", map[string]any{"frame_id": 1.5}))
	if err != nil {
		t.Fatalf("getFrameInfo() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("IsError = false for fractional frame_id")
	}
	if len(q.got) != 1 {
		t.Fatalf("querier called %d times, want 1", len(q.got))
	}
}

func TestServerListsAndCallsToolsInProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := NewServer(globalsQuerier(), "test", time.Second)
	c, err := mcpclient.NewInProcessClient(s)
	if err != nil {
		t.Fatalf("NewInProcessClient() error = %v", err)
	}
	defer c.Close()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "bridge-test", Version: "0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	if !names["get_globals"] || !names["get_frame_info"] {
		t.Fatalf("tools = %v, want get_globals and get_frame_info", names)
	}

	res, err := c.CallTool(ctx, callRequest("get_globals", map[string]any{"module_name": "__main__"}))
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !strings.Contains(resultText(t, res), "x = 1") {
		t.Fatalf("CallTool() text = %q", resultText(t, res))
	}
}
