package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
)

// memRepo implements app.StateRepository in memory.
type memRepo struct {
	mu    sync.Mutex
	state *domain.MissionState
}

func (r *memRepo) Load() (*domain.MissionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = domain.NewMissionState()
	}
	raw, err := json.Marshal(r.state)
	if err != nil {
		return nil, err
	}
	out := &domain.MissionState{}
	return out, json.Unmarshal(raw, out)
}

func (r *memRepo) Save(state *domain.MissionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	return nil
}

func newTestService(t *testing.T) (*app.MissionService, *memRepo) {
	t.Helper()
	cfg := policy.DefaultConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "state.sqlite")
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	repo := &memRepo{}
	svc := app.NewMissionService(repo, policy.New(cfg), log.New(io.Discard, "", 0), app.WithIDGenerator(ids))
	return svc, repo
}

// testServer creates a MCPServer with all tools registered for testing.
func testServer(svc *app.MissionService, opts ...RegisterOption) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithResourceCapabilities(false, true))
	Register(s, svc, log.New(io.Discard, "", 0), opts...)
	return s
}

// callTool calls a registered tool via the MCPServer's HandleMessage.
// Returns the parsed CallToolResult or an error.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()

	reqJSON, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	respJSON := s.HandleMessage(context.Background(), reqJSON)

	respBytes, marshalErr := json.Marshal(respJSON)
	if marshalErr != nil {
		t.Fatalf("marshal response: %v", marshalErr)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}

	return &result, nil
}

// resultText extracts the first text content from a CallToolResult.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func mustCall(t *testing.T, s *server.MCPServer, name string, args map[string]any) string {
	t.Helper()
	result, err := callTool(t, s, name, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return resultText(t, result)
}
