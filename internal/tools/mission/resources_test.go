package mission

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
)

// readResource reads uri via HandleMessage and returns its text, or the RPC error message.
func readResource(t *testing.T, s *server.MCPServer, uri string) (string, bool) {
	t.Helper()
	reqJSON, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "resources/read",
		"params":  map[string]any{"uri": uri},
	})
	respBytes, err := json.Marshal(s.HandleMessage(context.Background(), reqJSON))
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var resp struct {
		Result struct {
			Contents []struct {
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != nil {
		return resp.Error.Message, false
	}
	if len(resp.Result.Contents) == 0 {
		t.Fatalf("no contents for %s", uri)
	}
	return resp.Result.Contents[0].Text, true
}

func TestInstructionsResource(t *testing.T) {
	svc, _ := newTestService(t)
	text, ok := readResource(t, testServer(svc), "mission://instructions")
	if !ok || text != InstructionsText() {
		t.Errorf("instructions = %q", text)
	}
}

func TestBoardResource(t *testing.T) {
	svc, _ := newTestService(t)
	s := testServer(svc)
	mustCall(t, s, "create_task", map[string]any{"title": "Write launch post", "created_by": "marketing_lead", "assigned_to": "content_seo"})
	mustCall(t, s, "create_task", map[string]any{"title": "Old task", "created_by": "marketing_lead"})
	mustCall(t, s, "update_task_status", map[string]any{"task_id": "id-4", "status": "done", "agent_id": "marketing_lead"})

	text, ok := readResource(t, s, "mission://board")
	if !ok {
		t.Fatalf("read board: %s", text)
	}
	for _, want := range []string{"- assigned: 1", "- done: 1", "Write launch post (assigned, medium, content_seo)"} {
		if !strings.Contains(text, want) {
			t.Errorf("board missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Old task") {
		t.Errorf("done tasks should not be listed as open:\n%s", text)
	}
}

func TestAgentBriefingResource(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.InitializeAgents(); err != nil {
		t.Fatal(err)
	}
	s := testServer(svc)
	mustCall(t, s, "create_task", map[string]any{"title": "Map partner programs", "created_by": "marketing_lead", "assigned_to": "partner_scout"})

	text, ok := readResource(t, s, "mission://agents/partner_scout")
	if !ok {
		t.Fatalf("read briefing: %s", text)
	}
	for _, want := range []string{"Shayra (partner_scout)", "Map partner programs", "Unread notifications: 1", "Subscribed threads: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("briefing missing %q:\n%s", want, text)
		}
	}

	if _, ok := readResource(t, s, "mission://agents/nobody"); ok {
		t.Error("unknown agent should fail")
	}
}
