package mission

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/designscozyroom-lab/missioncontrol/internal/search"
)

func TestSearchTool(t *testing.T) {
	svc, _ := newTestService(t)
	store, err := search.Open(filepath.Join(t.TempDir(), "search.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	s := testServer(svc, WithSearch(store))
	mustCall(t, s, "create_task", map[string]any{"title": "Audit onboarding emails", "created_by": "marketing_lead"})
	mustCall(t, s, "post_message", map[string]any{"task_id": "id-1", "from_agent_id": "content_seo", "content": "The welcome email has a broken link"})

	idx := search.NewIndexer(store, svc, log.New(io.Discard, "", 0))
	if indexed, _ := idx.Sync(); indexed != 2 {
		t.Fatalf("indexed = %d, want 2", indexed)
	}

	text := mustCall(t, s, "search", map[string]any{"query": "email"})
	if !strings.Contains(text, "2 result(s)") {
		t.Errorf("search text = %q", text)
	}

	text = mustCall(t, s, "search", map[string]any{"query": "broken", "kind": "message"})
	if !strings.Contains(text, "[message ") || !strings.Contains(text, "(task id-1)") {
		t.Errorf("message search = %q", text)
	}

	text = mustCall(t, s, "search", map[string]any{"query": "nonexistentword"})
	if !strings.Contains(text, "No results") {
		t.Errorf("empty search = %q", text)
	}

	if _, err := callTool(t, s, "search", map[string]any{"query": "x", "kind": "agent"}); err == nil {
		t.Error("invalid kind should fail")
	}
	if _, err := callTool(t, s, "search", map[string]any{}); err == nil {
		t.Error("missing query should fail")
	}
}

func TestSearchToolNotRegisteredWithoutIndex(t *testing.T) {
	svc, _ := newTestService(t)
	s := testServer(svc)
	if _, err := callTool(t, s, "search", map[string]any{"query": "x"}); err == nil {
		t.Error("search should not be registered without WithSearch")
	}
}
