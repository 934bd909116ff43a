package search

import (
	"errors"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "search.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexAndQuery(t *testing.T) {
	s := tempStore(t)

	entries := []Entry{
		{Kind: KindTask, RefID: "t1", TaskID: "t1", Title: "Launch landing page", Content: "Write copy for the pricing section"},
		{Kind: KindMessage, RefID: "m1", TaskID: "t1", Title: "loki", Content: "Pricing table draft is ready for review"},
		{Kind: KindDocument, RefID: "d1", Title: "Competitor notes", Content: "Nobody offers annual discounts"},
	}
	for _, e := range entries {
		if err := s.Index(e); err != nil {
			t.Fatalf("Index %s: %v", e.Key(), err)
		}
	}

	results, err := s.Query("pricing", "", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	results, err = s.Query("pricing", KindMessage, 10)
	if err != nil {
		t.Fatalf("Query kind: %v", err)
	}
	if len(results) != 1 || results[0].RefID != "m1" || results[0].TaskID != "t1" {
		t.Fatalf("kind filter: %+v", results)
	}
	if results[0].Kind != KindMessage {
		t.Errorf("Kind = %q", results[0].Kind)
	}
}

func TestIndexReplacesEntry(t *testing.T) {
	s := tempStore(t)

	e := Entry{Kind: KindDocument, RefID: "d1", Title: "Plan", Content: "alpha"}
	if err := s.Index(e); err != nil {
		t.Fatal(err)
	}
	e.Content = "bravo"
	if err := s.Index(e); err != nil {
		t.Fatal(err)
	}

	if r, _ := s.Query("alpha", "", 10); len(r) != 0 {
		t.Errorf("stale content still matches: %+v", r)
	}
	if r, _ := s.Query("bravo", "", 10); len(r) != 1 {
		t.Errorf("new content: got %d results", len(r))
	}
}

func TestIndexIfChanged(t *testing.T) {
	s := tempStore(t)
	e := Entry{Kind: KindTask, RefID: "t1", Title: "Title", Content: "body"}

	changed, err := s.IndexIfChanged(e)
	if err != nil || !changed {
		t.Fatalf("first index: changed=%v err=%v", changed, err)
	}
	changed, err = s.IndexIfChanged(e)
	if err != nil || changed {
		t.Fatalf("same content: changed=%v err=%v", changed, err)
	}
	e.Content = "new body"
	changed, err = s.IndexIfChanged(e)
	if err != nil || !changed {
		t.Fatalf("changed content: changed=%v err=%v", changed, err)
	}
}

func TestRemoveAndKeys(t *testing.T) {
	s := tempStore(t)
	for _, id := range []string{"a", "b"} {
		if err := s.Index(Entry{Kind: KindTask, RefID: id, Title: "shared word"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Remove("task:a"); err != nil {
		t.Fatal(err)
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "task:b" {
		t.Errorf("Keys = %v", keys)
	}
	if r, _ := s.Query("shared", "", 10); len(r) != 1 {
		t.Errorf("got %d results after remove", len(r))
	}
}

func TestQueryEmptyAndOperators(t *testing.T) {
	s := tempStore(t)
	if err := s.Index(Entry{Kind: KindTask, RefID: "t1", Title: "deploy", Content: "ship it"}); err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"", "   ", "AND OR", "\"*()"} {
		r, err := s.Query(q, "", 10)
		if err != nil {
			t.Errorf("Query(%q): %v", q, err)
		}
		if len(r) != 0 {
			t.Errorf("Query(%q) = %d results", q, len(r))
		}
	}

	if _, err := s.Query("deploy: \"ship*", "", 10); err != nil {
		t.Errorf("special characters should be sanitized: %v", err)
	}
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello world", "hello world"},
		{"task:123", "task 123"},
		{"a AND b", "a b"},
		{"\"quoted\"", "quoted"},
		{"follow-up", "follow up"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeQuery(tt.in); got != tt.want {
			t.Errorf("sanitizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCloseTwice(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "x", "search.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Index(Entry{Kind: KindTask, RefID: "t1"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Index after Close = %v, want ErrClosed", err)
	}
	if _, err := s.Query("x", "", 10); !errors.Is(err, ErrClosed) {
		t.Errorf("Query after Close = %v, want ErrClosed", err)
	}
}
