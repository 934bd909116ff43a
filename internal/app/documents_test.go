package app

import (
	"errors"
	"testing"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

func TestCreateOrUpdateDocument_Insert(t *testing.T) {
	svc, repo := newTestService(t)
	id, res, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "Report", Content: "v1", Type: domain.DocReport, AgentID: "a1", TaskID: "t1"})
	if err != nil {
		t.Fatalf("CreateOrUpdateDocument: %v", err)
	}
	if res != DocumentCreated {
		t.Errorf("outcome = %q, want created", res)
	}
	doc, err := svc.GetDocument(id)
	if err != nil || doc.Content != "v1" || doc.TaskID != "t1" {
		t.Errorf("doc = %+v, err = %v", doc, err)
	}
	act := repo.state.Activities[len(repo.state.Activities)-1]
	if act.Action != "created" || act.TargetType != domain.TargetDocument || act.Message != "Created document: Report" {
		t.Errorf("activity = %+v", act)
	}
}

func TestCreateOrUpdateDocument_SourcePathUpdates(t *testing.T) {
	svc, repo := newTestService(t)
	id1, _, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "A", Content: "v1", Type: domain.DocNotes, AgentID: "a1", SourcePath: "/x.md", ContentHash: "h1"})
	if err != nil {
		t.Fatal(err)
	}
	created, _ := svc.GetDocument(id1)

	id2, res, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "A2", Content: "v2", Type: domain.DocReport, AgentID: "a1", SourcePath: "/x.md", ContentHash: "h2"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 || res != DocumentUpdated {
		t.Errorf("got (%s, %s), want (%s, updated)", id2, res, id1)
	}
	if n := len(repo.state.Documents); n != 1 {
		t.Fatalf("documents = %d, want 1", n)
	}
	doc, _ := svc.GetDocument(id1)
	if doc.Title != "A2" || doc.Content != "v2" || doc.Type != domain.DocReport || doc.ContentHash != "h2" {
		t.Errorf("doc = %+v", doc)
	}
	if !doc.UpdatedAt.After(created.UpdatedAt) || !doc.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("timestamps: created %v updated %v", doc.CreatedAt, doc.UpdatedAt)
	}
	act := repo.state.Activities[len(repo.state.Activities)-1]
	if act.Action != "updated" || act.Message != "Updated document: A2" {
		t.Errorf("activity = %+v", act)
	}
}

func TestCreateOrUpdateDocument_ContentHashNoop(t *testing.T) {
	svc, repo := newTestService(t)
	id1, _, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "A", Content: "same", Type: domain.DocCode, AgentID: "a1", ContentHash: "h1"})
	if err != nil {
		t.Fatal(err)
	}
	acts := len(repo.state.Activities)
	saves := repo.saves

	id2, res, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "B", Content: "same", Type: domain.DocCode, AgentID: "a2", ContentHash: "h1"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id1 || res != DocumentUnchanged {
		t.Errorf("got (%s, %s), want (%s, unchanged)", id2, res, id1)
	}
	doc, _ := svc.GetDocument(id1)
	if doc.Title != "A" {
		t.Errorf("Title = %q, hash hit must not mutate", doc.Title)
	}
	if len(repo.state.Activities) != acts || repo.saves != saves {
		t.Error("hash hit must not write")
	}
}

func TestCreateOrUpdateDocument_SourcePathBeatsHash(t *testing.T) {
	svc, _ := newTestService(t)
	byHash, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "H", Content: "c", Type: domain.DocOther, AgentID: "a1", ContentHash: "h"})
	byPath, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "P", Content: "c", Type: domain.DocOther, AgentID: "a1", SourcePath: "/p"})

	id, res, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "P2", Content: "c", Type: domain.DocOther, AgentID: "a1", SourcePath: "/p", ContentHash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if id != byPath || res != DocumentUpdated {
		t.Errorf("got (%s, %s), want path match %s (hash doc %s)", id, res, byPath, byHash)
	}
}

func TestCreateOrUpdateDocument_NoIdentityAlwaysInserts(t *testing.T) {
	svc, repo := newTestService(t)
	for i := 0; i < 2; i++ {
		if _, res, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "N", Content: "c", Type: domain.DocNotes, AgentID: "a1"}); err != nil || res != DocumentCreated {
			t.Fatalf("insert %d = (%s, %v)", i, res, err)
		}
	}
	if n := len(repo.state.Documents); n != 2 {
		t.Errorf("documents = %d, want 2", n)
	}
}

func TestCreateOrUpdateDocument_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	if _, _, err := svc.CreateOrUpdateDocument(DocumentInput{Title: "x", Type: "spreadsheet", AgentID: "a1"}); !IsValidation(err) {
		t.Errorf("bad type err = %v", err)
	}
	if _, _, err := svc.CreateOrUpdateDocument(DocumentInput{Type: domain.DocNotes, AgentID: "a1"}); !IsValidation(err) {
		t.Errorf("missing title err = %v", err)
	}
}

func TestUpdateDocument(t *testing.T) {
	svc, _ := newTestService(t)
	id, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "T", Content: "old", Type: domain.DocNotes, AgentID: "a1"})
	content := "new"
	if err := svc.UpdateDocument(id, DocumentPatch{Content: &content}); err != nil {
		t.Fatal(err)
	}
	doc, _ := svc.GetDocument(id)
	if doc.Content != "new" || doc.Title != "T" {
		t.Errorf("doc = %+v", doc)
	}
	if err := svc.UpdateDocument("missing", DocumentPatch{Content: &content}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestDocumentQueries(t *testing.T) {
	svc, _ := newTestService(t)
	d1, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "1", Type: domain.DocNotes, AgentID: "a1", TaskID: "t1"})
	d2, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "2", Type: domain.DocNotes, AgentID: "a2", TaskID: "t1"})
	d3, _, _ := svc.CreateOrUpdateDocument(DocumentInput{Title: "3", Type: domain.DocNotes, AgentID: "a1"})

	all, _ := svc.ListDocuments()
	if len(all) != 3 || all[0].ID != d3 {
		t.Errorf("ListDocuments = %+v", all)
	}
	byTask, _ := svc.DocumentsByTask("t1")
	if len(byTask) != 2 || byTask[0].ID != d2 || byTask[1].ID != d1 {
		t.Errorf("DocumentsByTask = %+v", byTask)
	}
	byAgent, _ := svc.DocumentsByAgent("a1")
	if len(byAgent) != 2 || byAgent[0].ID != d3 {
		t.Errorf("DocumentsByAgent = %+v", byAgent)
	}
}
