package app

import (
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// DocumentOutcome says which dedup branch CreateOrUpdateDocument took.
type DocumentOutcome string

const (
	DocumentCreated   DocumentOutcome = "created"
	DocumentUpdated   DocumentOutcome = "updated"
	DocumentUnchanged DocumentOutcome = "unchanged"
)

// DocumentInput is a document submitted by an agent.
type DocumentInput struct {
	Title       string
	Content     string
	Type        domain.DocumentType
	AgentID     string
	TaskID      string
	SourcePath  string
	ContentHash string
}

// CreateOrUpdateDocument stores a document with deduplication:
//  1. a document with the same SourcePath is patched in place and an "updated" activity appended;
//  2. otherwise a document with the same ContentHash is returned untouched, with no activity;
//  3. otherwise a new document is inserted with a "created" activity.
func (s *MissionService) CreateOrUpdateDocument(in DocumentInput) (string, DocumentOutcome, error) {
	if in.Title == "" {
		return "", "", required("title")
	}
	if !in.Type.Valid() {
		return "", "", invalid("type", string(in.Type), "must be report, code, design, notes, other or deliverable")
	}
	if in.AgentID == "" {
		return "", "", required("agent_id")
	}

	var id string
	var result DocumentOutcome
	err := s.Query(func(state *domain.MissionState) error {
		id, result = matchDocument(state, in)
		return nil
	})
	if err != nil {
		return "", "", err
	}
	// A content hash hit writes nothing, so it never takes the write path.
	if result == DocumentUnchanged {
		return id, result, nil
	}

	err = s.Run(func(state *domain.MissionState) error {
		now := s.now()
		id, result = matchDocument(state, in)
		switch result {
		case DocumentUpdated:
			doc := state.FindDocument(id)
			doc.Title = in.Title
			doc.Content = in.Content
			doc.Type = in.Type
			doc.UpdatedAt = now
			if in.ContentHash != "" {
				doc.ContentHash = in.ContentHash
			}
			s.record(state, in.AgentID, "updated", domain.TargetDocument, id, "Updated document: "+in.Title, now)
		case DocumentUnchanged:
			// Matched by a concurrent writer between the Query and Run above.
		default:
			id = s.newID()
			result = DocumentCreated
			state.Documents = append(state.Documents, domain.Document{
				ID:          id,
				Title:       in.Title,
				Content:     in.Content,
				Type:        in.Type,
				TaskID:      in.TaskID,
				AgentID:     in.AgentID,
				SourcePath:  in.SourcePath,
				ContentHash: in.ContentHash,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			s.record(state, in.AgentID, "created", domain.TargetDocument, id, "Created document: "+in.Title, now)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return id, result, nil
}

// matchDocument applies the dedup lookup order. An empty outcome means no match.
func matchDocument(state *domain.MissionState, in DocumentInput) (string, DocumentOutcome) {
	if in.SourcePath != "" {
		for _, d := range state.Documents {
			if d.SourcePath == in.SourcePath {
				return d.ID, DocumentUpdated
			}
		}
	}
	if in.ContentHash != "" {
		for _, d := range state.Documents {
			if d.ContentHash == in.ContentHash {
				return d.ID, DocumentUnchanged
			}
		}
	}
	return "", ""
}

// DocumentPatch holds optional field updates.
type DocumentPatch struct {
	Title   *string
	Content *string
}

// UpdateDocument patches a document's title and/or content.
func (s *MissionService) UpdateDocument(id string, patch DocumentPatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return invalid("title", "", "cannot be empty")
	}
	return s.Run(func(state *domain.MissionState) error {
		doc := state.FindDocument(id)
		if doc == nil {
			return notFound("document", id)
		}
		if patch.Title != nil {
			doc.Title = *patch.Title
		}
		if patch.Content != nil {
			doc.Content = *patch.Content
		}
		doc.UpdatedAt = s.now()
		return nil
	})
}

// GetDocument returns one document or ErrNotFound.
func (s *MissionService) GetDocument(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.Query(func(state *domain.MissionState) error {
		d := state.FindDocument(id)
		if d == nil {
			return notFound("document", id)
		}
		doc = *d
		return nil
	})
	return doc, err
}

// ListDocuments returns all documents, newest first.
func (s *MissionService) ListDocuments() ([]domain.Document, error) {
	return s.documentsWhere(func(domain.Document) bool { return true })
}

// DocumentsByTask returns documents attached to taskID, newest first.
func (s *MissionService) DocumentsByTask(taskID string) ([]domain.Document, error) {
	return s.documentsWhere(func(d domain.Document) bool { return d.TaskID == taskID })
}

// DocumentsByAgent returns documents authored by agentID, newest first.
func (s *MissionService) DocumentsByAgent(agentID string) ([]domain.Document, error) {
	return s.documentsWhere(func(d domain.Document) bool { return d.AgentID == agentID })
}

func (s *MissionService) documentsWhere(keep func(domain.Document) bool) ([]domain.Document, error) {
	out := []domain.Document{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, d := range state.Documents {
			if keep(d) {
				out = append(out, d)
			}
		}
		return nil
	})
	newestFirst(out, func(d domain.Document) time.Time { return d.CreatedAt })
	return out, err
}
