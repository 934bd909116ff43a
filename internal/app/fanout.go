package app

import (
	"context"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

// CreateMessageInput is a comment posted to a task thread.
type CreateMessageInput struct {
	TaskID      string
	FromAgentID string
	Content     string
	Attachments []domain.Attachment
}

// CreateMessage stores a comment and fans out notifications:
// one mention notification per @handle occurrence (the sender excluded), then one
// generic notification per subscriber who is neither the sender nor mentioned.
// A mentioned subscriber therefore receives exactly one notification per mention.
// A message on an unknown task is rejected with ErrNotFound. It is never stored
// with notifications that fall back to a generic "a task" title.
func (s *MissionService) CreateMessage(in CreateMessageInput) (string, error) {
	if in.TaskID == "" {
		return "", required("task_id")
	}
	if in.FromAgentID == "" {
		return "", required("from_agent_id")
	}
	if in.Content == "" {
		return "", required("content")
	}
	mentions := ExtractMentions(in.Content)

	var id string
	var mentioned, generic int
	err := s.Run(func(state *domain.MissionState) error {
		task := state.FindTask(in.TaskID)
		if task == nil {
			return notFound("task", in.TaskID)
		}
		now := s.now()
		id = s.newID()
		state.Messages = append(state.Messages, domain.Message{
			ID:          id,
			TaskID:      in.TaskID,
			FromAgentID: in.FromAgentID,
			Content:     in.Content,
			Mentions:    mentions,
			Attachments: in.Attachments,
			CreatedAt:   now,
		})

		skip := map[string]bool{in.FromAgentID: true}
		for _, handle := range mentions {
			skip[handle] = true
			if handle == in.FromAgentID {
				continue
			}
			s.notify(state, domain.Notification{
				MentionedAgentID: handle,
				SourceAgentID:    in.FromAgentID,
				Content:          mentionText(in.FromAgentID, task.Title, in.Content),
				TaskID:           in.TaskID,
				MessageID:        id,
			}, now)
			mentioned++
		}
		for _, sub := range subscribersOf(state, in.TaskID) {
			if skip[sub] {
				continue
			}
			s.notify(state, domain.Notification{
				MentionedAgentID: sub,
				SourceAgentID:    in.FromAgentID,
				Content:          subscriberText(in.FromAgentID, task.Title),
				TaskID:           in.TaskID,
				MessageID:        id,
			}, now)
			generic++
		}
		s.record(state, in.FromAgentID, "commented", domain.TargetMessage, id, "Commented on: "+task.Title, now)
		return nil
	})
	if err != nil {
		return "", err
	}
	ctx := context.Background()
	otel.RecordNotifications(ctx, kindMention, mentioned)
	otel.RecordNotifications(ctx, kindSubscriber, generic)
	return id, nil
}

// ListMessagesByTask returns the thread for taskID, oldest first.
func (s *MissionService) ListMessagesByTask(taskID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, m := range state.Messages {
			if m.TaskID == taskID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// ListMessagesByAgent returns messages sent by agentID, newest first.
func (s *MissionService) ListMessagesByAgent(agentID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, m := range state.Messages {
			if m.FromAgentID == agentID {
				out = append(out, m)
			}
		}
		return nil
	})
	newestFirst(out, func(m domain.Message) time.Time { return m.CreatedAt })
	return out, err
}
