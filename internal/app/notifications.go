package app

import (
	"context"
	"fmt"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

// Notification kinds, used as metrics labels.
const (
	kindAssignment = "assignment"
	kindMention    = "mention"
	kindSubscriber = "subscriber"
	kindManual     = "manual"
)

const mentionPreviewRunes = 100

func assignmentText(title string) string {
	return "You've been assigned task: " + title
}

func mentionText(from, title, content string) string {
	return fmt.Sprintf("@%s mentioned you in \"%s\": %s", from, title, headRunes(content, mentionPreviewRunes))
}

func subscriberText(from, title string) string {
	return fmt.Sprintf("New comment from @%s in \"%s\"", from, title)
}

// notify appends an undelivered notification.
func (s *MissionService) notify(state *domain.MissionState, n domain.Notification, at time.Time) string {
	n.ID = s.newID()
	n.Delivered = false
	n.CreatedAt = at
	state.Notifications = append(state.Notifications, n)
	return n.ID
}

// NotificationInput is a manually created notification.
type NotificationInput struct {
	MentionedAgentID string
	SourceAgentID    string
	Content          string
	TaskID           string
	MessageID        string
}

// CreateNotification queues a notification outside the task and message flows.
func (s *MissionService) CreateNotification(in NotificationInput) (string, error) {
	if in.MentionedAgentID == "" {
		return "", required("mentioned_agent_id")
	}
	if in.Content == "" {
		return "", required("content")
	}
	var id string
	err := s.Run(func(state *domain.MissionState) error {
		id = s.notify(state, domain.Notification{
			MentionedAgentID: in.MentionedAgentID,
			SourceAgentID:    in.SourceAgentID,
			Content:          in.Content,
			TaskID:           in.TaskID,
			MessageID:        in.MessageID,
		}, s.now())
		return nil
	})
	if err != nil {
		return "", err
	}
	otel.RecordNotifications(context.Background(), kindManual, 1)
	return id, nil
}

// UndeliveredNotifications returns every notification with Delivered=false, oldest first.
func (s *MissionService) UndeliveredNotifications() ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, n := range state.Notifications {
			if !n.Delivered {
				out = append(out, n)
			}
		}
		return nil
	})
	return out, err
}

// MarkNotificationDelivered sets Delivered=true. Marking an already delivered
// notification is a no-op. Returns ErrNotFound for an unknown id.
func (s *MissionService) MarkNotificationDelivered(id string) error {
	return s.Run(func(state *domain.MissionState) error {
		n := state.FindNotification(id)
		if n == nil {
			return notFound("notification", id)
		}
		n.Delivered = true
		return nil
	})
}

// MarkAllDeliveredForAgent marks all of agentID's pending notifications delivered and returns how many changed.
func (s *MissionService) MarkAllDeliveredForAgent(agentID string) (int, error) {
	if agentID == "" {
		return 0, required("agent_id")
	}
	count := 0
	err := s.Run(func(state *domain.MissionState) error {
		for i := range state.Notifications {
			n := &state.Notifications[i]
			if n.MentionedAgentID == agentID && !n.Delivered {
				n.Delivered = true
				count++
			}
		}
		return nil
	})
	return count, err
}

// NotificationsForAgent returns agentID's undelivered notifications, newest first.
func (s *MissionService) NotificationsForAgent(agentID string) ([]domain.Notification, error) {
	return s.notificationsFor(agentID, true, 0)
}

// AllNotificationsForAgent returns agentID's notifications regardless of delivery, newest first.
// limit <= 0 returns all.
func (s *MissionService) AllNotificationsForAgent(agentID string, limit int) ([]domain.Notification, error) {
	return s.notificationsFor(agentID, false, limit)
}

func (s *MissionService) notificationsFor(agentID string, undeliveredOnly bool, limit int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, n := range state.Notifications {
			if n.MentionedAgentID != agentID || (undeliveredOnly && n.Delivered) {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	newestFirst(out, func(n domain.Notification) time.Time { return n.CreatedAt })
	return limitSlice(out, limit), err
}
