package app

import (
	"slices"
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// subscribe adds (agentID, taskID) unless present. Returns true if it already existed.
func subscribe(state *domain.MissionState, agentID, taskID string, at time.Time) bool {
	if isSubscribed(state, agentID, taskID) {
		return true
	}
	state.Subscriptions = append(state.Subscriptions, domain.Subscription{
		AgentID:   agentID,
		TaskID:    taskID,
		CreatedAt: at,
	})
	return false
}

func isSubscribed(state *domain.MissionState, agentID, taskID string) bool {
	for _, sub := range state.Subscriptions {
		if sub.AgentID == agentID && sub.TaskID == taskID {
			return true
		}
	}
	return false
}

// subscribersOf returns subscriber agent IDs for a task in subscription order.
func subscribersOf(state *domain.MissionState, taskID string) []string {
	var out []string
	for _, sub := range state.Subscriptions {
		if sub.TaskID == taskID {
			out = append(out, sub.AgentID)
		}
	}
	return out
}

// Subscribe adds agentID as a subscriber of taskID. Idempotent: returns
// alreadySubscribed=true and writes nothing when the pair exists.
func (s *MissionService) Subscribe(agentID, taskID string) (alreadySubscribed bool, err error) {
	if agentID == "" {
		return false, required("agent_id")
	}
	if taskID == "" {
		return false, required("task_id")
	}
	err = s.Run(func(state *domain.MissionState) error {
		alreadySubscribed = subscribe(state, agentID, taskID, s.now())
		return nil
	})
	return alreadySubscribed, err
}

// Unsubscribe removes the (agentID, taskID) subscription. Returns ErrNotSubscribed if absent.
func (s *MissionService) Unsubscribe(agentID, taskID string) error {
	if agentID == "" {
		return required("agent_id")
	}
	if taskID == "" {
		return required("task_id")
	}
	return s.Run(func(state *domain.MissionState) error {
		idx := slices.IndexFunc(state.Subscriptions, func(sub domain.Subscription) bool {
			return sub.AgentID == agentID && sub.TaskID == taskID
		})
		if idx < 0 {
			return ErrNotSubscribed
		}
		state.Subscriptions = slices.Delete(state.Subscriptions, idx, idx+1)
		return nil
	})
}

// SubscribersOf returns the agents subscribed to taskID.
func (s *MissionService) SubscribersOf(taskID string) ([]string, error) {
	var out []string
	err := s.Query(func(state *domain.MissionState) error {
		out = nonNil(subscribersOf(state, taskID))
		return nil
	})
	return out, err
}

// SubscriptionsOf returns the task IDs agentID is subscribed to.
func (s *MissionService) SubscriptionsOf(agentID string) ([]string, error) {
	out := []string{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, sub := range state.Subscriptions {
			if sub.AgentID == agentID {
				out = append(out, sub.TaskID)
			}
		}
		return nil
	})
	return out, err
}

// IsSubscribed reports whether agentID is subscribed to taskID.
func (s *MissionService) IsSubscribed(agentID, taskID string) (bool, error) {
	var ok bool
	err := s.Query(func(state *domain.MissionState) error {
		ok = isSubscribed(state, agentID, taskID)
		return nil
	})
	return ok, err
}
