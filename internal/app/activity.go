package app

import (
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// record appends one Activity. Activities are never modified afterwards.
func (s *MissionService) record(state *domain.MissionState, agentID, action string, target domain.TargetType, targetID, message string, at time.Time) {
	state.Activities = append(state.Activities, domain.Activity{
		ID:         s.newID(),
		AgentID:    agentID,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Message:    message,
		CreatedAt:  at,
	})
}

// RecentActivities returns the newest activities first. limit <= 0 uses the configured default.
func (s *MissionService) RecentActivities(limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = s.policy.ActivityLimit()
	}
	var out []domain.Activity
	err := s.Query(func(state *domain.MissionState) error {
		out = append([]domain.Activity{}, state.Activities...)
		return nil
	})
	newestFirst(out, func(a domain.Activity) time.Time { return a.CreatedAt })
	return limitSlice(out, limit), err
}

// ActivitiesByAgent returns agentID's activities, newest first. limit <= 0 returns all.
func (s *MissionService) ActivitiesByAgent(agentID string, limit int) ([]domain.Activity, error) {
	out := []domain.Activity{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, a := range state.Activities {
			if a.AgentID == agentID {
				out = append(out, a)
			}
		}
		return nil
	})
	newestFirst(out, func(a domain.Activity) time.Time { return a.CreatedAt })
	return limitSlice(out, limit), err
}
