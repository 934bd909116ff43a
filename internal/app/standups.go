package app

import (
	"time"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

// StandupDateLayout is the UTC calendar-day format standups are keyed by.
const StandupDateLayout = "2006-01-02"

// StandupInput is an agent's daily report.
type StandupInput struct {
	AgentID   string
	Completed []string
	Planned   []string
	Blockers  []string
}

// CreateStandup upserts today's (UTC) standup for the agent. An existing entry has
// its three lists overwritten and keeps its CreatedAt; no activity is recorded for
// an overwrite. created reports whether a new standup was inserted.
func (s *MissionService) CreateStandup(in StandupInput) (id string, created bool, err error) {
	if in.AgentID == "" {
		return "", false, required("agent_id")
	}
	err = s.Run(func(state *domain.MissionState) error {
		now := s.now()
		date := now.UTC().Format(StandupDateLayout)
		for i := range state.Standups {
			st := &state.Standups[i]
			if st.Date == date && st.AgentID == in.AgentID {
				st.Completed = nonNil(in.Completed)
				st.Planned = nonNil(in.Planned)
				st.Blockers = nonNil(in.Blockers)
				id = st.ID
				return nil
			}
		}
		id = s.newID()
		created = true
		state.Standups = append(state.Standups, domain.Standup{
			ID:        id,
			Date:      date,
			AgentID:   in.AgentID,
			Completed: nonNil(in.Completed),
			Planned:   nonNil(in.Planned),
			Blockers:  nonNil(in.Blockers),
			CreatedAt: now,
		})
		s.record(state, in.AgentID, "standup", domain.TargetAgent, in.AgentID, "Posted daily standup", now)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

// StandupsByDate returns all standups for a YYYY-MM-DD date in submission order.
func (s *MissionService) StandupsByDate(date string) ([]domain.Standup, error) {
	if _, err := time.Parse(StandupDateLayout, date); err != nil {
		return nil, invalid("date", date, "must be YYYY-MM-DD")
	}
	out := []domain.Standup{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, st := range state.Standups {
			if st.Date == date {
				out = append(out, st)
			}
		}
		return nil
	})
	return out, err
}

// TodayStandups returns standups for the current UTC day.
func (s *MissionService) TodayStandups() ([]domain.Standup, error) {
	return s.StandupsByDate(s.now().UTC().Format(StandupDateLayout))
}

// StandupsByAgent returns agentID's standups, newest first. limit <= 0 returns all.
func (s *MissionService) StandupsByAgent(agentID string, limit int) ([]domain.Standup, error) {
	out := []domain.Standup{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, st := range state.Standups {
			if st.AgentID == agentID {
				out = append(out, st)
			}
		}
		return nil
	})
	newestFirst(out, func(st domain.Standup) time.Time { return st.CreatedAt })
	return limitSlice(out, limit), err
}
