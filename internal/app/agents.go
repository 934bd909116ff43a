package app

import (
	"fmt"
	"sort"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
)

// rosterAgents converts configured roster entries into idle agents.
func rosterAgents(roster []policy.AgentConfig) ([]domain.Agent, error) {
	agents := make([]domain.Agent, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, r := range roster {
		if r.AgentID == "" {
			return nil, required("agent_id")
		}
		if seen[r.AgentID] {
			return nil, invalid("agent_id", r.AgentID, "duplicate roster entry")
		}
		seen[r.AgentID] = true
		level := domain.AgentLevel(r.Level)
		if level == "" {
			level = domain.LevelWorking
		}
		if !level.Valid() {
			return nil, invalid("level", r.Level, "must be LEAD, SPC, INT or WORKING")
		}
		agents = append(agents, domain.Agent{
			AgentID: r.AgentID,
			Name:    r.Name,
			Emoji:   r.Emoji,
			Role:    r.Role,
			Status:  domain.AgentIdle,
			Level:   level,
		})
	}
	return agents, nil
}

// InitializeAgents inserts roster agents that are missing and leaves existing ones untouched.
// Returns the number inserted.
func (s *MissionService) InitializeAgents() (int, error) {
	agents, err := rosterAgents(s.policy.Roster())
	if err != nil {
		return 0, err
	}
	inserted := 0
	err = s.Run(func(state *domain.MissionState) error {
		now := s.now()
		for _, a := range agents {
			if _, ok := state.Agents[a.AgentID]; ok {
				continue
			}
			a.LastHeartbeat = now
			agent := a
			state.Agents[a.AgentID] = &agent
			inserted++
		}
		return nil
	})
	return inserted, err
}

// ResetAgents replaces every agent with a fresh copy of the roster. This is an
// administrative operation: it is recorded as a "reset" activity by actor.
// Returns the number of agents after the reset.
func (s *MissionService) ResetAgents(actor string) (int, error) {
	if actor == "" {
		return 0, required("actor")
	}
	agents, err := rosterAgents(s.policy.Roster())
	if err != nil {
		return 0, err
	}
	err = s.Run(func(state *domain.MissionState) error {
		now := s.now()
		removed := len(state.Agents)
		state.Agents = make(map[string]*domain.Agent, len(agents))
		for _, a := range agents {
			a.LastHeartbeat = now
			agent := a
			state.Agents[a.AgentID] = &agent
		}
		s.record(state, actor, "reset", domain.TargetAgent, "roster",
			fmt.Sprintf("Reset agent roster: removed %d, inserted %d", removed, len(agents)), now)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(agents), nil
}

// Heartbeat marks agentID active and records the heartbeat time.
func (s *MissionService) Heartbeat(agentID string) error {
	return s.updateAgent(agentID, func(a *domain.Agent) {
		a.Status = domain.AgentActive
		a.LastHeartbeat = s.now()
	})
}

// UpdateAgentStatus sets agentID's status.
func (s *MissionService) UpdateAgentStatus(agentID string, status domain.AgentStatus) error {
	if !status.Valid() {
		return invalid("status", string(status), "must be active, idle, blocked or offline")
	}
	return s.updateAgent(agentID, func(a *domain.Agent) {
		a.Status = status
	})
}

// SetCurrentTask points agentID at taskID. A non-empty task makes the agent
// active; clearing it makes the agent idle.
func (s *MissionService) SetCurrentTask(agentID, taskID string) error {
	return s.updateAgent(agentID, func(a *domain.Agent) {
		a.CurrentTaskID = taskID
		if taskID != "" {
			a.Status = domain.AgentActive
		} else {
			a.Status = domain.AgentIdle
		}
	})
}

func (s *MissionService) updateAgent(agentID string, apply func(*domain.Agent)) error {
	if agentID == "" {
		return required("agent_id")
	}
	return s.Run(func(state *domain.MissionState) error {
		a, ok := state.Agents[agentID]
		if !ok || a == nil {
			return notFound("agent", agentID)
		}
		apply(a)
		return nil
	})
}

// ListAgents returns all agents ordered by AgentID.
func (s *MissionService) ListAgents() ([]domain.Agent, error) {
	out := []domain.Agent{}
	err := s.Query(func(state *domain.MissionState) error {
		for _, a := range state.Agents {
			if a != nil {
				out = append(out, *a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, err
}

// GetAgent returns one agent or ErrNotFound.
func (s *MissionService) GetAgent(agentID string) (domain.Agent, error) {
	var agent domain.Agent
	err := s.Query(func(state *domain.MissionState) error {
		a, ok := state.Agents[agentID]
		if !ok || a == nil {
			return notFound("agent", agentID)
		}
		agent = *a
		return nil
	})
	return agent, err
}
