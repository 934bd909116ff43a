package app

import (
	"context"
)

// BroadcastPrefix is prepended to broadcast messages.
const BroadcastPrefix = "[Broadcast] "

// BroadcastResult is the outcome for one recipient.
type BroadcastResult struct {
	AgentID string `json:"agent_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Broadcast sends message to every agent, one at a time. A failed recipient is
// recorded in its result and never stops the remaining sends.
func (s *MissionService) Broadcast(ctx context.Context, d Deliverer, message string) ([]BroadcastResult, error) {
	if message == "" {
		return nil, required("message")
	}
	agents, err := s.ListAgents()
	if err != nil {
		return nil, err
	}
	results := make([]BroadcastResult, 0, len(agents))
	for _, a := range agents {
		r := BroadcastResult{AgentID: a.AgentID, Success: true}
		if err := d.Deliver(ctx, a.AgentID, BroadcastPrefix+message); err != nil {
			r.Success = false
			r.Error = err.Error()
			s.logger.Printf("Broadcast to %s failed: %v", a.AgentID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Send delivers message directly to one agent, bypassing the notification queue.
func (s *MissionService) Send(ctx context.Context, d Deliverer, agentID, message string) error {
	if agentID == "" {
		return required("agent_id")
	}
	if message == "" {
		return required("message")
	}
	return d.Deliver(ctx, agentID, message)
}
