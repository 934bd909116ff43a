package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

type agentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type currentTaskRequest struct {
	TaskID string `json:"task_id"`
}

type resetAgentsRequest struct {
	Actor string `json:"actor" binding:"required"`
}

type sendRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type broadcastRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.svc.ListAgents()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handler) GetAgent(c *gin.Context) {
	agent, err := h.svc.GetAgent(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *Handler) Heartbeat(c *gin.Context) {
	if err := h.svc.Heartbeat(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) UpdateAgentStatus(c *gin.Context) {
	var req agentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.UpdateAgentStatus(c.Param("id"), domain.AgentStatus(req.Status)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) SetCurrentTask(c *gin.Context) {
	var req currentTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.SetCurrentTask(c.Param("id"), req.TaskID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) InitializeAgents(c *gin.Context) {
	n, err := h.svc.InitializeAgents()
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Printf("Initialized %d agent(s) via API", n)
	c.JSON(http.StatusOK, gin.H{"inserted": n})
}

func (h *Handler) ResetAgents(c *gin.Context) {
	var req resetAgentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := h.svc.ResetAgents(req.Actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Printf("Agent roster reset by %s via API (%d agents)", req.Actor, n)
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h *Handler) Send(c *gin.Context) {
	if h.deliverer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delivery not configured"})
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Send(c.Request.Context(), h.deliverer, req.AgentID, req.Message); err != nil {
		if isServiceErr(err) {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Broadcast(c *gin.Context) {
	if h.deliverer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delivery not configured"})
		return
	}
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, err := h.svc.Broadcast(c.Request.Context(), h.deliverer, req.Message)
	if err != nil {
		h.writeError(c, err)
		return
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "sent": len(results) - failed, "failed": failed})
}
