package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

type createMessageRequest struct {
	FromAgentID string              `json:"from_agent_id" binding:"required"`
	Content     string              `json:"content" binding:"required"`
	Attachments []domain.Attachment `json:"attachments"`
}

type agentRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

func (h *Handler) ListTaskMessages(c *gin.Context) {
	msgs, err := h.svc.ListMessagesByTask(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) ListAgentMessages(c *gin.Context) {
	msgs, err := h.svc.ListMessagesByAgent(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.CreateMessage(app.CreateMessageInput{
		TaskID:      c.Param("id"),
		FromAgentID: req.FromAgentID,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "mentions": app.ExtractMentions(req.Content)})
}

func (h *Handler) ListSubscribers(c *gin.Context) {
	subs, err := h.svc.SubscribersOf(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": subs})
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	already, err := h.svc.Subscribe(req.AgentID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"already_subscribed": already})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Unsubscribe(req.AgentID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ListAgentSubscriptions(c *gin.Context) {
	tasks, err := h.svc.SubscriptionsOf(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_ids": tasks})
}
