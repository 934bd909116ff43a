package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

type createNotificationRequest struct {
	MentionedAgentID string `json:"mentioned_agent_id" binding:"required"`
	SourceAgentID    string `json:"source_agent_id"`
	Content          string `json:"content" binding:"required"`
	TaskID           string `json:"task_id"`
	MessageID        string `json:"message_id"`
}

func (h *Handler) ListUndelivered(c *gin.Context) {
	ns, err := h.svc.UndeliveredNotifications()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.CreateNotification(app.NotificationInput{
		MentionedAgentID: req.MentionedAgentID,
		SourceAgentID:    req.SourceAgentID,
		Content:          req.Content,
		TaskID:           req.TaskID,
		MessageID:        req.MessageID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) MarkDelivered(c *gin.Context) {
	if err := h.svc.MarkNotificationDelivered(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListAgentNotifications returns undelivered notifications for an agent, or
// the full history when all=true.
func (h *Handler) ListAgentNotifications(c *gin.Context) {
	agentID := c.Param("id")
	ns, err := h.svc.NotificationsForAgent(agentID)
	if c.Query("all") == "true" {
		ns, err = h.svc.AllNotificationsForAgent(agentID, queryInt(c, "limit", 50))
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllDeliveredForAgent(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
