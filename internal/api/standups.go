package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

type createStandupRequest struct {
	AgentID   string   `json:"agent_id" binding:"required"`
	Completed []string `json:"completed"`
	Planned   []string `json:"planned"`
	Blockers  []string `json:"blockers"`
}

// ListStandups returns the standups for ?date=YYYY-MM-DD, today by default.
func (h *Handler) ListStandups(c *gin.Context) {
	var (
		standups []domain.Standup
		err      error
	)
	if date := c.Query("date"); date != "" {
		standups, err = h.svc.StandupsByDate(date)
	} else {
		standups, err = h.svc.TodayStandups()
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standups": standups})
}

func (h *Handler) CreateStandup(c *gin.Context) {
	var req createStandupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, created, err := h.svc.CreateStandup(app.StandupInput{
		AgentID:   req.AgentID,
		Completed: req.Completed,
		Planned:   req.Planned,
		Blockers:  req.Blockers,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": id, "created": created})
}

func (h *Handler) ListAgentStandups(c *gin.Context) {
	standups, err := h.svc.StandupsByAgent(c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standups": standups})
}

func (h *Handler) ListActivities(c *gin.Context) {
	acts, err := h.svc.RecentActivities(queryInt(c, "limit", 50))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": acts})
}

func (h *Handler) ListAgentActivities(c *gin.Context) {
	acts, err := h.svc.ActivitiesByAgent(c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": acts})
}
