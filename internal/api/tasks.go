package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	CreatedBy   string     `json:"created_by" binding:"required"`
	AssignedTo  string     `json:"assigned_to"`
	Priority    string     `json:"priority"`
	Type        string     `json:"type"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date"`
}

type assignTaskRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
	AssignedBy string `json:"assigned_by" binding:"required"`
}

type taskStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	AgentID string `json:"agent_id" binding:"required"`
}

type taskResponse struct {
	domain.Task
	Subscribers []string `json:"subscribers"`
}

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.svc.ListTasks(app.TaskFilter{
		Status:     domain.TaskStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.CreateTask(app.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		AssignedTo:  req.AssignedTo,
		Priority:    domain.Priority(req.Priority),
		Type:        domain.TaskType(req.Type),
		Tags:        req.Tags,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) GetTask(c *gin.Context) {
	id := c.Param("id")
	task, err := h.svc.GetTask(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	subs, err := h.svc.SubscribersOf(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskResponse{Task: task, Subscribers: subs})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := app.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		patch.Priority = &p
	}
	if err := h.svc.UpdateTask(c.Param("id"), patch); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) AssignTask(c *gin.Context) {
	var req assignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.AssignTask(c.Param("id"), req.AssignedTo, req.AssignedBy); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.UpdateTaskStatus(c.Param("id"), domain.TaskStatus(req.Status), req.AgentID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
