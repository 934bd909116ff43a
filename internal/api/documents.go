package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
)

type createDocumentRequest struct {
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content"`
	Type        string `json:"type" binding:"required"`
	AgentID     string `json:"agent_id" binding:"required"`
	TaskID      string `json:"task_id"`
	SourcePath  string `json:"source_path"`
	ContentHash string `json:"content_hash"`
}

type updateDocumentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ListDocuments lists all documents, or those of one task or agent when
// task_id or agent_id is given.
func (h *Handler) ListDocuments(c *gin.Context) {
	var (
		docs []domain.Document
		err  error
	)
	switch {
	case c.Query("task_id") != "":
		docs, err = h.svc.DocumentsByTask(c.Query("task_id"))
	case c.Query("agent_id") != "":
		docs, err = h.svc.DocumentsByAgent(c.Query("agent_id"))
	default:
		docs, err = h.svc.ListDocuments()
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, outcome, err := h.svc.CreateOrUpdateDocument(app.DocumentInput{
		Title:       req.Title,
		Content:     req.Content,
		Type:        domain.DocumentType(req.Type),
		AgentID:     req.AgentID,
		TaskID:      req.TaskID,
		SourcePath:  req.SourcePath,
		ContentHash: req.ContentHash,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if outcome == app.DocumentCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": id, "outcome": outcome})
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.svc.GetDocument(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) UpdateDocument(c *gin.Context) {
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.UpdateDocument(c.Param("id"), app.DocumentPatch{Title: req.Title, Content: req.Content}); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
