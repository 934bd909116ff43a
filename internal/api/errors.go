package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

// writeError maps service errors to HTTP responses:
// ErrNotFound is 404, validation errors are 400, everything else is 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, app.ErrNotSubscribed):
		c.JSON(http.StatusNotFound, gin.H{"error": "not subscribed"})
	case app.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// isServiceErr reports whether err came from the service layer rather than a collaborator.
func isServiceErr(err error) bool {
	return errors.Is(err, app.ErrNotFound) || app.IsValidation(err)
}
