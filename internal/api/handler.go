// Package api serves the mission control HTTP JSON API.
package api

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	svc       *app.MissionService
	deliverer app.Deliverer
	logger    *log.Logger
}

// NewHandler creates a Handler. deliverer may be nil, in which case send and
// broadcast answer 503.
func NewHandler(svc *app.MissionService, deliverer app.Deliverer, logger *log.Logger) *Handler {
	return &Handler{svc: svc, deliverer: deliverer, logger: logger}
}

// queryInt parses an integer query parameter, returning fallback when absent or malformed.
func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
