package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/search"
)

// Searcher runs full-text queries. *search.Store satisfies it.
type Searcher interface {
	Query(query string, kind search.Kind, limit int) ([]search.Result, error)
}

// searchHandler answers GET /api/search?q=&kind=&limit=.
func (h *Handler) searchHandler(idx Searcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		if q == "" {
			badRequest(c, errors.New("q is required"))
			return
		}
		kind := search.Kind(c.Query("kind"))
		if kind != "" && !kind.Valid() {
			badRequest(c, errors.New("kind must be task, message or document"))
			return
		}
		results, err := idx.Query(q, kind, queryInt(c, "limit", 10))
		if err != nil {
			h.logger.Printf("search %q: %v", q, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
