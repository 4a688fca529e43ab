package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/enrichment"
)

// EpisodeHandler exposes the episode database for manual video mapping.
type EpisodeHandler struct {
	lookup enrichment.Lookup
}

// NewEpisodeHandler creates a new EpisodeHandler.
func NewEpisodeHandler(lookup enrichment.Lookup) *EpisodeHandler {
	if lookup == nil {
		lookup = enrichment.Disabled{}
	}
	return &EpisodeHandler{lookup: lookup}
}

// Register mounts the episode routes on rg.
func (h *EpisodeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/episodes/search", h.Search)
	rg.GET("/episodes/:id", h.Get)
}

// Search handles GET /episodes/search?title=&limit=.
func (h *EpisodeHandler) Search(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondError(c, http.StatusBadRequest, "title query parameter is required")
		return
	}

	hits, err := h.lookup.SearchByTitle(c.Request.Context(), title, parseLimit(c, 10))
	if errors.Is(err, enrichment.ErrUnavailable) {
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	if hits == nil {
		hits = []*enrichment.EpisodeSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"episodes": hits, "count": len(hits)})
}

// Get handles GET /episodes/:id.
func (h *EpisodeHandler) Get(c *gin.Context) {
	ep, err := h.lookup.GetEpisode(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if ep == nil {
		respondError(c, http.StatusNotFound, "episode not found: "+c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, ep)
}
