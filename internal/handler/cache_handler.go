package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/internal/dto"
	appErrors "github.com/classplan/timetable-solver/pkg/errors"
	"github.com/classplan/timetable-solver/pkg/middleware/responsemeta"
	"github.com/classplan/timetable-solver/pkg/response"
)

// CacheHandler exposes read/management access to the C6 cache over HTTP.
type CacheHandler struct {
	cache *cache.Store
}

// NewCacheHandler constructs a cache handler.
func NewCacheHandler(store *cache.Store) *CacheHandler {
	return &CacheHandler{cache: store}
}

// BestOfSession godoc
// @Summary Fetch the best-scoring cached timetable for a session
// @Tags Cache
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /cache/sessions/{id}/best [get]
func (h *CacheHandler) BestOfSession(c *gin.Context) {
	sessionID := c.Param("id")
	tt, found, err := h.cache.BestOfSession(c.Request.Context(), sessionID)
	responsemeta.SetCacheHit(c, found)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no cached timetable for session"))
		return
	}
	response.JSON(c, http.StatusOK, dto.TimetableFromDomain(tt), responsemeta.Extract(c))
}

// PopulationOfGeneration godoc
// @Summary Fetch every cached candidate for one session generation
// @Tags Cache
// @Produce json
// @Param id path string true "Session ID"
// @Param gen path int true "Generation index"
// @Success 200 {object} response.Envelope
// @Router /cache/sessions/{id}/generations/{gen} [get]
func (h *CacheHandler) PopulationOfGeneration(c *gin.Context) {
	sessionID := c.Param("id")
	generation, err := strconv.Atoi(c.Param("gen"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "generation must be an integer"))
		return
	}

	population, err := h.cache.PopulationOf(c.Request.Context(), sessionID, generation)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TimetableDTO, 0, len(population))
	for _, tt := range population {
		out = append(out, dto.TimetableFromDomain(tt))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// CompleteSession godoc
// @Summary Mark a solving session complete, optionally pruning to the best entry
// @Tags Cache
// @Produce json
// @Param id path string true "Session ID"
// @Param keepBest query bool false "Keep only the best-scoring entry (default true)"
// @Success 200 {object} response.Envelope
// @Router /cache/sessions/{id}/complete [post]
func (h *CacheHandler) CompleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	keepBest := c.DefaultQuery("keepBest", "true") != "false"

	if err := h.cache.CompleteSession(c.Request.Context(), sessionID, keepBest); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sessionId": sessionID, "completed": true}, nil)
}

// Stats godoc
// @Summary Report aggregate cache usage
// @Tags Cache
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
