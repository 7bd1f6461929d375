package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/classplan/timetable-solver/internal/dto"
	"github.com/classplan/timetable-solver/internal/rank"
	"github.com/classplan/timetable-solver/pkg/response"
)

// RankHandler exposes C6's ranking half: sorting a batch of candidate
// timetables by score, without touching the cache.
type RankHandler struct {
	validate *validator.Validate
}

// NewRankHandler constructs a rank handler.
func NewRankHandler(validate *validator.Validate) *RankHandler {
	return &RankHandler{validate: validate}
}

// Rank godoc
// @Summary Rank a batch of candidate timetables by score
// @Tags Rank
// @Accept json
// @Produce json
// @Param payload body dto.RankRequest true "Rank request"
// @Success 200 {object} response.Envelope
// @Router /rank [post]
func (h *RankHandler) Rank(c *gin.Context) {
	var req dto.RankRequest
	if !bindAndValidate(c, &req, h.validate) {
		return
	}

	ranked := rank.Rank(req.ToDomain(), req.Weights.ToDomain(), req.ExpectedEntries)
	response.JSON(c, http.StatusOK, dto.RankResponseFromResult(ranked), nil)
}
