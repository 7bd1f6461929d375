package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/internal/dto"
	"github.com/classplan/timetable-solver/internal/solve"
	"github.com/classplan/timetable-solver/pkg/metrics"
	"github.com/classplan/timetable-solver/pkg/response"
)

// SolveHandler exposes the solve() entry operation over HTTP.
type SolveHandler struct {
	cache    *cache.Store
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// NewSolveHandler constructs a solve handler backed by the shared cache
// store. m may be nil; every Metrics method is a no-op on a nil receiver.
func NewSolveHandler(store *cache.Store, validate *validator.Validate, m *metrics.Metrics) *SolveHandler {
	return &SolveHandler{cache: store, validate: validate, metrics: m}
}

// Solve godoc
// @Summary Generate candidate timetables
// @Tags Solve
// @Accept json
// @Produce json
// @Param payload body dto.SolveRequest true "Solve request"
// @Success 200 {object} response.Envelope
// @Router /solve [post]
func (h *SolveHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if !bindAndValidate(c, &req, h.validate) {
		return
	}

	result, err := solve.Solve(c.Request.Context(), req.ToDomain(), h.cache, h.metrics)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SolveResponseFromResult(result), nil)
}
