package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/classplan/timetable-solver/internal/dto"
	"github.com/classplan/timetable-solver/internal/evaluator"
	"github.com/classplan/timetable-solver/pkg/response"
)

// EvaluateHandler exposes C2's scoring function as a standalone
// diagnostics endpoint, independent of a full solve() run.
type EvaluateHandler struct {
	validate *validator.Validate
}

// NewEvaluateHandler constructs an evaluate handler.
func NewEvaluateHandler(validate *validator.Validate) *EvaluateHandler {
	return &EvaluateHandler{validate: validate}
}

// Evaluate godoc
// @Summary Score one candidate timetable
// @Tags Evaluate
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRequest true "Evaluate request"
// @Success 200 {object} response.Envelope
// @Router /evaluate [post]
func (h *EvaluateHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if !bindAndValidate(c, &req, h.validate) {
		return
	}

	result := evaluator.Evaluate(req.ToDomain(), req.Weights.ToDomain(), req.ExpectedEntries)
	response.JSON(c, http.StatusOK, dto.EvaluateResponseFromResult(result), nil)
}
