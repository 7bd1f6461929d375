package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/classplan/timetable-solver/internal/dto"
	"github.com/classplan/timetable-solver/internal/worker"
	appErrors "github.com/classplan/timetable-solver/pkg/errors"
	"github.com/classplan/timetable-solver/pkg/jobs"
	"github.com/classplan/timetable-solver/pkg/response"
)

// EvolveHandler dispatches the GA (C5) over a caller-supplied initial
// population onto the evolve job queue; every generation is
// checkpointed to the C6 cache as it completes, so the caller polls
// the cache session endpoints for progress instead of holding the
// request open.
type EvolveHandler struct {
	queue    *jobs.Queue
	validate *validator.Validate
}

// NewEvolveHandler constructs an evolve handler backed by the evolve job queue.
func NewEvolveHandler(queue *jobs.Queue, validate *validator.Validate) *EvolveHandler {
	return &EvolveHandler{queue: queue, validate: validate}
}

// Evolve godoc
// @Summary Dispatch a population through the genetic optimizer
// @Tags Evolve
// @Accept json
// @Produce json
// @Param payload body dto.EvolveRequest true "Evolve request"
// @Success 202 {object} response.Envelope
// @Router /evolve [post]
func (h *EvolveHandler) Evolve(c *gin.Context) {
	var req dto.EvolveRequest
	if !bindAndValidate(c, &req, h.validate) {
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	payload := worker.EvolvePayload{
		SessionID:  sessionID,
		Seed:       req.Seed,
		Population: req.ToPopulation(),
		Config:     req.ToGAConfig(req.ExpectedEntries),
		Catalog:    req.ToCatalog(),
	}

	if err := h.queue.Enqueue(jobs.Job{ID: sessionID, Type: "evolve", Payload: payload}); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to dispatch evolve job"))
		return
	}

	response.JSON(c, http.StatusAccepted, gin.H{"sessionId": sessionID, "status": "queued"}, nil)
}
