// Package worker adapts the long-running GA refinement (C5) into a
// pkg/jobs.Queue handler, so a caller can dispatch evolve() and poll
// its progress through the C6 cache instead of holding an HTTP request
// open for the whole run.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/ga"
	"github.com/classplan/timetable-solver/internal/solve"
	"github.com/classplan/timetable-solver/pkg/jobs"
	"github.com/classplan/timetable-solver/pkg/metrics"
)

// EvolvePayload is the jobs.Job payload an evolve dispatch carries.
type EvolvePayload struct {
	SessionID  string
	Seed       int64
	Population []domain.Timetable
	Config     ga.Config
	Catalog    domain.Catalog
}

// EvolveWorker runs solve.Evolve on behalf of the job queue. Every
// generation is checkpointed to the cache by solve.Evolve itself, so
// the worker's own job completion carries no separate result payload.
type EvolveWorker struct {
	cache   *cache.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewEvolveWorker constructs an evolve worker backed by the shared cache
// store. m may be nil; every Metrics method is a no-op on a nil receiver.
func NewEvolveWorker(store *cache.Store, logger *zap.Logger, m *metrics.Metrics) *EvolveWorker {
	return &EvolveWorker{cache: store, logger: logger, metrics: m}
}

// Handle runs one evolve dispatch. It deliberately never returns an
// error: a malformed or failed run has nowhere useful to retry to, and
// swallowing it here keeps pkg/jobs.Queue's retry/backoff machinery
// out of the picture entirely.
func (w *EvolveWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(EvolvePayload)
	if !ok {
		w.logger.Sugar().Errorw("evolve job payload had unexpected type", "job_id", job.ID)
		return nil
	}

	result := solve.Evolve(ctx, payload.Population, payload.Config, payload.Catalog, payload.Seed, payload.SessionID, w.cache, w.metrics)
	w.logger.Sugar().Infow("evolve job completed",
		"job_id", job.ID, "session_id", payload.SessionID, "generations", len(result.Stats))
	return nil
}
