package solve

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/ga"
	"github.com/classplan/timetable-solver/internal/preassign"
	"github.com/classplan/timetable-solver/internal/rank"
	"github.com/classplan/timetable-solver/internal/scheduler"
	appErrors "github.com/classplan/timetable-solver/pkg/errors"
	"github.com/classplan/timetable-solver/pkg/metrics"
)

// Solve runs C3 (pre-assign) -> C4 (schedule) -> C2 (score) -> C6
// (cache + rank), matching the data flow in SPEC_FULL §2. It never
// returns an error for data-dependent failures — those surface as
// Result.Status=infeasible with populated Diagnostics, per §6/§7,
// including entity validation failures such as bad home rooms or
// unknown ids. A non-nil error is returned only when scheduler.New
// rejects the catalog. m may be nil; every Metrics method is a no-op
// on a nil receiver.
func Solve(ctx context.Context, req Request, store *cache.Store, m *metrics.Metrics) (Result, error) {
	start := time.Now()
	req = defaultedRequest(req)
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result := Result{
		SchoolID:      req.SchoolID,
		AcademicYearID: req.AcademicYearID,
		SessionID:     req.SessionID,
	}

	if violations := domain.ValidateEntities(req.Classes, req.Subjects, req.Teachers, req.Rooms, req.TimeSlots); len(violations) > 0 {
		result.Status = StatusInfeasible
		result.Diagnostics = diagnosticsFromViolations(violations)
		result.GenerationTimeSeconds = elapsedSeconds(start, time.Now())
		m.ObserveSolve(string(result.Status), time.Since(start), 0)
		return result, nil
	}

	active := scheduler.ActiveSlots(req.TimeSlots)
	targets := scheduler.DistributePeriods(req.Classes, req.Subjects, req.Requirements, len(active))

	demands := make([]preassign.Demand, 0, len(targets))
	for key, target := range targets {
		demands = append(demands, preassign.Demand{
			ClassID:        key.ClassID,
			SubjectID:      key.SubjectID,
			PeriodsPerWeek: target.PeriodsPerWeek,
		})
	}

	assignResult, err := preassign.Assign(demands, req.Teachers)
	if err != nil {
		result.Status = StatusInfeasible
		result.Diagnostics = diagnosticsFromSolveError(err)
		result.GenerationTimeSeconds = elapsedSeconds(start, time.Now())
		m.ObserveSolve(string(result.Status), time.Since(start), 0)
		return result, nil
	}

	sched, err := scheduler.New(req.Classes, req.Subjects, req.Teachers, req.Rooms, req.TimeSlots, req.Requirements, assignResult.Assignments)
	if err != nil {
		return Result{}, err
	}

	candidates, err := sched.GenerateCandidates(scheduler.Options{
		Seed:                      req.Seed,
		NumCandidates:             req.NumCandidates,
		AllowPartialSolutions:     req.AllowPartialSolutions,
		MinCoverage:               req.MinCoverage,
		EnforceTeacherConsistency: req.EnforceTeacherConsistency,
	})
	if err != nil {
		result.Status = StatusInfeasible
		result.Diagnostics = diagnosticsFromSolveError(err)
		result.GenerationTimeSeconds = elapsedSeconds(start, time.Now())
		m.ObserveSolve(string(result.Status), time.Since(start), 0)
		return result, nil
	}

	expected := sched.ExpectedEntries()
	ranked := rank.Rank(candidates, req.Weights, expected)

	cacheCandidates(ctx, store, req.SessionID, 0, ranked)

	solutions := make([]domain.Timetable, 0, len(ranked))
	worstCoverage := 1.0
	var gaps []string
	for _, r := range ranked {
		tt := r.Timetable
		tt.Metadata.Fitness = r.Score.TotalScore
		solutions = append(solutions, tt)
		if tt.Metadata.Coverage < worstCoverage {
			worstCoverage = tt.Metadata.Coverage
		}
		for _, g := range tt.Metadata.Gaps {
			gaps = append(gaps, g.Detail)
		}
	}

	status := StatusSuccess
	if worstCoverage < 1.0 {
		status = StatusPartial
		if worstCoverage < req.MinCoverage {
			status = StatusInfeasible
		}
	}

	result.Status = status
	result.Solutions = solutions
	result.GenerationTimeSeconds = elapsedSeconds(start, time.Now())
	result.Diagnostics = Diagnostics{
		TotalAssignments:   totalAssignments(solutions),
		CoveragePercentage: ranked[0].Timetable.Metadata.Coverage,
		BestFitness:        ranked[0].Score.TotalScore,
		Gaps:               gaps,
	}
	m.ObserveSolve(string(result.Status), time.Since(start), len(candidates))
	return result, nil
}

// Evolve runs C5 against an existing population, delegating fitness
// to C2 and checkpointing every generation through C6 when store is
// non-nil (§4.5 "Resumption"). m may be nil; every Metrics method is a
// no-op on a nil receiver.
func Evolve(ctx context.Context, population []domain.Timetable, cfg ga.Config, cat domain.Catalog, seed int64, sessionID string, store *cache.Store, m *metrics.Metrics) ga.Result {
	start := time.Now()
	if store != nil {
		baseCheckpoint := cfg.Checkpoint
		cfg.Checkpoint = func(generation int, pop []domain.Timetable, stats ga.GenerationStats) {
			for i, t := range pop {
				_, _ = store.Store(ctx, sessionID, generation, t.Metadata.Fitness, t, time.Unix(int64(generation*1000+i), 0))
			}
			if baseCheckpoint != nil {
				baseCheckpoint(generation, pop, stats)
			}
		}
	}
	result := ga.Run(population, cfg, cat, rand.New(rand.NewSource(seed)))
	m.ObserveSolve("evolve", time.Since(start), len(result.Population))
	return result
}

func cacheCandidates(ctx context.Context, store *cache.Store, sessionID string, generation int, ranked []rank.Ranked) {
	if store == nil {
		return
	}
	for i, r := range ranked {
		tt := r.Timetable
		tt.Metadata.Fitness = r.Score.TotalScore
		_, _ = store.Store(ctx, sessionID, generation, r.Score.TotalScore, tt, time.Unix(int64(generation*1000+i), 0))
	}
}

func totalAssignments(solutions []domain.Timetable) int {
	if len(solutions) == 0 {
		return 0
	}
	return len(solutions[0].Entries)
}

func diagnosticsFromViolations(violations []domain.Violation) Diagnostics {
	conflicts := make([]string, 0, len(violations))
	for _, v := range violations {
		conflicts = append(conflicts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return Diagnostics{Conflicts: conflicts, Suggestions: []string{"fix the enumerated data validation violations before retrying"}}
}

func diagnosticsFromSolveError(err error) Diagnostics {
	appErr := appErrors.FromError(err)
	return Diagnostics{
		Conflicts:   []string{appErr.Message},
		Suggestions: preassign.Suggestions(err),
	}
}
