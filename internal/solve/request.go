// Package solve orchestrates C3 through C6 into the single entry
// operation external callers use: solve(request) -> SolveResult. It
// owns no long-lived state — one Request, one Result, composed fresh
// every call, matching §5's no-shared-mutable-state rule.
package solve

import (
	"time"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/evaluator"
)

// Status mirrors SPEC_FULL §6's three-way SolveResult.status.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusPartial    Status = "partial"
	StatusInfeasible Status = "infeasible"
)

// Request bundles everything solve needs: the catalog, constraints and
// tuning knobs from §6.
type Request struct {
	SchoolID       string
	AcademicYearID string

	Classes      []domain.Class
	Subjects     []domain.Subject
	Teachers     []domain.Teacher
	Rooms        []domain.Room
	TimeSlots    []domain.TimeSlot
	Requirements []domain.GradeSubjectRequirement

	Seed                      int64
	NumCandidates             int
	TimeoutSeconds            float64
	Weights                   evaluator.Weights
	EnforceTeacherConsistency bool
	AllowPartialSolutions     bool
	MinCoverage               float64

	// SessionID identifies this solve for cache indexing. A caller
	// that leaves it blank gets a fresh uuid (see Solve).
	SessionID string
}

// Diagnostics carries the structured failure/success detail §6 and §7
// require alongside every SolveResult.
type Diagnostics struct {
	TotalAssignments   int      `json:"totalAssignments"`
	CoveragePercentage float64  `json:"coveragePercentage"`
	BestFitness        float64  `json:"bestFitness"`
	Gaps               []string `json:"gaps,omitempty"`
	Conflicts          []string `json:"conflicts,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// Result is SolveResult from §6.
type Result struct {
	SchoolID              string            `json:"schoolId"`
	AcademicYearID        string            `json:"academicYearId"`
	SessionID             string            `json:"sessionId"`
	Status                Status            `json:"status"`
	Solutions             []domain.Timetable `json:"solutions"`
	GenerationTimeSeconds float64           `json:"generationTimeSeconds"`
	Diagnostics           Diagnostics       `json:"diagnostics"`
}

func defaultedRequest(req Request) Request {
	if req.NumCandidates < 1 {
		req.NumCandidates = 1
	}
	if req.MinCoverage <= 0 {
		req.MinCoverage = 0.70
	}
	if (req.Weights == evaluator.Weights{}) {
		req.Weights = evaluator.DefaultWeights()
	}
	return req
}

func elapsedSeconds(start time.Time, now time.Time) float64 {
	return now.Sub(start).Seconds()
}
