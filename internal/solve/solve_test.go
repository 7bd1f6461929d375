package solve_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/ga"
	"github.com/classplan/timetable-solver/internal/scheduler"
	"github.com/classplan/timetable-solver/internal/solve"
)

func microFixture() solve.Request {
	classes := []domain.Class{
		{ID: "g6a", Name: "G6A", Grade: 6, HomeRoomID: "r1", StudentCount: 20},
		{ID: "g7a", Name: "G7A", Grade: 7, HomeRoomID: "r2", StudentCount: 20},
	}
	subjects := []domain.Subject{
		{ID: "math", Code: "MATH", Name: "Mathematics", PeriodsPerWeek: 4},
		{ID: "eng", Code: "ENG", Name: "English", PeriodsPerWeek: 4},
		{ID: "sci", Code: "SCI", Name: "Science", PeriodsPerWeek: 3, RequiresLab: true},
	}
	teachers := []domain.Teacher{
		{ID: "t1", DisplayName: "T1", QualifiedSubjectIDs: []string{"math"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 25},
		{ID: "t2", DisplayName: "T2", QualifiedSubjectIDs: []string{"eng"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 25},
		{ID: "t3", DisplayName: "T3", QualifiedSubjectIDs: []string{"sci"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 20},
	}
	rooms := []domain.Room{
		{ID: "r1", Name: "Home G6A", Type: domain.RoomClassroom, Capacity: 25},
		{ID: "r2", Name: "Home G7A", Type: domain.RoomClassroom, Capacity: 25},
		{ID: "lab1", Name: "LAB1", Type: domain.RoomLab, Capacity: 25},
	}

	var slots []domain.TimeSlot
	for day := domain.Monday; day <= domain.Wednesday; day++ {
		for period := 1; period <= 4; period++ {
			slots = append(slots, domain.TimeSlot{
				ID:           day.String() + string(rune('0'+period)),
				DayOfWeek:    day,
				PeriodNumber: period,
			})
		}
	}

	return solve.Request{
		SchoolID:       "school-1",
		AcademicYearID: "year-1",
		Classes:        classes,
		Subjects:       subjects,
		Teachers:       teachers,
		Rooms:          rooms,
		TimeSlots:      slots,
		Seed:           1,
		NumCandidates:  2,
		MinCoverage:    1.0,
	}
}

func TestSolveReturnsSuccessForFeasibleRequest(t *testing.T) {
	result, err := solve.Solve(context.Background(), microFixture(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, solve.StatusSuccess, result.Status)
	require.NotEmpty(t, result.Solutions)
	assert.GreaterOrEqual(t, result.Diagnostics.CoveragePercentage, 0.99)
}

func TestSolveReturnsInfeasibleForValidationViolations(t *testing.T) {
	req := microFixture()
	req.Classes[0].HomeRoomID = ""

	result, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, solve.StatusInfeasible, result.Status)
	assert.NotEmpty(t, result.Diagnostics.Conflicts)
}

func TestSolveReturnsInfeasibleForCapacityExhaustion(t *testing.T) {
	req := microFixture()
	req.Teachers[0].MaxPeriodsPerWeek = 5

	result, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, solve.StatusInfeasible, result.Status)
	assert.NotEmpty(t, result.Diagnostics.Suggestions)
}

func TestSolveIsDeterministicAcrossRuns(t *testing.T) {
	req := microFixture()
	first, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	second, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Solutions, second.Solutions)
}

// TestScenarioS4TeacherConsistencyUnderGA runs C4 to get 5 candidates,
// then C5 for 10 generations, and checks that every (class, subject)
// group in every returned timetable still binds to exactly one teacher.
func TestScenarioS4TeacherConsistencyUnderGA(t *testing.T) {
	req := microFixture()
	req.NumCandidates = 5

	result, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Solutions, 5)

	cat := domain.NewCatalog(req.Classes, req.Subjects, req.Teachers, req.Rooms)
	active := scheduler.ActiveSlots(req.TimeSlots)

	cfg := ga.DefaultConfig()
	cfg.Generations = 10
	cfg.ExpectedEntries = len(req.Classes) * len(active)

	gaResult := ga.Run(result.Solutions, cfg, cat, rand.New(rand.NewSource(1)))
	require.NotEmpty(t, gaResult.Population)

	for _, tt := range gaResult.Population {
		teachersByGroup := make(map[domain.ClassSubjectKey]map[string]struct{})
		for _, e := range tt.Entries {
			key := domain.ClassSubjectKey{ClassID: e.ClassID, SubjectID: e.SubjectID}
			if teachersByGroup[key] == nil {
				teachersByGroup[key] = make(map[string]struct{})
			}
			teachersByGroup[key][e.TeacherID] = struct{}{}
		}
		for key, teacherIDs := range teachersByGroup {
			assert.Len(t, teacherIDs, 1, "class %s subject %s should have exactly one teacher", key.ClassID, key.SubjectID)
		}
	}
}

// TestScenarioS5PartialSolutionAndGapReporting deliberately over-constrains
// a PE subject with no SPORTS room in the catalog and a home room too
// small for the relaxed fallback, so every PE slot gaps regardless of
// relaxation level, while the rest of the timetable still fills in.
func TestScenarioS5PartialSolutionAndGapReporting(t *testing.T) {
	classes := []domain.Class{
		{ID: "g1", Name: "G1", Grade: 6, HomeRoomID: "r1", StudentCount: 30},
	}
	subjects := []domain.Subject{
		{ID: "math", Code: "MATH", Name: "Mathematics", PeriodsPerWeek: 9},
		{ID: "pe", Code: "PE", Name: "Physical Education", PeriodsPerWeek: 3},
	}
	teachers := []domain.Teacher{
		{ID: "tmath", DisplayName: "TMath", QualifiedSubjectIDs: []string{"math"}, MaxPeriodsPerDay: 10, MaxPeriodsPerWeek: 20},
		{ID: "tpe", DisplayName: "TPE", QualifiedSubjectIDs: []string{"pe"}, MaxPeriodsPerDay: 10, MaxPeriodsPerWeek: 20},
	}
	rooms := []domain.Room{
		{ID: "r1", Name: "Home G1", Type: domain.RoomClassroom, Capacity: 25}, // < StudentCount, blocks the relaxed fallback
	}

	var slots []domain.TimeSlot
	for day := domain.Monday; day <= domain.Wednesday; day++ {
		for period := 1; period <= 4; period++ {
			slots = append(slots, domain.TimeSlot{
				ID:           day.String() + string(rune('0'+period)),
				DayOfWeek:    day,
				PeriodNumber: period,
			})
		}
	}

	req := solve.Request{
		SchoolID:              "school-1",
		AcademicYearID:        "year-1",
		Classes:               classes,
		Subjects:              subjects,
		Teachers:              teachers,
		Rooms:                 rooms,
		TimeSlots:             slots,
		Seed:                  1,
		NumCandidates:         1,
		AllowPartialSolutions: true,
		MinCoverage:           0.70,
	}

	result, err := solve.Solve(context.Background(), req, nil, nil)
	require.NoError(t, err)
	require.Equal(t, solve.StatusPartial, result.Status)
	assert.GreaterOrEqual(t, result.Diagnostics.CoveragePercentage, 0.70)
	require.NotEmpty(t, result.Diagnostics.Gaps)
	for _, gap := range result.Diagnostics.Gaps {
		assert.True(t, strings.Contains(gap, "no SPORTS"), "gap detail %q should mention the missing SPORTS room", gap)
	}
}
