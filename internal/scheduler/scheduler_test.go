package scheduler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/preassign"
	"github.com/classplan/timetable-solver/internal/scheduler"
)

// microFixture builds Scenario S1's micro-feasible catalog: 2 classes,
// 3 subjects, 3 teachers, 1 lab, 12 active slots.
func microFixture(t *testing.T) ([]domain.Class, []domain.Subject, []domain.Teacher, []domain.Room, []domain.TimeSlot) {
	t.Helper()

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
				ID:           dayPeriodID(day, period),
				DayOfWeek:    day,
				PeriodNumber: period,
			})
		}
	}
	return classes, subjects, teachers, rooms, slots
}

func dayPeriodID(day domain.DayOfWeek, period int) string {
	return day.String() + "-" + string(rune('0'+period))
}

func assignMicro(t *testing.T, classes []domain.Class, subjects []domain.Subject, teachers []domain.Teacher) domain.ClassSubjectTeacherMap {
	t.Helper()
	var demands []preassign.Demand
	for _, c := range classes {
		for _, s := range subjects {
			demands = append(demands, preassign.Demand{ClassID: c.ID, SubjectID: s.ID, PeriodsPerWeek: s.PeriodsPerWeek})
		}
	}
	result, err := preassign.Assign(demands, teachers)
	require.NoError(t, err)
	return result.Assignments
}

func TestScenarioS1MicroFeasible(t *testing.T) {
	classes, subjects, teachers, rooms, slots := microFixture(t)
	assignments := assignMicro(t, classes, subjects, teachers)

	sched, err := scheduler.New(classes, subjects, teachers, rooms, slots, nil, assignments)
	require.NoError(t, err)

	candidates, err := sched.GenerateCandidates(scheduler.Options{Seed: 1, NumCandidates: 1, MinCoverage: 1.0})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	tt := candidates[0]
	assert.InDelta(t, 1.0, tt.Metadata.Coverage, 0.001)

	sciCount := 0
	labSlots := make(map[string]struct{})
	for _, e := range tt.Entries {
		if e.SubjectID == "sci" {
			assert.Equal(t, "lab1", e.RoomID)
			_, dup := labSlots[e.TimeSlotID]
			assert.False(t, dup, "lab double-booked at slot %s", e.TimeSlotID)
			labSlots[e.TimeSlotID] = struct{}{}
			sciCount++
		}
	}
	assert.Equal(t, 6, sciCount, "T3 should teach exactly 6 SCI entries across both classes")

	cat := domain.NewCatalog(classes, subjects, teachers, rooms)
	assert.Empty(t, domain.CheckInvariants(tt, cat))
}

func TestScenarioS2InfeasibleTeacherCapacity(t *testing.T) {
	classes, subjects, teachers, rooms, slots := microFixture(t)
	teachers[0].MaxPeriodsPerWeek = 5 // T1 (MATH) now under-capacity for 2 classes * 4 periods

	var demands []preassign.Demand
	for _, c := range classes {
		for _, s := range subjects {
			demands = append(demands, preassign.Demand{ClassID: c.ID, SubjectID: s.ID, PeriodsPerWeek: s.PeriodsPerWeek})
		}
	}

	_, err := preassign.Assign(demands, teachers)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "t1") || strings.Contains(err.Error(), "capacity"))
	assert.NotEmpty(t, preassign.Suggestions(err))
}

func TestScenarioS3SharedRoomContention(t *testing.T) {
	classes := []domain.Class{
		{ID: "c1", HomeRoomID: "r1", StudentCount: 20},
		{ID: "c2", HomeRoomID: "r2", StudentCount: 20},
		{ID: "c3", HomeRoomID: "r3", StudentCount: 20},
	}
	subjects := []domain.Subject{{ID: "sci", Code: "SCI", PeriodsPerWeek: 2, RequiresLab: true}}
	teachers := []domain.Teacher{{ID: "t1", QualifiedSubjectIDs: []string{"sci"}, MaxPeriodsPerDay: 10, MaxPeriodsPerWeek: 10}}
	rooms := []domain.Room{
		{ID: "r1", Type: domain.RoomClassroom, Capacity: 25},
		{ID: "r2", Type: domain.RoomClassroom, Capacity: 25},
		{ID: "r3", Type: domain.RoomClassroom, Capacity: 25},
		{ID: "lab1", Type: domain.RoomLab, Capacity: 25},
	}
	var slots []domain.TimeSlot
	for day := domain.Monday; day <= domain.Friday; day++ {
		for period := 1; period <= 2; period++ {
			slots = append(slots, domain.TimeSlot{ID: dayPeriodID(day, period), DayOfWeek: day, PeriodNumber: period})
		}
	}

	assignments := assignMicro(t, classes, subjects, teachers)
	sched, err := scheduler.New(classes, subjects, teachers, rooms, slots, nil, assignments)
	require.NoError(t, err)

	candidates, err := sched.GenerateCandidates(scheduler.Options{Seed: 7, NumCandidates: 1, MinCoverage: 1.0})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	seen := make(map[string]struct{})
	for _, e := range candidates[0].Entries {
		key := e.RoomID + "|" + e.TimeSlotID
		_, dup := seen[key]
		assert.False(t, dup, "shared room double-booked")
		seen[key] = struct{}{}
	}
}

func TestScenarioS6Determinism(t *testing.T) {
	classes, subjects, teachers, rooms, slots := microFixture(t)
	assignments := assignMicro(t, classes, subjects, teachers)

	sched, err := scheduler.New(classes, subjects, teachers, rooms, slots, nil, assignments)
	require.NoError(t, err)

	first, err := sched.GenerateCandidates(scheduler.Options{Seed: 42, NumCandidates: 1, MinCoverage: 1.0})
	require.NoError(t, err)
	second, err := sched.GenerateCandidates(scheduler.Options{Seed: 42, NumCandidates: 1, MinCoverage: 1.0})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDistributePeriodsMatchesActiveSlots(t *testing.T) {
	classes := []domain.Class{{ID: "c1", Grade: 6, HomeRoomID: "r1"}}
	subjects := []domain.Subject{
		{ID: "math", PeriodsPerWeek: 4},
		{ID: "eng", PeriodsPerWeek: 4},
		{ID: "sci", PeriodsPerWeek: 3},
	}

	targets := scheduler.DistributePeriods(classes, subjects, nil, 10)

	total := 0
	for _, target := range targets {
		total += target.PeriodsPerWeek
	}
	assert.Equal(t, 10, total)
}
