package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/evaluator"
)

func entry(class string, day domain.DayOfWeek, period int) domain.TimetableEntry {
	return domain.TimetableEntry{
		ClassID:      class,
		SubjectID:    "math",
		TeacherID:    "t1",
		RoomID:       "r1",
		TimeSlotID:   "slot",
		DayOfWeek:    day,
		PeriodNumber: period,
		TeacherMeta:  domain.TeacherMetadata{MaxConsecutivePeriods: 3},
	}
}

func TestEvaluatePurity(t *testing.T) {
	tt := domain.Timetable{Entries: []domain.TimetableEntry{
		entry("c1", domain.Monday, 1),
		entry("c1", domain.Monday, 2),
	}}
	weights := evaluator.DefaultWeights()

	first := evaluator.Evaluate(tt, weights, 4)
	second := evaluator.Evaluate(tt, weights, 4)

	assert.Equal(t, first, second)
	assert.Len(t, tt.Entries, 2, "Evaluate must not mutate its input")
}

func TestEvaluateCoverageMonotonicity(t *testing.T) {
	weights := evaluator.DefaultWeights()

	sparse := domain.Timetable{Entries: []domain.TimetableEntry{entry("c1", domain.Monday, 1)}}
	fuller := domain.Timetable{Entries: []domain.TimetableEntry{
		entry("c1", domain.Monday, 1),
		entry("c1", domain.Monday, 2),
	}}

	sparseResult := evaluator.Evaluate(sparse, weights, 4)
	fullerResult := evaluator.Evaluate(fuller, weights, 4)

	assert.Greater(t, fullerResult.TotalScore, sparseResult.TotalScore)
}

func TestGapPenaltyDetectsIdlePeriod(t *testing.T) {
	withGap := domain.Timetable{Entries: []domain.TimetableEntry{
		entry("c1", domain.Monday, 1),
		entry("c1", domain.Monday, 3),
	}}
	withoutGap := domain.Timetable{Entries: []domain.TimetableEntry{
		entry("c1", domain.Monday, 1),
		entry("c1", domain.Monday, 2),
	}}

	weights := evaluator.Weights{GapMinimization: 1}

	gapResult := evaluator.Evaluate(withGap, weights, 2)
	noGapResult := evaluator.Evaluate(withoutGap, weights, 2)

	assert.Less(t, gapResult.TotalScore, noGapResult.TotalScore)
}

func TestBatchEvaluateSummary(t *testing.T) {
	weights := evaluator.DefaultWeights()
	timetables := []domain.Timetable{
		{Entries: []domain.TimetableEntry{entry("c1", domain.Monday, 1)}},
		{Entries: []domain.TimetableEntry{entry("c1", domain.Monday, 1), entry("c1", domain.Monday, 2)}},
	}

	batch := evaluator.BatchEvaluate(timetables, weights, 2)

	assert.Len(t, batch.Results, 2)
	assert.GreaterOrEqual(t, batch.Best, batch.Average)
	assert.LessOrEqual(t, batch.Worst, batch.Average)
}
