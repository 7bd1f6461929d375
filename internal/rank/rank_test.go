package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/evaluator"
	"github.com/classplan/timetable-solver/internal/rank"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	weights := evaluator.DefaultWeights()
	candidates := []domain.Timetable{
		{ID: "sparse", Entries: []domain.TimetableEntry{{ClassID: "c1", DayOfWeek: domain.Monday, PeriodNumber: 1}}},
		{ID: "fuller", Entries: []domain.TimetableEntry{
			{ClassID: "c1", DayOfWeek: domain.Monday, PeriodNumber: 1},
			{ClassID: "c1", DayOfWeek: domain.Monday, PeriodNumber: 2},
		}},
	}

	ranked := rank.Rank(candidates, weights, 2)

	assert.Equal(t, "fuller", ranked[0].Timetable.ID)
	assert.GreaterOrEqual(t, ranked[0].Score.TotalScore, ranked[1].Score.TotalScore)
}

func TestTopNTruncates(t *testing.T) {
	ranked := []rank.Ranked{{}, {}, {}}
	assert.Len(t, rank.TopN(ranked, 2), 2)
	assert.Len(t, rank.TopN(ranked, 10), 3)
}

func TestFilterByQualityDropsBelowThreshold(t *testing.T) {
	ranked := []rank.Ranked{
		{Score: evaluator.Result{TotalScore: 90}},
		{Score: evaluator.Result{TotalScore: 40}},
	}
	filtered := rank.FilterByQuality(ranked, 50)
	assert.Len(t, filtered, 1)
	assert.Equal(t, 90.0, filtered[0].Score.TotalScore)
}

func TestCompareVerdict(t *testing.T) {
	a := rank.Ranked{Score: evaluator.Result{TotalScore: 80}}
	b := rank.Ranked{Score: evaluator.Result{TotalScore: 60}}
	cmp := rank.Compare(a, b)
	assert.Equal(t, "a is better", cmp.Verdict)
}
