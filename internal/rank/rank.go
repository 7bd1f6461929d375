// Package rank implements the ranking half of C6: sorting candidate
// timetables by score with a stable tie-break, truncation, quality
// filtering and pairwise comparison.
package rank

import (
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/evaluator"
)

// Ranked pairs a Timetable with its evaluation result.
type Ranked struct {
	Timetable domain.Timetable  `json:"timetable"`
	Score     evaluator.Result  `json:"score"`
}

// Rank scores every candidate and returns them sorted by score
// descending, with ties broken by timetable id for a stable ordering.
func Rank(candidates []domain.Timetable, weights evaluator.Weights, expectedEntries int) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Timetable: c, Score: evaluator.Evaluate(c, weights, expectedEntries)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.TotalScore != ranked[j].Score.TotalScore {
			return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
		}
		return ranked[i].Timetable.ID < ranked[j].Timetable.ID
	})
	return ranked
}

// TopN truncates a ranked list to its best n entries.
func TopN(ranked []Ranked, n int) []Ranked {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// FilterByQuality drops every entry scoring below threshold.
func FilterByQuality(ranked []Ranked, threshold float64) []Ranked {
	out := make([]Ranked, 0, len(ranked))
	for _, r := range ranked {
		if r.Score.TotalScore >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// Comparison reports per-penalty-dimension differences between two
// ranked timetables plus a verdict summary.
type Comparison struct {
	Deltas  map[evaluator.PenaltyKind]float64 `json:"deltas"` // a - b, per dimension
	Verdict string                            `json:"verdict"`
}

// Compare produces a per-dimension diff of a against b and a one-line
// verdict naming the better candidate.
func Compare(a, b Ranked) Comparison {
	deltas := make(map[evaluator.PenaltyKind]float64, len(a.Score.Breakdown))
	bByKind := make(map[evaluator.PenaltyKind]float64, len(b.Score.Breakdown))
	for _, line := range b.Score.Breakdown {
		bByKind[line.Kind] = line.Weighted
	}
	for _, line := range a.Score.Breakdown {
		deltas[line.Kind] = line.Weighted - bByKind[line.Kind]
	}

	verdict := "equivalent"
	switch {
	case a.Score.TotalScore > b.Score.TotalScore:
		verdict = "a is better"
	case b.Score.TotalScore > a.Score.TotalScore:
		verdict = "b is better"
	}

	return Comparison{Deltas: deltas, Verdict: verdict}
}
