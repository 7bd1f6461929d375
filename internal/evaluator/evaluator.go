// Package evaluator implements C2: a pure scoring function over a
// Timetable, used both as the GA's fitness function and as a
// standalone diagnostics tool. Evaluate never mutates its input.
package evaluator

import (
	"math"
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
)

// PenaltyKind names one dimension of the weighted penalty breakdown.
type PenaltyKind string

const (
	PenaltyWorkloadBalance   PenaltyKind = "workload_balance"
	PenaltyGapMinimization   PenaltyKind = "gap_minimization"
	PenaltyTimePreferences   PenaltyKind = "time_preferences"
	PenaltyConsecutivePeriods PenaltyKind = "consecutive_periods"
	PenaltyCoverage          PenaltyKind = "coverage"
)

// Weights holds the recognized weight keys from SPEC_FULL §4.2.
// MorningPeriodCutoff is an integer threshold, not a multiplier — it is
// carried alongside the weights because it is part of the same
// evaluator configuration surface.
type Weights struct {
	WorkloadBalance     float64 `json:"workloadBalance"`
	GapMinimization     float64 `json:"gapMinimization"`
	TimePreferences     float64 `json:"timePreferences"`
	ConsecutivePeriods  float64 `json:"consecutivePeriods"`
	Coverage            float64 `json:"coverage"`
	MorningPeriodCutoff int     `json:"morningPeriodCutoff"`
}

// DefaultWeights returns the weights used when a caller supplies none;
// these are starting points, not invariants — callers may override any
// key.
func DefaultWeights() Weights {
	return Weights{
		WorkloadBalance:     1.0,
		GapMinimization:     2.0,
		TimePreferences:     1.0,
		ConsecutivePeriods:  1.5,
		Coverage:            5.0,
		MorningPeriodCutoff: 4,
	}
}

// PenaltyLine is one row of the breakdown: the raw (unweighted) penalty
// magnitude and its contribution after applying the configured weight.
type PenaltyLine struct {
	Kind     PenaltyKind `json:"kind"`
	Raw      float64     `json:"raw"`
	Weighted float64     `json:"weighted"`
}

// Result is the outcome of scoring one Timetable.
type Result struct {
	TotalScore         float64       `json:"totalScore"`
	Breakdown          []PenaltyLine `json:"breakdown"`
	CoveragePercentage float64       `json:"coveragePercentage"`
}

// BatchResult aggregates per-timetable results with summary statistics.
type BatchResult struct {
	Results []Result `json:"results"`
	Best    float64  `json:"best"`
	Worst   float64  `json:"worst"`
	Average float64  `json:"average"`
}

// dayGroup collects the period numbers taught in one (class or
// teacher, day) pair.
type dayGroup struct {
	periods []int
}

// Evaluate scores a single timetable. expectedEntries is
// |classes| × |active_slots| (full coverage), computed by the caller
// once per catalog so Evaluate itself stays a pure function of its
// arguments.
func Evaluate(t domain.Timetable, weights Weights, expectedEntries int) Result {
	breakdown := []PenaltyLine{
		rawLine(PenaltyCoverage, coveragePenalty(t, expectedEntries), weights.Coverage),
		rawLine(PenaltyGapMinimization, gapPenalty(t), weights.GapMinimization),
		rawLine(PenaltyTimePreferences, timePreferencePenalty(t, weights.MorningPeriodCutoff), weights.TimePreferences),
		rawLine(PenaltyConsecutivePeriods, consecutivePenalty(t), weights.ConsecutivePeriods),
		rawLine(PenaltyWorkloadBalance, workloadBalancePenalty(t), weights.WorkloadBalance),
	}

	total := 100.0
	for _, line := range breakdown {
		total -= line.Weighted
	}
	if total < 0 {
		total = 0
	}

	coverage := 0.0
	if expectedEntries > 0 {
		coverage = float64(len(t.Entries)) / float64(expectedEntries)
	}

	return Result{TotalScore: total, Breakdown: breakdown, CoveragePercentage: coverage}
}

func rawLine(kind PenaltyKind, raw, weight float64) PenaltyLine {
	return PenaltyLine{Kind: kind, Raw: raw, Weighted: raw * weight}
}

// BatchEvaluate scores many timetables and reports best/worst/average.
func BatchEvaluate(timetables []domain.Timetable, weights Weights, expectedEntries int) BatchResult {
	results := make([]Result, len(timetables))
	if len(timetables) == 0 {
		return BatchResult{Results: results}
	}

	sum := 0.0
	best := math.Inf(-1)
	worst := math.Inf(1)
	for i, t := range timetables {
		r := Evaluate(t, weights, expectedEntries)
		results[i] = r
		sum += r.TotalScore
		if r.TotalScore > best {
			best = r.TotalScore
		}
		if r.TotalScore < worst {
			worst = r.TotalScore
		}
	}

	return BatchResult{
		Results: results,
		Best:    best,
		Worst:   worst,
		Average: sum / float64(len(timetables)),
	}
}

// coveragePenalty counts missing entries relative to full coverage.
func coveragePenalty(t domain.Timetable, expectedEntries int) float64 {
	if expectedEntries <= 0 {
		return 0
	}
	missing := expectedEntries - len(t.Entries)
	if missing < 0 {
		missing = 0
	}
	return float64(missing)
}

// groupByClassDay and groupByTeacherDay collect the period numbers
// taught in each (entity, day) pair, the shared building block for gap
// and consecutive-run detection.
func groupByClassDay(t domain.Timetable) map[string]*dayGroup {
	groups := make(map[string]*dayGroup)
	for _, e := range t.Entries {
		key := e.ClassID + "|" + e.DayOfWeek.String()
		g, ok := groups[key]
		if !ok {
			g = &dayGroup{}
			groups[key] = g
		}
		g.periods = append(g.periods, e.PeriodNumber)
	}
	return groups
}

func groupByTeacherDay(t domain.Timetable) map[string]*dayGroup {
	groups := make(map[string]*dayGroup)
	for _, e := range t.Entries {
		key := e.TeacherID + "|" + e.DayOfWeek.String()
		g, ok := groups[key]
		if !ok {
			g = &dayGroup{}
			groups[key] = g
		}
		g.periods = append(g.periods, e.PeriodNumber)
	}
	return groups
}

// gapPenalty counts idle periods between the min and max taught period
// of a day, summed across every class-day and teacher-day group.
func gapPenalty(t domain.Timetable) float64 {
	total := 0.0
	for _, g := range groupByClassDay(t) {
		total += float64(countGaps(g.periods))
	}
	for _, g := range groupByTeacherDay(t) {
		total += float64(countGaps(g.periods))
	}
	return total
}

func countGaps(periods []int) int {
	if len(periods) < 2 {
		return 0
	}
	sorted := append([]int(nil), periods...)
	sort.Ints(sorted)
	taught := make(map[int]struct{}, len(sorted))
	for _, p := range sorted {
		taught[p] = struct{}{}
	}
	gaps := 0
	for p := sorted[0]; p <= sorted[len(sorted)-1]; p++ {
		if _, ok := taught[p]; !ok {
			gaps++
		}
	}
	return gaps
}

// consecutivePenalty charges for every period a teacher exceeds their
// max_consecutive_periods on any day.
func consecutivePenalty(t domain.Timetable) float64 {
	total := 0.0
	byTeacherDay := make(map[string][]domain.TimetableEntry)
	for _, e := range t.Entries {
		key := e.TeacherID + "|" + e.DayOfWeek.String()
		byTeacherDay[key] = append(byTeacherDay[key], e)
	}
	for _, entries := range byTeacherDay {
		if len(entries) == 0 {
			continue
		}
		maxConsecutive := entries[0].TeacherMeta.MaxConsecutivePeriods
		if maxConsecutive <= 0 {
			continue
		}
		periods := make([]int, len(entries))
		for i, e := range entries {
			periods[i] = e.PeriodNumber
		}
		sort.Ints(periods)
		run := 1
		for i := 1; i < len(periods); i++ {
			if periods[i] == periods[i-1]+1 {
				run++
			} else {
				total += float64(maxInt(0, run-maxConsecutive))
				run = 1
			}
		}
		total += float64(maxInt(0, run-maxConsecutive))
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// timePreferencePenalty scans entries and checks each one's frozen
// subject metadata against its period number.
func timePreferencePenalty(t domain.Timetable, morningCutoff int) float64 {
	total := 0.0
	for _, e := range t.Entries {
		meta := e.SubjectMeta
		if meta.PreferMorning && morningCutoff > 0 && e.PeriodNumber > morningCutoff {
			total++
		}
		if len(meta.AvoidPeriods) > 0 && contains(meta.AvoidPeriods, e.PeriodNumber) {
			total++
		}
		if len(meta.PreferredPeriods) > 0 && !contains(meta.PreferredPeriods, e.PeriodNumber) {
			total++
		}
	}
	return total
}

func contains(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// workloadBalancePenalty computes the standard deviation of weekly
// totals per teacher; the penalty grows with the stddev.
func workloadBalancePenalty(t domain.Timetable) float64 {
	totals := make(map[string]int)
	for _, e := range t.Entries {
		totals[e.TeacherID]++
	}
	if len(totals) < 2 {
		return 0
	}

	sum := 0.0
	for _, v := range totals {
		sum += float64(v)
	}
	mean := sum / float64(len(totals))

	variance := 0.0
	for _, v := range totals {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(totals))

	return math.Sqrt(variance)
}
