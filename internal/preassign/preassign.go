// Package preassign implements C3: the greedy teacher pre-assigner.
// It produces a ClassSubjectTeacherMap binding exactly one teacher to
// every (class, subject) pair for the life of a solve, load-balanced
// across qualified teachers and checked for capacity before the CSP
// scheduler ever runs.
package preassign

import (
	"errors"
	"fmt"
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
	appErrors "github.com/classplan/timetable-solver/pkg/errors"
)

// Demand is one (class, subject) pair and its required period count,
// as computed by the scheduler's period-distribution step (§4.4) and
// handed to the pre-assigner before scheduling begins.
type Demand struct {
	ClassID        string
	SubjectID      string
	PeriodsPerWeek int
}

// TeacherLoad reports a teacher's running assigned load after the
// pre-assigner has finished, used for diagnostics and suggestions.
type TeacherLoad struct {
	TeacherID string
	Load      int
	Capacity  int
}

// Result is the pre-assigner's output: the binding map plus a
// per-teacher load summary. The map is read-only thereafter.
type Result struct {
	Assignments domain.ClassSubjectTeacherMap
	Loads       []TeacherLoad
}

// Assign runs the greedy pre-assignment algorithm from SPEC_FULL §4.3.
// Pairs are processed hardest-first (descending period weight, ties
// broken by subject id) so the tightest-capacity pairs get first pick
// of qualified teachers.
func Assign(demands []Demand, teachers []domain.Teacher) (Result, error) {
	sorted := append([]Demand(nil), demands...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PeriodsPerWeek != sorted[j].PeriodsPerWeek {
			return sorted[i].PeriodsPerWeek > sorted[j].PeriodsPerWeek
		}
		return sorted[i].SubjectID < sorted[j].SubjectID
	})

	byID := make(map[string]domain.Teacher, len(teachers))
	load := make(map[string]int, len(teachers))
	for _, t := range teachers {
		byID[t.ID] = t
		load[t.ID] = 0
	}

	qualifiedBySubject := make(map[string][]string)
	for _, t := range teachers {
		for _, subjectID := range t.QualifiedSubjectIDs {
			qualifiedBySubject[subjectID] = append(qualifiedBySubject[subjectID], t.ID)
		}
	}
	for subjectID := range qualifiedBySubject {
		sort.Strings(qualifiedBySubject[subjectID])
	}

	assignments := make(domain.ClassSubjectTeacherMap, len(sorted))

	for _, d := range sorted {
		candidates := qualifiedBySubject[d.SubjectID]
		if len(candidates) == 0 {
			return Result{}, appErrors.Wrap(
				fmt.Errorf("no qualified teacher for class %s, subject %s", d.ClassID, d.SubjectID),
				appErrors.ErrNoQualifiedTeacher.Code,
				appErrors.ErrNoQualifiedTeacher.Status,
				fmt.Sprintf("no qualified teacher for %s — %s", d.ClassID, d.SubjectID),
			)
		}

		bestTeacherID := ""
		bestProjected := -1
		for _, teacherID := range candidates {
			projected := load[teacherID] + d.PeriodsPerWeek
			capacity := byID[teacherID].MaxPeriodsPerWeek
			if capacity > 0 && projected > capacity {
				continue
			}
			if bestTeacherID == "" || projected < bestProjected || (projected == bestProjected && teacherID < bestTeacherID) {
				bestTeacherID = teacherID
				bestProjected = projected
			}
		}

		if bestTeacherID == "" {
			return Result{}, capacityExhausted(d, candidates, load, byID)
		}

		assignments[domain.ClassSubjectKey{ClassID: d.ClassID, SubjectID: d.SubjectID}] = bestTeacherID
		load[bestTeacherID] += d.PeriodsPerWeek
	}

	loads := make([]TeacherLoad, 0, len(byID))
	for id, t := range byID {
		loads = append(loads, TeacherLoad{TeacherID: id, Load: load[id], Capacity: t.MaxPeriodsPerWeek})
	}
	sort.Slice(loads, func(i, j int) bool { return loads[i].TeacherID < loads[j].TeacherID })

	return Result{Assignments: assignments, Loads: loads}, nil
}

func capacityExhausted(d Demand, candidates []string, load map[string]int, byID map[string]domain.Teacher) error {
	detail := fmt.Sprintf("all qualified teachers at capacity for %s — %s:", d.ClassID, d.SubjectID)
	for _, teacherID := range candidates {
		detail += fmt.Sprintf(" %s(load=%d,cap=%d)", teacherID, load[teacherID], byID[teacherID].MaxPeriodsPerWeek)
	}
	return appErrors.Wrap(
		errors.New(detail),
		appErrors.ErrCapacityExhausted.Code,
		appErrors.ErrCapacityExhausted.Status,
		detail,
	)
}

// Suggestions derives the fixed-vocabulary remediation hints required
// by SPEC_FULL §7 ("actionable suggestions from a fixed vocabulary").
func Suggestions(err error) []string {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrNoQualifiedTeacher.Code:
		return []string{"add teachers qualified for the subject"}
	case appErrors.ErrCapacityExhausted.Code:
		return []string{
			"raise max_periods_per_week for the qualified teachers",
			"add another teacher qualified for the subject",
		}
	default:
		return nil
	}
}
