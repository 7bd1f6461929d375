package scheduler

import (
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
)

// DistributePeriods computes, for every class, a target period count
// per subject (SPEC_FULL §4.4 "Period distribution"). It starts from
// any GradeSubjectRequirement override, falls back to
// Subject.PeriodsPerWeek, then grows or shrinks the per-class total to
// exactly match activeSlots.
func DistributePeriods(classes []domain.Class, subjects []domain.Subject, requirements []domain.GradeSubjectRequirement, activeSlots int) map[domain.ClassSubjectKey]domain.PeriodTarget {
	bySubjectID := make(map[string]domain.Subject, len(subjects))
	subjectOrder := make([]string, 0, len(subjects))
	for _, s := range subjects {
		bySubjectID[s.ID] = s
		subjectOrder = append(subjectOrder, s.ID)
	}
	sort.Strings(subjectOrder)

	overridesByGrade := make(map[int]map[string]domain.GradeSubjectRequirement)
	for _, r := range requirements {
		if overridesByGrade[r.Grade] == nil {
			overridesByGrade[r.Grade] = make(map[string]domain.GradeSubjectRequirement)
		}
		overridesByGrade[r.Grade][r.SubjectID] = r
	}

	targets := make(map[domain.ClassSubjectKey]domain.PeriodTarget, len(classes)*len(subjects))

	for _, c := range classes {
		classTargets := make(map[string]domain.PeriodTarget, len(subjects))
		for _, subjectID := range subjectOrder {
			subject := bySubjectID[subjectID]
			periods := subject.PeriodsPerWeek
			constraint := domain.ConstraintType("")
			if override, ok := overridesByGrade[c.Grade][subjectID]; ok {
				periods = override.PeriodsPerWeek
				constraint = override.ConstraintType
			}
			classTargets[subjectID] = domain.PeriodTarget{
				ClassID:        c.ID,
				SubjectID:      subjectID,
				PeriodsPerWeek: periods,
				ConstraintType: constraint,
			}
		}

		balanceToActiveSlots(classTargets, subjectOrder, activeSlots)

		for subjectID, t := range classTargets {
			targets[domain.ClassSubjectKey{ClassID: c.ID, SubjectID: subjectID}] = t
		}
	}

	return targets
}

// balanceToActiveSlots grows or shrinks classTargets in place so the
// sum of periods exactly equals activeSlots, honoring exact/min/max
// pins per SPEC_FULL §4.4.
func balanceToActiveSlots(classTargets map[string]domain.PeriodTarget, subjectOrder []string, activeSlots int) {
	total := func() int {
		sum := 0
		for _, t := range classTargets {
			sum += t.PeriodsPerWeek
		}
		return sum
	}

	for total() < activeSlots {
		grown := false
		for _, subjectID := range subjectOrder {
			t := classTargets[subjectID]
			if t.ConstraintType == domain.ConstraintMax || t.ConstraintType == domain.ConstraintExact {
				continue
			}
			t.PeriodsPerWeek++
			classTargets[subjectID] = t
			grown = true
			if total() >= activeSlots {
				break
			}
		}
		if !grown {
			break // every subject pinned; documented shortfall, reported by caller as a hard error
		}
	}

	for total() > activeSlots {
		// Shrink from subjects without a min floor, largest first.
		candidates := make([]string, 0, len(subjectOrder))
		for _, subjectID := range subjectOrder {
			t := classTargets[subjectID]
			if t.ConstraintType != domain.ConstraintMin && t.ConstraintType != domain.ConstraintExact && t.PeriodsPerWeek > 0 {
				candidates = append(candidates, subjectID)
			}
		}
		if len(candidates) == 0 {
			break // every remaining subject pinned beyond capacity; caller reports shortfall
		}
		sort.Slice(candidates, func(i, j int) bool {
			ti, tj := classTargets[candidates[i]], classTargets[candidates[j]]
			if ti.PeriodsPerWeek != tj.PeriodsPerWeek {
				return ti.PeriodsPerWeek > tj.PeriodsPerWeek
			}
			return candidates[i] < candidates[j]
		})
		t := classTargets[candidates[0]]
		t.PeriodsPerWeek--
		classTargets[candidates[0]] = t
	}
}

// ActiveSlots filters TimeSlots down to the scheduling-eligible subset
// (is_break = false), per the GLOSSARY's "active slot" definition.
func ActiveSlots(slots []domain.TimeSlot) []domain.TimeSlot {
	active := make([]domain.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsBreak {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].DayOfWeek != active[j].DayOfWeek {
			return active[i].DayOfWeek < active[j].DayOfWeek
		}
		return active[i].PeriodNumber < active[j].PeriodNumber
	})
	return active
}
