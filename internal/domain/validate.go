package domain

import "fmt"

// Violation is a structured data-shape problem. Validators return a
// slice of these instead of an error — per SPEC_FULL.md "no exceptions
// for data errors," bad input is a reportable condition, not a panic.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidateHomeRooms checks that every class has a non-empty HomeRoomID
// and that no two classes share one.
func ValidateHomeRooms(classes []Class) []Violation {
	var violations []Violation
	seen := make(map[string]string, len(classes))
	for _, c := range classes {
		if c.HomeRoomID == "" {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("class[%s].home_room_id", c.ID),
				Message: "missing home room",
			})
			continue
		}
		if owner, ok := seen[c.HomeRoomID]; ok {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("class[%s].home_room_id", c.ID),
				Message: fmt.Sprintf("home room %s already assigned to class %s", c.HomeRoomID, owner),
			})
			continue
		}
		seen[c.HomeRoomID] = c.ID
	}
	return violations
}

// ExtractSharedRooms returns the subset of rooms not referenced as any
// class's home room — the shared-amenities pool.
func ExtractSharedRooms(rooms []Room, classes []Class) []Room {
	homeRooms := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		if c.HomeRoomID != "" {
			homeRooms[c.HomeRoomID] = struct{}{}
		}
	}
	shared := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if _, isHome := homeRooms[r.ID]; !isHome {
			shared = append(shared, r)
		}
	}
	return shared
}

// PeriodTarget is the computed, post-distribution period count for one
// (class, subject) pair, carrying the constraint that produced it so
// downstream components can tell a pinned exact count from a
// surplus-distributed one.
type PeriodTarget struct {
	ClassID        string
	SubjectID      string
	PeriodsPerWeek int
	ConstraintType ConstraintType
}

// ValidatePeriodBudget checks that, for every class, the sum of
// required periods across subjects fits within the active slot count.
// It does not perform the distribution itself (that is §4.4's
// responsibility in internal/scheduler) — it is the C1-level sanity
// check run before a solve begins.
func ValidatePeriodBudget(targets []PeriodTarget, activeSlots int) []Violation {
	var violations []Violation
	totals := make(map[string]int)
	for _, t := range targets {
		totals[t.ClassID] += t.PeriodsPerWeek
	}
	for classID, total := range totals {
		if total > activeSlots {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("class[%s].period_budget", classID),
				Message: fmt.Sprintf("required periods %d exceed %d active slots", total, activeSlots),
			})
		}
	}
	return violations
}

// ValidateEntities runs the full battery of pre-solve, data-shape
// checks (missing/duplicate home rooms, non-positive capacities and
// counts, unknown id references) described in SPEC_FULL §7 "Data
// validation (pre-solve)".
func ValidateEntities(classes []Class, subjects []Subject, teachers []Teacher, rooms []Room, slots []TimeSlot) []Violation {
	violations := ValidateHomeRooms(classes)

	roomByID := make(map[string]Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
		if r.Capacity <= 0 {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("room[%s].capacity", r.ID),
				Message: "capacity must be positive",
			})
		}
	}

	subjectByID := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		subjectByID[s.ID] = s
		if s.PeriodsPerWeek < 1 {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("subject[%s].periods_per_week", s.ID),
				Message: "must be at least 1",
			})
		}
	}

	teacherByID := make(map[string]Teacher, len(teachers))
	for _, t := range teachers {
		teacherByID[t.ID] = t
		for _, subjectID := range t.QualifiedSubjectIDs {
			if _, ok := subjectByID[subjectID]; !ok {
				violations = append(violations, Violation{
					Field:   fmt.Sprintf("teacher[%s].qualified_subjects", t.ID),
					Message: fmt.Sprintf("references unknown subject %s", subjectID),
				})
			}
		}
	}

	for _, c := range classes {
		if c.StudentCount <= 0 {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("class[%s].student_count", c.ID),
				Message: "must be positive",
			})
		}
		if c.HomeRoomID != "" {
			if _, ok := roomByID[c.HomeRoomID]; !ok {
				violations = append(violations, Violation{
					Field:   fmt.Sprintf("class[%s].home_room_id", c.ID),
					Message: fmt.Sprintf("references unknown room %s", c.HomeRoomID),
				})
			}
		}
	}

	activeSlots := 0
	for _, s := range slots {
		if !s.IsBreak {
			activeSlots++
		}
	}
	if activeSlots == 0 {
		violations = append(violations, Violation{
			Field:   "time_slots",
			Message: "no active (non-break) time slots supplied",
		})
	}

	return violations
}
