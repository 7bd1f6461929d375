package domain

import "fmt"

// Catalog bundles the entity lists a Timetable is checked against.
// Components that need invariant checking (the GA's operators and
// crossover check, and tests) all share this shape instead of
// threading four slices around individually.
type Catalog struct {
	Classes  map[string]Class
	Subjects map[string]Subject
	Teachers map[string]Teacher
	Rooms    map[string]Room
}

// NewCatalog indexes entity lists by id.
func NewCatalog(classes []Class, subjects []Subject, teachers []Teacher, rooms []Room) Catalog {
	cat := Catalog{
		Classes:  make(map[string]Class, len(classes)),
		Subjects: make(map[string]Subject, len(subjects)),
		Teachers: make(map[string]Teacher, len(teachers)),
		Rooms:    make(map[string]Room, len(rooms)),
	}
	for _, c := range classes {
		cat.Classes[c.ID] = c
	}
	for _, s := range subjects {
		cat.Subjects[s.ID] = s
	}
	for _, t := range teachers {
		cat.Teachers[t.ID] = t
	}
	for _, r := range rooms {
		cat.Rooms[r.ID] = r
	}
	return cat
}

// HomeRoomSet returns the set of room ids that are some class's home room.
func (cat Catalog) HomeRoomSet() map[string]struct{} {
	out := make(map[string]struct{}, len(cat.Classes))
	for _, c := range cat.Classes {
		if c.HomeRoomID != "" {
			out[c.HomeRoomID] = struct{}{}
		}
	}
	return out
}

// CheckInvariants validates a Timetable against §3 invariants 1–8:
// class, teacher and shared-room double-booking, teacher qualification,
// teacher consistency, room suitability, room capacity and per-teacher
// day/week caps. Period-count discipline (invariant 9) is not checked;
// the Catalog carries no period targets. A special-room subject placed
// in its own class's home room passes the suitability check, and checks
// that need a teacher, subject or room missing from the Catalog are
// skipped for that entry. It is used by the GA's crossover check and
// by tests.
func CheckInvariants(t Timetable, cat Catalog) []Violation {
	var violations []Violation
	homeRooms := cat.HomeRoomSet()

	classSlot := make(map[string]struct{})
	teacherSlot := make(map[string]struct{})
	sharedRoomSlot := make(map[string]struct{})
	classSubjectTeacher := make(map[ClassSubjectKey]string)
	teacherDayCount := make(map[string]map[DayOfWeek]int)
	teacherWeekCount := make(map[string]int)
	classSubjectCount := make(map[ClassSubjectKey]int)

	for i, e := range t.Entries {
		// 1. No class double-book.
		ckey := e.ClassID + "|" + e.TimeSlotID
		if _, dup := classSlot[ckey]; dup {
			violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "class double-booked at slot"})
		}
		classSlot[ckey] = struct{}{}

		// 2. No teacher double-book.
		tkey := e.TeacherID + "|" + e.TimeSlotID
		if _, dup := teacherSlot[tkey]; dup {
			violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "teacher double-booked at slot"})
		}
		teacherSlot[tkey] = struct{}{}

		// 3. No shared-room double-book (home rooms exempt).
		if _, isHome := homeRooms[e.RoomID]; !isHome {
			rkey := e.RoomID + "|" + e.TimeSlotID
			if _, dup := sharedRoomSlot[rkey]; dup {
				violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "shared room double-booked at slot"})
			}
			sharedRoomSlot[rkey] = struct{}{}
		}

		// 4. Teacher qualification.
		if teacher, ok := cat.Teachers[e.TeacherID]; ok {
			if !teacher.IsQualifiedFor(e.SubjectID) {
				violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "teacher not qualified for subject"})
			}
		}

		// 5. Teacher consistency.
		csKey := ClassSubjectKey{ClassID: e.ClassID, SubjectID: e.SubjectID}
		if existing, ok := classSubjectTeacher[csKey]; ok && existing != e.TeacherID {
			violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "class/subject bound to more than one teacher"})
		} else {
			classSubjectTeacher[csKey] = e.TeacherID
		}

		// 6/7. Room suitability and capacity.
		if subject, ok := cat.Subjects[e.SubjectID]; ok {
			if room, ok := cat.Rooms[e.RoomID]; ok {
				required := subject.RequiredRoomType()
				if required != RoomClassroom && room.Type != required && e.RoomID != cat.Classes[e.ClassID].HomeRoomID {
					violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: fmt.Sprintf("subject requires room type %s, got %s", required, room.Type)})
				}
				if class, ok := cat.Classes[e.ClassID]; ok && room.Capacity < class.StudentCount {
					violations = append(violations, Violation{Field: fmt.Sprintf("entries[%d]", i), Message: "room capacity below class size"})
				}
			}
		}

		// 8. Workload caps bookkeeping.
		if teacherDayCount[e.TeacherID] == nil {
			teacherDayCount[e.TeacherID] = make(map[DayOfWeek]int)
		}
		teacherDayCount[e.TeacherID][e.DayOfWeek]++
		teacherWeekCount[e.TeacherID]++

		classSubjectCount[csKey]++
	}

	for teacherID, byDay := range teacherDayCount {
		teacher, ok := cat.Teachers[teacherID]
		if !ok {
			continue
		}
		for day, count := range byDay {
			if teacher.MaxPeriodsPerDay > 0 && count > teacher.MaxPeriodsPerDay {
				violations = append(violations, Violation{Field: fmt.Sprintf("teacher[%s].day[%s]", teacherID, day), Message: "exceeds max periods per day"})
			}
		}
		if teacher.MaxPeriodsPerWeek > 0 && teacherWeekCount[teacherID] > teacher.MaxPeriodsPerWeek {
			violations = append(violations, Violation{Field: fmt.Sprintf("teacher[%s].week", teacherID), Message: "exceeds max periods per week"})
		}
	}

	return violations
}
