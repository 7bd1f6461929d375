// Package ga implements C5: population evolution over complete
// timetables using class-block crossover and invariant-preserving
// mutation. Mutation moves that would introduce a conflict are
// skipped, and Run discards crossover children that carry more
// CheckInvariants violations than their parents.
package ga

import (
	"math/rand"
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
)

// TournamentSelect samples 3 individuals uniformly and returns the one
// with the highest fitness (SPEC_FULL §4.5 "Selection").
func TournamentSelect(population []domain.Timetable, rng *rand.Rand) domain.Timetable {
	best := population[rng.Intn(len(population))]
	for i := 0; i < 2; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Metadata.Fitness > best.Metadata.Fitness {
			best = candidate
		}
	}
	return best
}

// entriesByClass groups a timetable's entries by class id.
func entriesByClass(t domain.Timetable) map[string][]domain.TimetableEntry {
	byClass := make(map[string][]domain.TimetableEntry)
	for _, e := range t.Entries {
		byClass[e.ClassID] = append(byClass[e.ClassID], e)
	}
	return byClass
}

// commonClassIDs returns the sorted set of class ids present in both
// parents — crossover only ever swaps whole class schedules, so a
// class id unique to one parent is left with that parent unchanged.
func commonClassIDs(a, b map[string][]domain.TimetableEntry) []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Crossover implements the class-block crossover from SPEC_FULL §4.5.
// Because every (class, subject) in both parents binds to the same
// teacher (the shared pre-assignment never changes across a solve),
// splitting by whole class schedules cannot introduce a
// teacher-consistency violation.
func Crossover(parent1, parent2 domain.Timetable, crossoverRate float64, rng *rand.Rand) (domain.Timetable, domain.Timetable) {
	if rng.Float64() >= crossoverRate {
		return cloneTimetable(parent1), cloneTimetable(parent2)
	}

	byClass1 := entriesByClass(parent1)
	byClass2 := entriesByClass(parent2)
	classIDs := commonClassIDs(byClass1, byClass2)

	if len(classIDs) < 2 {
		return cloneTimetable(parent1), cloneTimetable(parent2)
	}

	split := 1 + rng.Intn(len(classIDs)-1)
	firstHalf := classIDs[:split]
	secondHalf := classIDs[split:]

	child1 := buildFromHalves(byClass1, byClass2, firstHalf, secondHalf)
	child2 := buildFromHalves(byClass2, byClass1, firstHalf, secondHalf)

	// Classes present in only one parent stay with the child built
	// from that parent.
	for _, e := range parent1.Entries {
		if _, ok := byClass2[e.ClassID]; !ok {
			child1.Entries = append(child1.Entries, e)
		}
	}
	for _, e := range parent2.Entries {
		if _, ok := byClass1[e.ClassID]; !ok {
			child2.Entries = append(child2.Entries, e)
		}
	}

	return child1, child2
}

func buildFromHalves(sourceA, sourceB map[string][]domain.TimetableEntry, halfA, halfB []string) domain.Timetable {
	var entries []domain.TimetableEntry
	for _, classID := range halfA {
		entries = append(entries, sourceA[classID]...)
	}
	for _, classID := range halfB {
		entries = append(entries, sourceB[classID]...)
	}
	return domain.Timetable{Entries: entries}
}

func cloneTimetable(t domain.Timetable) domain.Timetable {
	entries := append([]domain.TimetableEntry(nil), t.Entries...)
	return domain.Timetable{Entries: entries, Metadata: t.Metadata}
}

// Mutate applies, with probability mutationRate, one of the two
// invariant-preserving moves: time swap or room swap. Teacher swaps
// are never attempted — they would break teacher consistency.
// A move that would introduce a conflict is skipped (no-op), matching
// the room-swap legality rule in SPEC_FULL §4.5.
func Mutate(t domain.Timetable, cat domain.Catalog, mutationRate float64, rng *rand.Rand) domain.Timetable {
	if rng.Float64() >= mutationRate {
		return t
	}

	mutated := cloneTimetable(t)
	if rng.Intn(2) == 0 {
		timeSwap(mutated, cat, rng)
	} else {
		roomSwap(mutated, cat, rng)
	}
	return mutated
}

// timeSwap finds a (class, subject) pair with >=2 entries and swaps
// the time-slot fields of two of them. If the swap would double-book
// either teacher or a shared room at the other's new slot, it is
// skipped.
func timeSwap(t domain.Timetable, cat domain.Catalog, rng *rand.Rand) {
	groups := make(map[domain.ClassSubjectKey][]int)
	for i, e := range t.Entries {
		key := domain.ClassSubjectKey{ClassID: e.ClassID, SubjectID: e.SubjectID}
		groups[key] = append(groups[key], i)
	}

	var eligible []domain.ClassSubjectKey
	for key, idxs := range groups {
		if len(idxs) >= 2 {
			eligible = append(eligible, key)
		}
	}
	if len(eligible) == 0 {
		return
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].ClassID != eligible[j].ClassID {
			return eligible[i].ClassID < eligible[j].ClassID
		}
		return eligible[i].SubjectID < eligible[j].SubjectID
	})

	key := eligible[rng.Intn(len(eligible))]
	idxs := groups[key]
	a := idxs[rng.Intn(len(idxs))]
	b := idxs[rng.Intn(len(idxs))]
	for b == a {
		b = idxs[rng.Intn(len(idxs))]
	}

	// Each entry keeps its room, so a's room lands on slotB and b's on slotA.
	if wouldDoubleBookTeacher(t, a, b) || wouldDoubleBookRoom(t, a, b, t.Entries[a].RoomID, t.Entries[b].RoomID, cat) {
		return
	}

	t.Entries[a].TimeSlotID, t.Entries[b].TimeSlotID = t.Entries[b].TimeSlotID, t.Entries[a].TimeSlotID
	t.Entries[a].DayOfWeek, t.Entries[b].DayOfWeek = t.Entries[b].DayOfWeek, t.Entries[a].DayOfWeek
	t.Entries[a].PeriodNumber, t.Entries[b].PeriodNumber = t.Entries[b].PeriodNumber, t.Entries[a].PeriodNumber
}

// wouldDoubleBookTeacher checks whether swapping entries a and b's
// slots would place either entry's teacher at a slot already occupied
// elsewhere in the timetable (same teacher, different class/subject).
func wouldDoubleBookTeacher(t domain.Timetable, a, b int) bool {
	teacherA, teacherB := t.Entries[a].TeacherID, t.Entries[b].TeacherID
	slotA, slotB := t.Entries[a].TimeSlotID, t.Entries[b].TimeSlotID
	if teacherA == teacherB {
		return false // same teacher already owns both slots; swap is a no-op for conflicts
	}
	for i, e := range t.Entries {
		if i == a || i == b {
			continue
		}
		if e.TeacherID == teacherA && e.TimeSlotID == slotB {
			return true
		}
		if e.TeacherID == teacherB && e.TimeSlotID == slotA {
			return true
		}
	}
	return false
}

// roomSwap picks two arbitrary entries and swaps their room ids,
// subject to the 2-level rule: legal only if both rooms fit both
// entries' subjects and neither introduces a shared-room conflict.
func roomSwap(t domain.Timetable, cat domain.Catalog, rng *rand.Rand) {
	if len(t.Entries) < 2 {
		return
	}
	a := rng.Intn(len(t.Entries))
	b := rng.Intn(len(t.Entries))
	for b == a {
		b = rng.Intn(len(t.Entries))
	}

	roomA, roomB := t.Entries[a].RoomID, t.Entries[b].RoomID
	if roomA == roomB {
		return
	}

	if !roomFitsEntry(t.Entries[a], roomB, cat) || !roomFitsEntry(t.Entries[b], roomA, cat) {
		return
	}
	if wouldDoubleBookRoom(t, a, b, roomA, roomB, cat) {
		return
	}

	t.Entries[a].RoomID, t.Entries[b].RoomID = roomB, roomA
	recomputeSharedFlag(&t.Entries[a], cat)
	recomputeSharedFlag(&t.Entries[b], cat)
}

func roomFitsEntry(e domain.TimetableEntry, roomID string, cat domain.Catalog) bool {
	room, ok := cat.Rooms[roomID]
	if !ok {
		return false
	}
	subject, ok := cat.Subjects[e.SubjectID]
	if !ok {
		return false
	}
	class, ok := cat.Classes[e.ClassID]
	if !ok {
		return false
	}
	if room.Capacity < class.StudentCount {
		return false
	}
	if !subject.RequiresSpecialRoom() {
		return roomID == class.HomeRoomID
	}
	required := subject.RequiredRoomType()
	if required == domain.RoomClassroom {
		return true
	}
	return room.Type == required || roomID == class.HomeRoomID
}

func wouldDoubleBookRoom(t domain.Timetable, a, b int, newRoomA, newRoomB string, cat domain.Catalog) bool {
	homeRooms := cat.HomeRoomSet()
	slotA, slotB := t.Entries[a].TimeSlotID, t.Entries[b].TimeSlotID
	checkConflict := func(roomID, slotID string, skip1, skip2 int) bool {
		if _, isHome := homeRooms[roomID]; isHome {
			return false
		}
		for i, e := range t.Entries {
			if i == skip1 || i == skip2 {
				continue
			}
			if e.RoomID == roomID && e.TimeSlotID == slotID {
				return true
			}
		}
		return false
	}
	return checkConflict(newRoomB, slotA, a, b) || checkConflict(newRoomA, slotB, a, b)
}

func recomputeSharedFlag(e *domain.TimetableEntry, cat domain.Catalog) {
	homeRooms := cat.HomeRoomSet()
	_, isHome := homeRooms[e.RoomID]
	e.IsSharedRoom = !isHome
}
