package scheduler

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/classplan/timetable-solver/internal/domain"
	appErrors "github.com/classplan/timetable-solver/pkg/errors"
)

// RelaxationLevels is the progressive-relaxation ladder from SPEC_FULL
// §4.4. Levels are tried in order until a timetable reaches
// MinCoverage, or the ladder is exhausted.
var RelaxationLevels = []float64{0.0, 0.3, 0.5, 0.8}

// Options configures one GenerateCandidates call.
type Options struct {
	Seed                      int64
	NumCandidates             int
	AllowPartialSolutions     bool
	MinCoverage               float64
	EnforceTeacherConsistency bool
}

// Scheduler builds complete or partial timetables from a fixed
// catalog and pre-assignment (C4). It owns no package-level state;
// every GenerateCandidates call is independent, matching §5's
// "no shared mutable state across workers during a solve."
type Scheduler struct {
	classes     []domain.Class
	subjects    map[string]domain.Subject
	teachers    map[string]domain.Teacher
	rooms       map[string]domain.Room
	sharedRooms []domain.Room
	activeSlots []domain.TimeSlot
	assignments domain.ClassSubjectTeacherMap
	targets     map[domain.ClassSubjectKey]domain.PeriodTarget

	qualifiedBySubject map[string][]string // sorted teacher ids, for relaxed teacher search
}

// New validates home rooms and builds a Scheduler ready to generate
// candidates. It returns a structured error (wrapping []domain.Violation
// information in its message) if home rooms are missing/duplicated.
func New(
	classes []domain.Class,
	subjects []domain.Subject,
	teachers []domain.Teacher,
	rooms []domain.Room,
	slots []domain.TimeSlot,
	requirements []domain.GradeSubjectRequirement,
	assignments domain.ClassSubjectTeacherMap,
) (*Scheduler, error) {
	if violations := domain.ValidateHomeRooms(classes); len(violations) > 0 {
		return nil, appErrors.Wrap(fmt.Errorf("%v", violations), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid home room assignments")
	}

	active := ActiveSlots(slots)

	subjectByID := make(map[string]domain.Subject, len(subjects))
	for _, s := range subjects {
		subjectByID[s.ID] = s
	}
	teacherByID := make(map[string]domain.Teacher, len(teachers))
	for _, t := range teachers {
		teacherByID[t.ID] = t
	}
	roomByID := make(map[string]domain.Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
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

	sharedRooms := domain.ExtractSharedRooms(rooms, classes)

	return &Scheduler{
		classes:            append([]domain.Class(nil), classes...),
		subjects:           subjectByID,
		teachers:           teacherByID,
		rooms:              roomByID,
		sharedRooms:        sharedRooms,
		activeSlots:        active,
		assignments:        assignments,
		targets:            DistributePeriods(classes, subjects, requirements, len(active)),
		qualifiedBySubject: qualifiedBySubject,
	}, nil
}

// ExpectedEntries returns |classes| × |active_slots|, the denominator
// used by the evaluator's coverage penalty and by GenerateCandidates'
// own coverage bookkeeping.
func (s *Scheduler) ExpectedEntries() int {
	return len(s.classes) * len(s.activeSlots)
}

// GenerateCandidates runs the scheduling loop opts.NumCandidates times
// with distinct shuffle seeds, deduplicating solutions that differ by
// fewer than 20% of their (class, subject, slot) tuples.
func (s *Scheduler) GenerateCandidates(opts Options) ([]domain.Timetable, error) {
	if opts.NumCandidates < 1 {
		opts.NumCandidates = 1
	}
	if opts.MinCoverage <= 0 {
		opts.MinCoverage = 0.70
	}

	var candidates []domain.Timetable
	var signatures []map[string]struct{}

	seed := opts.Seed
	attempts := 0
	maxAttempts := opts.NumCandidates * 8 // bounded retry budget for dedup/relaxation churn

	for len(candidates) < opts.NumCandidates && attempts < maxAttempts {
		attempts++
		tt, ok := s.attemptWithRelaxation(seed, opts)
		seed++
		if !ok {
			continue
		}

		sig := signature(tt)
		duplicate := false
		for _, existing := range signatures {
			if similarity(sig, existing) >= 0.80 {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		candidates = append(candidates, tt)
		signatures = append(signatures, sig)
	}

	if len(candidates) == 0 {
		return nil, appErrors.Wrap(fmt.Errorf("no feasible timetable found after %d attempts", attempts), appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, appErrors.ErrInfeasible.Message)
	}

	return candidates, nil
}

// attemptWithRelaxation tries the strict pass first, then walks the
// relaxation ladder if allowed, accepting the first attempt whose
// coverage meets MinCoverage.
func (s *Scheduler) attemptWithRelaxation(seed int64, opts Options) (domain.Timetable, bool) {
	strict, coverage := s.attempt(seed, 0.0)
	if coverage >= 1.0 {
		return strict, true
	}
	if !opts.AllowPartialSolutions {
		return domain.Timetable{}, false
	}
	if coverage >= opts.MinCoverage {
		return strict, true
	}

	best := strict
	bestCoverage := coverage
	for _, level := range RelaxationLevels[1:] {
		tt, cov := s.attempt(seed, level)
		if cov > bestCoverage {
			best, bestCoverage = tt, cov
		}
		if cov >= opts.MinCoverage {
			return tt, true
		}
	}

	if bestCoverage >= opts.MinCoverage {
		return best, true
	}
	return domain.Timetable{}, false
}

// attempt runs one full scheduling pass at the given relaxation level
// and returns the resulting timetable plus its coverage ratio.
func (s *Scheduler) attempt(seed int64, relaxation float64) (domain.Timetable, float64) {
	rng := rand.New(rand.NewSource(seed))
	allocator := newRoomAllocator(s.sharedRooms)
	allocator.relaxed = relaxation >= 0.5
	allocator.anyShared = relaxation >= 0.8

	teacherAvail := make(map[string]*teacherAvailability, len(s.teachers))
	for id, t := range s.teachers {
		teacherAvail[id] = newTeacherAvailability(t)
	}

	var entries []domain.TimetableEntry
	var gaps []domain.Gap

	sortedClasses := append([]domain.Class(nil), s.classes...)
	sort.Slice(sortedClasses, func(i, j int) bool { return sortedClasses[i].ID < sortedClasses[j].ID })

	for _, class := range sortedClasses {
		remaining := s.remainingBySubject(class.ID)
		pool := buildShuffledPool(remaining, len(s.activeSlots), rng)

		homeRoom := s.rooms[class.HomeRoomID]

		for slotIdx, slot := range s.activeSlots {
			subjectID, ok := nextCandidate(pool, slotIdx, remaining)
			if !ok {
				continue // no demand left for this class at all
			}

			entry, reason, emitted := s.tryEmit(class, homeRoom, slot, subjectID, relaxation, teacherAvail, allocator, rng)
			if !emitted {
				// NextSubject: rotate through the other subjects with periods
				// left, in id order starting after subjectID.
				ids := make([]string, 0, len(remaining))
				for id := range remaining {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				start := sort.SearchStrings(ids, subjectID)
				for i := 1; i < len(ids) && !emitted; i++ {
					if alt := ids[(start+i)%len(ids)]; remaining[alt] > 0 {
						entry, _, emitted = s.tryEmit(class, homeRoom, slot, alt, relaxation, teacherAvail, allocator, rng)
					}
				}
			}
			if emitted {
				entries = append(entries, entry)
				remaining[entry.SubjectID]--
				continue
			}

			gaps = append(gaps, domain.Gap{
				ClassID:    class.ID,
				TimeSlotID: slot.ID,
				SubjectID:  subjectID,
				Reason:     reason,
				Detail:     gapDetail(reason, class.ID, s.subjects[subjectID]),
			})
		}
	}

	expected := s.ExpectedEntries()
	coverage := 0.0
	if expected > 0 {
		coverage = float64(len(entries)) / float64(expected)
	}

	tt := domain.Timetable{
		Entries: entries,
		Metadata: domain.TimetableMetadata{
			Coverage:        coverage,
			RelaxationLevel: relaxation,
			Gaps:            gaps,
		},
	}
	return tt, coverage
}

// tryEmit attempts one subject for (class, slot), honoring the state
// machine TryingSubject -> HaveSubject -> TeacherOK -> RoomOK -> Emitted,
// and returns the gap reason when the teacher or room check fails.
// attempt supplies the NextSubject fallback by calling it again for the
// class's other remaining subjects before recording a Gap.
func (s *Scheduler) tryEmit(
	class domain.Class,
	homeRoom domain.Room,
	slot domain.TimeSlot,
	firstSubjectID string,
	relaxation float64,
	teacherAvail map[string]*teacherAvailability,
	allocator *roomAllocator,
	rng *rand.Rand,
) (domain.TimetableEntry, domain.GapReason, bool) {
	subject := s.subjects[firstSubjectID]

	teacherID, teacherOK := s.pickTeacher(class.ID, firstSubjectID, slot, relaxation, teacherAvail, rng)
	if !teacherOK {
		if relaxation < 0.3 {
			return domain.TimetableEntry{}, domain.GapNoQualifiedTeacher, false
		}
		return domain.TimetableEntry{}, domain.GapNoTeacher, false
	}

	roomID, isShared, roomOK := allocator.allocate(subject, homeRoom, slot.ID, class.StudentCount)
	if !roomOK {
		return domain.TimetableEntry{}, domain.GapNoCompatibleRoom, false
	}

	avail := teacherAvail[teacherID]
	avail.reserve(slot.ID, slot.DayOfWeek)
	allocator.reserve(roomID, slot.ID, isShared)

	teacher := s.teachers[teacherID]
	entry := domain.TimetableEntry{
		ClassID:      class.ID,
		SubjectID:    firstSubjectID,
		TeacherID:    teacherID,
		RoomID:       roomID,
		TimeSlotID:   slot.ID,
		DayOfWeek:    slot.DayOfWeek,
		PeriodNumber: slot.PeriodNumber,
		IsSharedRoom: isShared,
		SubjectMeta:  domain.FreezeSubjectMetadata(subject),
		TeacherMeta:  domain.FreezeTeacherMetadata(teacher),
	}
	return entry, "", true
}

// pickTeacher resolves the teacher for (class, subject) at slot,
// honoring the relaxation ladder: below 0.3 only the pre-assigned
// teacher is eligible; at 0.3+ any qualified teacher is eligible
// (flagged as a consistency break); at 0.8+ any available teacher
// regardless of qualification.
func (s *Scheduler) pickTeacher(classID, subjectID string, slot domain.TimeSlot, relaxation float64, avail map[string]*teacherAvailability, rng *rand.Rand) (string, bool) {
	preassigned, hasPreassigned := s.assignments[domain.ClassSubjectKey{ClassID: classID, SubjectID: subjectID}]
	if hasPreassigned {
		if a := avail[preassigned]; a != nil && a.canTeach(slot.ID, slot.DayOfWeek) {
			return preassigned, true
		}
	}

	if relaxation >= 0.3 {
		for _, teacherID := range s.qualifiedBySubject[subjectID] {
			if a := avail[teacherID]; a != nil && a.canTeach(slot.ID, slot.DayOfWeek) {
				return teacherID, true
			}
		}
	}

	if relaxation >= 0.8 {
		ids := make([]string, 0, len(avail))
		for id := range avail {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, teacherID := range ids {
			if avail[teacherID].canTeach(slot.ID, slot.DayOfWeek) {
				return teacherID, true
			}
		}
	}

	return "", false
}

// remainingBySubject returns the per-subject remaining period count
// for a class, seeded from the distributed targets.
func (s *Scheduler) remainingBySubject(classID string) map[string]int {
	remaining := make(map[string]int)
	for key, target := range s.targets {
		if key.ClassID == classID {
			remaining[key.SubjectID] = target.PeriodsPerWeek
		}
	}
	return remaining
}

// buildShuffledPool builds a shuffled multiset of subject ids sized to
// the active slot count, where each subject id appears its
// remaining-count number of times (SPEC_FULL §4.4).
func buildShuffledPool(remaining map[string]int, size int, rng *rand.Rand) []string {
	subjectIDs := make([]string, 0, len(remaining))
	for id := range remaining {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Strings(subjectIDs)

	pool := make([]string, 0, size)
	for _, id := range subjectIDs {
		for i := 0; i < remaining[id]; i++ {
			pool = append(pool, id)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}

// nextCandidate returns the subject to attempt at position idx,
// rotating to the next candidate with positive remaining count if the
// pool entry at idx has already been exhausted.
func nextCandidate(pool []string, idx int, remaining map[string]int) (string, bool) {
	if idx >= len(pool) {
		return scanForRemaining(remaining)
	}
	candidate := pool[idx]
	if remaining[candidate] > 0 {
		return candidate, true
	}
	return scanForRemaining(remaining)
}

func scanForRemaining(remaining map[string]int) (string, bool) {
	ids := make([]string, 0, len(remaining))
	for id := range remaining {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if remaining[id] > 0 {
			return id, true
		}
	}
	return "", false
}

func gapDetail(reason domain.GapReason, classID string, subject domain.Subject) string {
	switch reason {
	case domain.GapNoQualifiedTeacher:
		return fmt.Sprintf("no qualified teacher available for class %s, subject %s", classID, subject.ID)
	case domain.GapNoTeacher:
		return fmt.Sprintf("no teacher available for class %s, subject %s", classID, subject.ID)
	case domain.GapNoCompatibleRoom:
		return fmt.Sprintf("no %s room available for class %s, subject %s",
			strings.ToUpper(string(subject.RequiredRoomType())), classID, subject.ID)
	case domain.GapCapacityExceeded:
		return fmt.Sprintf("capacity exceeded for class %s, subject %s", classID, subject.ID)
	default:
		return fmt.Sprintf("unable to schedule class %s, subject %s", classID, subject.ID)
	}
}

// signature and similarity implement the ≥20%-difference dedup rule:
// two timetables are considered duplicates when they share at least
// 80% of their (class, subject, time_slot) tuples.
func signature(t domain.Timetable) map[string]struct{} {
	sig := make(map[string]struct{}, len(t.Entries))
	for _, e := range t.Entries {
		sig[e.ClassID+"|"+e.SubjectID+"|"+e.TimeSlotID] = struct{}{}
	}
	return sig
}

func similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}
