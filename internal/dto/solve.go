package dto

import (
	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/internal/evaluator"
	"github.com/classplan/timetable-solver/internal/ga"
	rankPkg "github.com/classplan/timetable-solver/internal/rank"
	"github.com/classplan/timetable-solver/internal/solve"
)

type WeightsDTO struct {
	WorkloadBalance     float64 `json:"workloadBalance" validate:"omitempty,min=0"`
	GapMinimization     float64 `json:"gapMinimization" validate:"omitempty,min=0"`
	TimePreferences     float64 `json:"timePreferences" validate:"omitempty,min=0"`
	ConsecutivePeriods  float64 `json:"consecutivePeriods" validate:"omitempty,min=0"`
	Coverage            float64 `json:"coverage" validate:"omitempty,min=0"`
	MorningPeriodCutoff int     `json:"morningPeriodCutoff" validate:"omitempty,min=0"`
}

func (w WeightsDTO) ToDomain() evaluator.Weights {
	if (w == WeightsDTO{}) {
		return evaluator.DefaultWeights()
	}
	return evaluator.Weights{
		WorkloadBalance: w.WorkloadBalance, GapMinimization: w.GapMinimization,
		TimePreferences: w.TimePreferences, ConsecutivePeriods: w.ConsecutivePeriods,
		Coverage: w.Coverage, MorningPeriodCutoff: w.MorningPeriodCutoff,
	}
}

// SolveRequest is the wire body for POST /solve.
type SolveRequest struct {
	SchoolID       string `json:"schoolId" validate:"required"`
	AcademicYearID string `json:"academicYearId" validate:"required"`

	Classes      []ClassDTO                   `json:"classes" validate:"required,min=1,dive"`
	Subjects     []SubjectDTO                 `json:"subjects" validate:"required,min=1,dive"`
	Teachers     []TeacherDTO                 `json:"teachers" validate:"required,min=1,dive"`
	Rooms        []RoomDTO                    `json:"rooms" validate:"required,min=1,dive"`
	TimeSlots    []TimeSlotDTO                `json:"timeSlots" validate:"required,min=1,dive"`
	Requirements []GradeSubjectRequirementDTO `json:"subjectRequirements" validate:"omitempty,dive"`

	Seed                      int64      `json:"seed"`
	NumCandidates             int        `json:"numCandidates" validate:"omitempty,min=1,max=50"`
	TimeoutSeconds            float64    `json:"timeoutSeconds" validate:"omitempty,min=0"`
	Weights                   WeightsDTO `json:"weights"`
	EnforceTeacherConsistency *bool      `json:"enforceTeacherConsistency"`
	AllowPartialSolutions     *bool      `json:"allowPartialSolutions"`
	MinCoverage               float64    `json:"minCoverage" validate:"omitempty,min=0,max=1"`
	SessionID                 string     `json:"sessionId"`
}

func boolOrDefault(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func (r SolveRequest) ToDomain() solve.Request {
	classes := make([]domain.Class, 0, len(r.Classes))
	for _, c := range r.Classes {
		classes = append(classes, c.ToDomain())
	}
	subjects := make([]domain.Subject, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		subjects = append(subjects, s.ToDomain())
	}
	teachers := make([]domain.Teacher, 0, len(r.Teachers))
	for _, t := range r.Teachers {
		teachers = append(teachers, t.ToDomain())
	}
	rooms := make([]domain.Room, 0, len(r.Rooms))
	for _, rm := range r.Rooms {
		rooms = append(rooms, rm.ToDomain())
	}
	slots := make([]domain.TimeSlot, 0, len(r.TimeSlots))
	for _, ts := range r.TimeSlots {
		slots = append(slots, ts.ToDomain())
	}
	requirements := make([]domain.GradeSubjectRequirement, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		requirements = append(requirements, req.ToDomain())
	}

	return solve.Request{
		SchoolID: r.SchoolID, AcademicYearID: r.AcademicYearID,
		Classes: classes, Subjects: subjects, Teachers: teachers, Rooms: rooms,
		TimeSlots: slots, Requirements: requirements,
		Seed: r.Seed, NumCandidates: r.NumCandidates, TimeoutSeconds: r.TimeoutSeconds,
		Weights:                   r.Weights.ToDomain(),
		EnforceTeacherConsistency: boolOrDefault(r.EnforceTeacherConsistency, true),
		AllowPartialSolutions:     boolOrDefault(r.AllowPartialSolutions, true),
		MinCoverage:               r.MinCoverage,
		SessionID:                 r.SessionID,
	}
}

// SolveResponse is the wire body returned from POST /solve.
type SolveResponse struct {
	SchoolID              string         `json:"schoolId"`
	AcademicYearID        string         `json:"academicYearId"`
	SessionID             string         `json:"sessionId"`
	Status                string         `json:"status"`
	Solutions             []TimetableDTO `json:"solutions"`
	GenerationTimeSeconds float64        `json:"generationTimeSeconds"`
	Diagnostics           solve.Diagnostics `json:"diagnostics"`
}

func SolveResponseFromResult(r solve.Result) SolveResponse {
	solutions := make([]TimetableDTO, 0, len(r.Solutions))
	for _, tt := range r.Solutions {
		solutions = append(solutions, TimetableFromDomain(tt))
	}
	return SolveResponse{
		SchoolID: r.SchoolID, AcademicYearID: r.AcademicYearID, SessionID: r.SessionID,
		Status: string(r.Status), Solutions: solutions,
		GenerationTimeSeconds: r.GenerationTimeSeconds, Diagnostics: r.Diagnostics,
	}
}

// EvaluateRequest is the wire body for POST /evaluate. Subjects and
// Teachers are the catalog slices needed to re-freeze SubjectMeta and
// TeacherMeta on each entry — the evaluator scores off those frozen
// snapshots, not off a catalog lookup, so a wire timetable must carry
// enough to rebuild them.
type EvaluateRequest struct {
	Timetable       TimetableEntriesDTO `json:"timetable" validate:"required"`
	Subjects        []SubjectDTO        `json:"subjects" validate:"required,min=1,dive"`
	Teachers        []TeacherDTO        `json:"teachers" validate:"required,min=1,dive"`
	Weights         WeightsDTO          `json:"weights"`
	ExpectedEntries int                 `json:"expectedEntries" validate:"required,min=1"`
}

// TimetableEntriesDTO is the minimal wire shape evaluate/rank accept
// for a candidate timetable: its entries, keyed by the subject/teacher
// IDs a caller-supplied catalog resolves into frozen metadata.
type TimetableEntriesDTO struct {
	ID      string              `json:"id"`
	Entries []TimetableEntryDTO `json:"entries" validate:"required,min=1,dive"`
}

func catalogIndexes(subjects []SubjectDTO, teachers []TeacherDTO) (map[string]domain.Subject, map[string]domain.Teacher) {
	subjectByID := make(map[string]domain.Subject, len(subjects))
	for _, s := range subjects {
		subjectByID[s.ID] = s.ToDomain()
	}
	teacherByID := make(map[string]domain.Teacher, len(teachers))
	for _, tc := range teachers {
		teacherByID[tc.ID] = tc.ToDomain()
	}
	return subjectByID, teacherByID
}

// ToDomain rebuilds a Timetable without frozen metadata; suitable only
// for callers that don't score the result (e.g. cache round-trips).
func (t TimetableEntriesDTO) ToDomain() domain.Timetable {
	return t.ToDomainWithCatalog(nil, nil)
}

// ToDomainWithCatalog rebuilds a Timetable and re-freezes each entry's
// SubjectMeta/TeacherMeta from the supplied catalog indexes, so the
// evaluator sees the same metadata a live solve() would have attached.
func (t TimetableEntriesDTO) ToDomainWithCatalog(subjects map[string]domain.Subject, teachers map[string]domain.Teacher) domain.Timetable {
	entries := make([]domain.TimetableEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		entry := domain.TimetableEntry{
			ClassID: e.ClassID, SubjectID: e.SubjectID, TeacherID: e.TeacherID, RoomID: e.RoomID,
			TimeSlotID: e.TimeSlotID, DayOfWeek: dayOfWeekFromString(e.DayOfWeek),
			PeriodNumber: e.PeriodNumber, IsSharedRoom: e.IsSharedRoom,
		}
		if s, ok := subjects[e.SubjectID]; ok {
			entry.SubjectMeta = domain.FreezeSubjectMetadata(s)
		}
		if tc, ok := teachers[e.TeacherID]; ok {
			entry.TeacherMeta = domain.FreezeTeacherMetadata(tc)
		}
		entries = append(entries, entry)
	}
	return domain.Timetable{ID: t.ID, Entries: entries}
}

// ToDomain rebuilds the timetable, re-freezing metadata from the
// request's subject/teacher catalog.
func (r EvaluateRequest) ToDomain() domain.Timetable {
	subjectByID, teacherByID := catalogIndexes(r.Subjects, r.Teachers)
	return r.Timetable.ToDomainWithCatalog(subjectByID, teacherByID)
}

// EvaluateResponse wraps evaluator.Result for the wire.
type EvaluateResponse struct {
	TotalScore         float64                     `json:"totalScore"`
	CoveragePercentage float64                      `json:"coveragePercentage"`
	Breakdown          []evaluator.PenaltyLine     `json:"breakdown"`
}

func EvaluateResponseFromResult(r evaluator.Result) EvaluateResponse {
	return EvaluateResponse{TotalScore: r.TotalScore, CoveragePercentage: r.CoveragePercentage, Breakdown: r.Breakdown}
}

// RankRequest is the wire body for POST /rank.
type RankRequest struct {
	Timetables      []TimetableEntriesDTO `json:"timetables" validate:"required,min=1,dive"`
	Subjects        []SubjectDTO          `json:"subjects" validate:"required,min=1,dive"`
	Teachers        []TeacherDTO          `json:"teachers" validate:"required,min=1,dive"`
	Weights         WeightsDTO            `json:"weights"`
	ExpectedEntries int                   `json:"expectedEntries" validate:"required,min=1"`
}

// ToDomain rebuilds every candidate, re-freezing metadata from the
// request's subject/teacher catalog.
func (r RankRequest) ToDomain() []domain.Timetable {
	subjectByID, teacherByID := catalogIndexes(r.Subjects, r.Teachers)
	timetables := make([]domain.Timetable, 0, len(r.Timetables))
	for _, tt := range r.Timetables {
		timetables = append(timetables, tt.ToDomainWithCatalog(subjectByID, teacherByID))
	}
	return timetables
}

// RankedDTO is one ranked entry on the wire.
type RankedDTO struct {
	Timetable TimetableDTO     `json:"timetable"`
	Score     evaluator.Result `json:"score"`
}

// RankResponse is the wire body returned from POST /rank.
type RankResponse struct {
	Ranked []RankedDTO `json:"ranked"`
}

func RankResponseFromResult(ranked []rankPkg.Ranked) RankResponse {
	out := make([]RankedDTO, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedDTO{Timetable: TimetableFromDomain(r.Timetable), Score: r.Score})
	}
	return RankResponse{Ranked: out}
}

// EvolveRequest is the wire body for POST /evolve.
type EvolveRequest struct {
	Population      []TimetableEntriesDTO `json:"population" validate:"required,min=1,dive"`
	Generations     int                   `json:"generations" validate:"omitempty,min=1,max=500"`
	CrossoverRate   float64               `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate    float64               `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	ElitismCount    int                   `json:"elitismCount" validate:"omitempty,min=0"`
	Weights         WeightsDTO            `json:"weights"`
	ExpectedEntries int                   `json:"expectedEntries" validate:"required,min=1"`
	Seed            int64                 `json:"seed"`
	SessionID       string                `json:"sessionId"`

	Classes  []ClassDTO   `json:"classes" validate:"required,min=1,dive"`
	Subjects []SubjectDTO `json:"subjects" validate:"required,min=1,dive"`
	Teachers []TeacherDTO `json:"teachers" validate:"required,min=1,dive"`
	Rooms    []RoomDTO    `json:"rooms" validate:"required,min=1,dive"`
}

// ToCatalog builds the domain.Catalog the GA needs for invariant checks
// during crossover/mutation.
func (r EvolveRequest) ToCatalog() domain.Catalog {
	classes := make([]domain.Class, 0, len(r.Classes))
	for _, c := range r.Classes {
		classes = append(classes, c.ToDomain())
	}
	subjects := make([]domain.Subject, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		subjects = append(subjects, s.ToDomain())
	}
	teachers := make([]domain.Teacher, 0, len(r.Teachers))
	for _, tc := range r.Teachers {
		teachers = append(teachers, tc.ToDomain())
	}
	rooms := make([]domain.Room, 0, len(r.Rooms))
	for _, rm := range r.Rooms {
		rooms = append(rooms, rm.ToDomain())
	}
	return domain.NewCatalog(classes, subjects, teachers, rooms)
}

// ToPopulation rebuilds the initial population, re-freezing metadata
// from the request's subject/teacher catalog.
func (r EvolveRequest) ToPopulation() []domain.Timetable {
	subjectByID, teacherByID := catalogIndexes(r.Subjects, r.Teachers)
	population := make([]domain.Timetable, 0, len(r.Population))
	for _, tt := range r.Population {
		population = append(population, tt.ToDomainWithCatalog(subjectByID, teacherByID))
	}
	return population
}

// ToGAConfig builds a ga.Config from the request, falling back to
// ga.DefaultConfig() values for any zero field.
func (r EvolveRequest) ToGAConfig(expectedEntries int) ga.Config {
	cfg := ga.DefaultConfig()
	if r.Generations > 0 {
		cfg.Generations = r.Generations
	}
	if r.CrossoverRate > 0 {
		cfg.CrossoverRate = r.CrossoverRate
	}
	if r.MutationRate > 0 {
		cfg.MutationRate = r.MutationRate
	}
	if r.ElitismCount > 0 {
		cfg.ElitismCount = r.ElitismCount
	}
	cfg.Weights = r.Weights.ToDomain()
	cfg.ExpectedEntries = expectedEntries
	return cfg
}

// EvolveResponse is the wire body returned from POST /evolve.
type EvolveResponse struct {
	SessionID  string                 `json:"sessionId"`
	Population []TimetableDTO         `json:"population"`
	Stats      []ga.GenerationStats   `json:"stats"`
}

func EvolveResponseFromResult(sessionID string, r ga.Result) EvolveResponse {
	population := make([]TimetableDTO, 0, len(r.Population))
	for _, tt := range r.Population {
		population = append(population, TimetableFromDomain(tt))
	}
	return EvolveResponse{SessionID: sessionID, Population: population, Stats: r.Stats}
}
