package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classplan/timetable-solver/internal/domain"
)

func TestSubjectRequiresSpecialRoom(t *testing.T) {
	cases := []struct {
		name    string
		subject domain.Subject
		want    bool
	}{
		{"plain subject", domain.Subject{Code: "MATH", Name: "Mathematics"}, false},
		{"explicit lab flag", domain.Subject{Code: "SCI", Name: "Science", RequiresLab: true}, true},
		{"keyword in name", domain.Subject{Code: "X1", Name: "Drama Club"}, true},
		{"keyword in code", domain.Subject{Code: "PE", Name: "Physical Education"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.subject.RequiresSpecialRoom())
		})
	}
}

func TestSubjectRequiredRoomType(t *testing.T) {
	assert.Equal(t, domain.RoomLab, domain.Subject{RequiresLab: true}.RequiredRoomType())
	assert.Equal(t, domain.RoomSports, domain.Subject{Code: "PE"}.RequiredRoomType())
	assert.Equal(t, domain.RoomLibrary, domain.Subject{Name: "Library Studies"}.RequiredRoomType())
	assert.Equal(t, domain.RoomClassroom, domain.Subject{Code: "MATH"}.RequiredRoomType())
}

func TestValidateHomeRoomsDetectsMissingAndDuplicate(t *testing.T) {
	classes := []domain.Class{
		{ID: "c1", HomeRoomID: "r1"},
		{ID: "c2", HomeRoomID: ""},
		{ID: "c3", HomeRoomID: "r1"},
	}

	violations := domain.ValidateHomeRooms(classes)

	assert.Len(t, violations, 2)
}

func TestExtractSharedRoomsExcludesHomeRooms(t *testing.T) {
	classes := []domain.Class{{ID: "c1", HomeRoomID: "r1"}}
	rooms := []domain.Room{{ID: "r1"}, {ID: "r2"}, {ID: "lab1"}}

	shared := domain.ExtractSharedRooms(rooms, classes)

	assert.Len(t, shared, 2)
	ids := []string{shared[0].ID, shared[1].ID}
	assert.ElementsMatch(t, []string{"r2", "lab1"}, ids)
}

func TestCheckInvariantsFlagsTeacherDoubleBooking(t *testing.T) {
	cat := domain.NewCatalog(
		[]domain.Class{{ID: "c1", HomeRoomID: "r1", StudentCount: 20}, {ID: "c2", HomeRoomID: "r2", StudentCount: 20}},
		[]domain.Subject{{ID: "math", PeriodsPerWeek: 4}},
		[]domain.Teacher{{ID: "t1", QualifiedSubjectIDs: []string{"math"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 25}},
		[]domain.Room{{ID: "r1", Capacity: 30}, {ID: "r2", Capacity: 30}},
	)

	tt := domain.Timetable{Entries: []domain.TimetableEntry{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", TimeSlotID: "mon-1", DayOfWeek: domain.Monday, PeriodNumber: 1},
		{ClassID: "c2", SubjectID: "math", TeacherID: "t1", RoomID: "r2", TimeSlotID: "mon-1", DayOfWeek: domain.Monday, PeriodNumber: 1},
	}}

	violations := domain.CheckInvariants(tt, cat)

	assert.NotEmpty(t, violations)
}

func TestCheckInvariantsCleanTimetable(t *testing.T) {
	cat := domain.NewCatalog(
		[]domain.Class{{ID: "c1", HomeRoomID: "r1", StudentCount: 20}},
		[]domain.Subject{{ID: "math", PeriodsPerWeek: 1}},
		[]domain.Teacher{{ID: "t1", QualifiedSubjectIDs: []string{"math"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 25}},
		[]domain.Room{{ID: "r1", Capacity: 30}},
	)

	tt := domain.Timetable{Entries: []domain.TimetableEntry{
		{ClassID: "c1", SubjectID: "math", TeacherID: "t1", RoomID: "r1", TimeSlotID: "mon-1", DayOfWeek: domain.Monday, PeriodNumber: 1},
	}}

	assert.Empty(t, domain.CheckInvariants(tt, cat))
}
