// Package dto carries the wire-shaped request/response bodies for the
// HTTP surface and converts them to and from internal/domain values.
// Validation tags follow the teacher's go-playground/validator/v10
// convention.
package dto

import "github.com/classplan/timetable-solver/internal/domain"

type ClassDTO struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Grade        int    `json:"grade" validate:"required,min=1"`
	Section      string `json:"section"`
	StudentCount int    `json:"studentCount" validate:"required,min=1"`
	HomeRoomID   string `json:"homeRoomId" validate:"required"`
}

func (c ClassDTO) ToDomain() domain.Class {
	return domain.Class{
		ID: c.ID, Name: c.Name, Grade: c.Grade, Section: c.Section,
		StudentCount: c.StudentCount, HomeRoomID: c.HomeRoomID,
	}
}

type SubjectDTO struct {
	ID               string `json:"id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Code             string `json:"code"`
	PeriodsPerWeek   int    `json:"periodsPerWeek" validate:"required,min=1"`
	RequiresLab      bool   `json:"requiresLab"`
	PreferMorning    bool   `json:"preferMorning"`
	PreferredPeriods []int  `json:"preferredPeriods" validate:"omitempty,dive,min=1"`
	AvoidPeriods     []int  `json:"avoidPeriods" validate:"omitempty,dive,min=1"`
}

func (s SubjectDTO) ToDomain() domain.Subject {
	return domain.Subject{
		ID: s.ID, Name: s.Name, Code: s.Code, PeriodsPerWeek: s.PeriodsPerWeek,
		RequiresLab: s.RequiresLab, PreferMorning: s.PreferMorning,
		PreferredPeriods: s.PreferredPeriods, AvoidPeriods: s.AvoidPeriods,
	}
}

type TeacherDTO struct {
	ID                    string   `json:"id" validate:"required"`
	DisplayName           string   `json:"displayName" validate:"required"`
	QualifiedSubjectIDs   []string `json:"qualifiedSubjectIds" validate:"required,min=1,dive,required"`
	MaxPeriodsPerDay      int      `json:"maxPeriodsPerDay" validate:"required,min=1"`
	MaxPeriodsPerWeek     int      `json:"maxPeriodsPerWeek" validate:"required,min=1"`
	MaxConsecutivePeriods int      `json:"maxConsecutivePeriods" validate:"omitempty,min=1"`
}

func (t TeacherDTO) ToDomain() domain.Teacher {
	return domain.Teacher{
		ID: t.ID, DisplayName: t.DisplayName, QualifiedSubjectIDs: t.QualifiedSubjectIDs,
		MaxPeriodsPerDay: t.MaxPeriodsPerDay, MaxPeriodsPerWeek: t.MaxPeriodsPerWeek,
		MaxConsecutivePeriods: t.MaxConsecutivePeriods,
	}
}

type RoomDTO struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=CLASSROOM LAB SPORTS LIBRARY AUDITORIUM"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

func (r RoomDTO) ToDomain() domain.Room {
	return domain.Room{ID: r.ID, Name: r.Name, Type: domain.RoomType(r.Type), Capacity: r.Capacity}
}

type TimeSlotDTO struct {
	ID           string `json:"id" validate:"required"`
	DayOfWeek    string `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	PeriodNumber int    `json:"periodNumber" validate:"required,min=1"`
	IsBreak      bool   `json:"isBreak"`
}

func (ts TimeSlotDTO) ToDomain() domain.TimeSlot {
	return domain.TimeSlot{
		ID: ts.ID, DayOfWeek: dayOfWeekFromString(ts.DayOfWeek),
		PeriodNumber: ts.PeriodNumber, IsBreak: ts.IsBreak,
	}
}

// dayOfWeekFromString parses the wire day-name enum into domain.DayOfWeek.
// DayOfWeek is int-backed internally, so this can't be a plain conversion.
func dayOfWeekFromString(name string) domain.DayOfWeek {
	switch name {
	case "MONDAY":
		return domain.Monday
	case "TUESDAY":
		return domain.Tuesday
	case "WEDNESDAY":
		return domain.Wednesday
	case "THURSDAY":
		return domain.Thursday
	case "FRIDAY":
		return domain.Friday
	case "SATURDAY":
		return domain.Saturday
	default:
		return 0
	}
}

type GradeSubjectRequirementDTO struct {
	Grade          int    `json:"grade" validate:"required,min=1"`
	SubjectID      string `json:"subjectId" validate:"required"`
	PeriodsPerWeek int    `json:"periodsPerWeek" validate:"required,min=1"`
	ConstraintType string `json:"constraintType" validate:"required,oneof=exact min max"`
}

func (g GradeSubjectRequirementDTO) ToDomain() domain.GradeSubjectRequirement {
	return domain.GradeSubjectRequirement{
		Grade: g.Grade, SubjectID: g.SubjectID, PeriodsPerWeek: g.PeriodsPerWeek,
		ConstraintType: domain.ConstraintType(g.ConstraintType),
	}
}

type TimetableEntryDTO struct {
	ClassID      string `json:"classId"`
	SubjectID    string `json:"subjectId"`
	TeacherID    string `json:"teacherId"`
	RoomID       string `json:"roomId"`
	TimeSlotID   string `json:"timeSlotId"`
	DayOfWeek    string `json:"dayOfWeek"`
	PeriodNumber int    `json:"periodNumber"`
	IsSharedRoom bool   `json:"isSharedRoom"`
}

func TimetableEntryFromDomain(e domain.TimetableEntry) TimetableEntryDTO {
	return TimetableEntryDTO{
		ClassID: e.ClassID, SubjectID: e.SubjectID, TeacherID: e.TeacherID, RoomID: e.RoomID,
		TimeSlotID: e.TimeSlotID, DayOfWeek: e.DayOfWeek.String(), PeriodNumber: e.PeriodNumber,
		IsSharedRoom: e.IsSharedRoom,
	}
}

type TimetableDTO struct {
	ID       string              `json:"id"`
	Entries  []TimetableEntryDTO `json:"entries"`
	Coverage float64             `json:"coverage"`
	Fitness  float64             `json:"fitness"`
}

func TimetableFromDomain(t domain.Timetable) TimetableDTO {
	entries := make([]TimetableEntryDTO, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, TimetableEntryFromDomain(e))
	}
	return TimetableDTO{
		ID: t.ID, Entries: entries,
		Coverage: t.Metadata.Coverage, Fitness: t.Metadata.Fitness,
	}
}
