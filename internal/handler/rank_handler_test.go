package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classplan/timetable-solver/internal/dto"
)

func TestRankHandlerOrdersByScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRankHandler(validator.New())

	subjects, teachers := sampleCatalogSubjectsTeachers()
	full := sampleTimetableEntries()
	partial := dto.TimetableEntriesDTO{ID: "tt-2", Entries: full.Entries[:1]}

	req := dto.RankRequest{
		Timetables:      []dto.TimetableEntriesDTO{partial, full},
		Subjects:        subjects,
		Teachers:        teachers,
		ExpectedEntries: 2,
	}

	w, c := postJSON(t, "/rank", req)
	h.Rank(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data dto.RankResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Ranked, 2)
	assert.Equal(t, "tt-1", body.Data.Ranked[0].Timetable.ID)
}

func TestRankHandlerRejectsEmptyTimetables(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRankHandler(validator.New())

	subjects, teachers := sampleCatalogSubjectsTeachers()
	req := dto.RankRequest{Subjects: subjects, Teachers: teachers, ExpectedEntries: 2}

	w, c := postJSON(t, "/rank", req)
	h.Rank(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
