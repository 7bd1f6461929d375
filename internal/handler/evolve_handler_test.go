package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classplan/timetable-solver/internal/dto"
	"github.com/classplan/timetable-solver/internal/worker"
	"github.com/classplan/timetable-solver/pkg/jobs"
)

func startTestEvolveQueue(t *testing.T) *jobs.Queue {
	t.Helper()
	w := worker.NewEvolveWorker(nil, zap.NewNop(), nil)
	queue := jobs.NewQueue("evolve-test", w.Handle, jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		cancel()
		queue.Stop()
	})
	return queue
}

func sampleEvolveRequest() dto.EvolveRequest {
	subjects, teachers := sampleCatalogSubjectsTeachers()
	return dto.EvolveRequest{
		Population:      []dto.TimetableEntriesDTO{sampleTimetableEntries()},
		Generations:     1,
		ExpectedEntries: 2,
		Classes: []dto.ClassDTO{
			{ID: "g6a", Name: "G6A", Grade: 6, HomeRoomID: "r1", StudentCount: 20},
		},
		Subjects: subjects,
		Teachers: teachers,
		Rooms: []dto.RoomDTO{
			{ID: "r1", Name: "Home G6A", Type: "CLASSROOM", Capacity: 25},
		},
	}
}

func TestEvolveHandlerAcceptsAndQueuesJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	queue := startTestEvolveQueue(t)
	h := NewEvolveHandler(queue, validator.New())

	w, c := postJSON(t, "/evolve", sampleEvolveRequest())
	h.Evolve(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body struct {
		Data struct {
			SessionID string `json:"sessionId"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "queued", body.Data.Status)
	assert.NotEmpty(t, body.Data.SessionID)
}

func TestEvolveHandlerRejectsInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	queue := startTestEvolveQueue(t)
	h := NewEvolveHandler(queue, validator.New())

	req := sampleEvolveRequest()
	req.Classes = nil

	w, c := postJSON(t, "/evolve", req)
	h.Evolve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
