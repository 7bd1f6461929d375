package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classplan/timetable-solver/internal/cache"
	"github.com/classplan/timetable-solver/pkg/config"
)

func newCacheMock(t *testing.T) (*cache.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	t.Cleanup(func() { _ = sqlxDB.Close() })
	return cache.New(sqlxDB, nil, config.CacheConfig{MaxAge: time.Hour, MaxBytes: 1 << 20}, nil, nil), mock
}

func getRequest(t *testing.T, path string, params gin.Params) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = params
	return w, c
}

func TestCacheHandlerBestOfSessionNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, mock := newCacheMock(t)
	h := NewCacheHandler(store)

	mock.ExpectQuery("SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload").
		WithArgs("missing-session").
		WillReturnError(sql.ErrNoRows)

	w, c := getRequest(t, "/cache/sessions/missing-session/best", gin.Params{{Key: "id", Value: "missing-session"}})
	h.BestOfSession(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCacheHandlerStatsReturnsAggregates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, mock := newCacheMock(t)
	h := NewCacheHandler(store)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count", "bytes"}).AddRow(1, 256))
	mock.ExpectQuery("SELECT session_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "count", "bytes"}).AddRow("session-1", 1, 256))

	w, c := getRequest(t, "/cache/stats", nil)
	h.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			TotalEntries int `json:"totalEntries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.TotalEntries)
}

func TestCacheHandlerPopulationOfGenerationRejectsNonIntegerGeneration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, _ := newCacheMock(t)
	h := NewCacheHandler(store)

	w, c := getRequest(t, "/cache/sessions/session-1/generations/abc",
		gin.Params{{Key: "id", Value: "session-1"}, {Key: "gen", Value: "abc"}})
	h.PopulationOfGeneration(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
