package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/pkg/config"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	store := New(sqlxDB, nil, config.CacheConfig{MaxAge: time.Hour, MaxBytes: 1 << 20}, nil, nil)
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return store, mock, cleanup
}

func sampleTimetable(id string) domain.Timetable {
	return domain.Timetable{
		ID: id,
		Entries: []domain.TimetableEntry{
			{ClassID: "c1", SubjectID: "s1", TeacherID: "t1", RoomID: "r1", DayOfWeek: domain.Monday, PeriodNumber: 1},
		},
	}
}

func TestStoreInsertsRowWithMarshaledPayload(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO timetable_cache_entries").
		WithArgs(sqlmock.AnyArg(), "session-1", 0, 12.5, sqlmock.AnyArg(), schemaVersion, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cacheID, err := store.Store(context.Background(), "session-1", 0, 12.5, sampleTimetable("tt-1"), time.Unix(0, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, cacheID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetrieveUnmarshalsPayload(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	tt := sampleTimetable("tt-1")
	payload, err := json.Marshal(tt)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"cache_id", "session_id", "generation", "fitness", "created_at", "schema_version", "payload"}).
		AddRow("cache-1", "session-1", 0, 12.5, time.Unix(0, 0), schemaVersion, payload)

	mock.ExpectQuery("SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload").
		WithArgs("cache-1").
		WillReturnRows(rows)

	got, ok, err := store.Retrieve(context.Background(), "cache-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tt-1", got.ID)
}

func TestRetrieveMissReturnsNotFoundWithoutError(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Retrieve(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBestOfSessionFallsBackToPostgresWithoutRedis(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	tt := sampleTimetable("tt-best")
	payload, err := json.Marshal(tt)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"cache_id", "session_id", "generation", "fitness", "created_at", "schema_version", "payload"}).
		AddRow("cache-best", "session-1", 2, 91.0, time.Unix(0, 0), schemaVersion, payload)

	mock.ExpectQuery("SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload").
		WithArgs("session-1").
		WillReturnRows(rows)

	got, ok, err := store.BestOfSession(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tt-best", got.ID)
}

func TestCompleteSessionKeepBestDeletesNonBestOnly(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM timetable_cache_entries").
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := store.CompleteSession(context.Background(), "session-1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAggregatesTotalsAndPerSession(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count", "bytes"}).AddRow(2, 512))
	mock.ExpectQuery("SELECT session_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "count", "bytes"}).AddRow("session-1", 2, 512))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, int64(512), stats.TotalBytes)
	require.Len(t, stats.PerSession, 1)
	assert.Equal(t, "session-1", stats.PerSession[0].SessionID)
}
