package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/classplan/timetable-solver/internal/domain"
)

// postgresStore is the durable, content-addressed record store: one
// row per cached Timetable, keyed by cache_id, with the serialized
// timetable in a jsonb column — the teacher's types.JSONText
// convention for Meta columns, adapted here for the whole payload.
type postgresStore struct {
	db *sqlx.DB
}

func newPostgresStore(db *sqlx.DB) *postgresStore {
	return &postgresStore{db: db}
}

type cacheRow struct {
	CacheID       string         `db:"cache_id"`
	SessionID     string         `db:"session_id"`
	Generation    int            `db:"generation"`
	Fitness       float64        `db:"fitness"`
	CreatedAt     time.Time      `db:"created_at"`
	SchemaVersion int            `db:"schema_version"`
	Payload       types.JSONText `db:"payload"`
}

func (s *postgresStore) insert(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record.Timetable)
	if err != nil {
		return fmt.Errorf("marshal timetable for cache_id %s: %w", record.CacheID, err)
	}

	const query = `
INSERT INTO timetable_cache_entries (cache_id, session_id, generation, fitness, created_at, schema_version, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.db.ExecContext(ctx, query,
		record.CacheID, record.SessionID, record.Generation, record.Fitness,
		record.CreatedAt, record.SchemaVersion, types.JSONText(payload),
	)
	if err != nil {
		return fmt.Errorf("insert cache entry %s: %w", record.CacheID, err)
	}
	return nil
}

func (s *postgresStore) get(ctx context.Context, cacheID string) (Record, bool, error) {
	const query = `
SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload
FROM timetable_cache_entries WHERE cache_id = $1`

	var row cacheRow
	if err := s.db.GetContext(ctx, &row, query, cacheID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("get cache entry %s: %w", cacheID, err)
	}
	record, err := rowToRecord(row)
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *postgresStore) bestOfSession(ctx context.Context, sessionID string) (Record, bool, error) {
	const query = `
SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload
FROM timetable_cache_entries WHERE session_id = $1 ORDER BY fitness DESC, cache_id ASC LIMIT 1`

	var row cacheRow
	if err := s.db.GetContext(ctx, &row, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("best_of_session %s: %w", sessionID, err)
	}
	record, err := rowToRecord(row)
	if err != nil {
		return Record{}, false, err
	}
	return record, true, nil
}

func (s *postgresStore) populationOf(ctx context.Context, sessionID string, generation int) ([]Record, error) {
	const query = `
SELECT cache_id, session_id, generation, fitness, created_at, schema_version, payload
FROM timetable_cache_entries WHERE session_id = $1 AND generation = $2 ORDER BY fitness DESC, cache_id ASC`

	var rows []cacheRow
	if err := s.db.SelectContext(ctx, &rows, query, sessionID, generation); err != nil {
		return nil, fmt.Errorf("population_of %s gen %d: %w", sessionID, generation, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *postgresStore) completeSession(ctx context.Context, sessionID string, keepBest bool) error {
	if !keepBest {
		_, err := s.db.ExecContext(ctx, `DELETE FROM timetable_cache_entries WHERE session_id = $1`, sessionID)
		if err != nil {
			return fmt.Errorf("complete_session delete-all %s: %w", sessionID, err)
		}
		return nil
	}

	const query = `
DELETE FROM timetable_cache_entries
WHERE session_id = $1 AND cache_id NOT IN (
	SELECT cache_id FROM timetable_cache_entries WHERE session_id = $1 ORDER BY fitness DESC, cache_id ASC LIMIT 1
)`
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("complete_session keep-best %s: %w", sessionID, err)
	}
	return nil
}

func (s *postgresStore) stats(ctx context.Context) (Stats, error) {
	var total struct {
		Count int   `db:"count"`
		Bytes int64 `db:"bytes"`
	}
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) AS count, COALESCE(SUM(octet_length(payload::text)), 0) AS bytes FROM timetable_cache_entries`); err != nil {
		return Stats{}, fmt.Errorf("stats totals: %w", err)
	}

	type perSessionRow struct {
		SessionID string `db:"session_id"`
		Count     int    `db:"count"`
		Bytes     int64  `db:"bytes"`
	}
	var perSession []perSessionRow
	const query = `
SELECT session_id, COUNT(*) AS count, COALESCE(SUM(octet_length(payload::text)), 0) AS bytes
FROM timetable_cache_entries GROUP BY session_id`
	if err := s.db.SelectContext(ctx, &perSession, query); err != nil {
		return Stats{}, fmt.Errorf("stats per-session: %w", err)
	}

	summaries := make([]SessionSummary, 0, len(perSession))
	for _, row := range perSession {
		summaries = append(summaries, SessionSummary{SessionID: row.SessionID, EntryCount: row.Count, TotalBytes: row.Bytes})
	}

	return Stats{TotalEntries: total.Count, TotalBytes: total.Bytes, PerSession: summaries}, nil
}

// evictOlderThan deletes non-best entries older than cutoff, part of
// the §4.6 eviction policy (max age). The best entry of a session
// (highest fitness) is always retained even past cutoff.
func (s *postgresStore) evictOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
DELETE FROM timetable_cache_entries e
WHERE e.created_at < $1
AND e.cache_id NOT IN (
	SELECT cache_id FROM timetable_cache_entries b
	WHERE b.session_id = e.session_id
	ORDER BY b.fitness DESC, b.cache_id ASC LIMIT 1
)`
	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict older than %s: %w", cutoff, err)
	}
	return res.RowsAffected()
}

// evictToMaxBytes deletes the oldest non-best entries until the total
// payload size is at or under maxBytes (§4.6 max total size).
func (s *postgresStore) evictToMaxBytes(ctx context.Context, maxBytes int64) (int64, error) {
	const query = `
DELETE FROM timetable_cache_entries
WHERE cache_id IN (
	SELECT e.cache_id FROM timetable_cache_entries e
	WHERE e.cache_id NOT IN (
		SELECT cache_id FROM timetable_cache_entries b
		WHERE b.session_id = e.session_id
		ORDER BY b.fitness DESC, b.cache_id ASC LIMIT 1
	)
	ORDER BY e.created_at ASC
	LIMIT 1
)`
	var removed int64
	for {
		stats, err := s.stats(ctx)
		if err != nil {
			return removed, err
		}
		if stats.TotalBytes <= maxBytes {
			return removed, nil
		}
		res, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return removed, fmt.Errorf("evict to max bytes: %w", err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			return removed, nil // nothing left evictable (everything is a session's best)
		}
		removed += affected
	}
}

func rowToRecord(row cacheRow) (Record, error) {
	var tt domain.Timetable
	if err := json.Unmarshal(row.Payload, &tt); err != nil {
		return Record{}, fmt.Errorf("unmarshal cache payload %s: %w", row.CacheID, err)
	}
	return Record{
		SchemaVersion: row.SchemaVersion,
		CacheID:       row.CacheID,
		SessionID:     row.SessionID,
		Generation:    row.Generation,
		Fitness:       row.Fitness,
		CreatedAt:     row.CreatedAt,
		Timetable:     tt,
	}, nil
}

func newCacheID() string {
	return uuid.NewString()
}
