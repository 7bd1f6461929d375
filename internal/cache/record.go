// Package cache implements the persistence half of C6: a
// content-addressed, session-indexed store for generated timetables.
// Postgres is the durable record store; Redis backs the fast-path
// best_of_session/population_of indexes. A failed Redis write is
// logged and ignored — Postgres remains the source of truth.
package cache

import (
	"time"

	"github.com/classplan/timetable-solver/internal/domain"
)

// schemaVersion is stamped on every record so future format changes
// can be migrated without guessing at payload shape.
const schemaVersion = 1

// Record is one self-describing cached entry: schema version, cache
// id, session id, generation, fitness, timestamp and the Timetable
// value itself (SPEC_FULL §6 "Persisted state layout").
type Record struct {
	SchemaVersion int             `json:"schemaVersion" db:"schema_version"`
	CacheID       string          `json:"cacheId" db:"cache_id"`
	SessionID     string          `json:"sessionId" db:"session_id"`
	Generation    int             `json:"generation" db:"generation"`
	Fitness       float64         `json:"fitness" db:"fitness"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	Timetable     domain.Timetable `json:"timetable" db:"-"`
}

// SessionSummary is one session's contribution to Stats.
type SessionSummary struct {
	SessionID    string `json:"sessionId"`
	EntryCount   int    `json:"entryCount"`
	TotalBytes   int64  `json:"totalBytes"`
}

// Stats is the aggregate cache report from SPEC_FULL §4.6.
type Stats struct {
	TotalEntries int              `json:"totalEntries"`
	TotalBytes   int64            `json:"totalBytes"`
	PerSession   []SessionSummary `json:"perSessionSummary"`
}
