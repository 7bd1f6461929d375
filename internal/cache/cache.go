package cache

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/classplan/timetable-solver/internal/domain"
	"github.com/classplan/timetable-solver/pkg/config"
	"github.com/classplan/timetable-solver/pkg/metrics"
)

// Store is the public C6 cache contract: a content-addressed,
// session-indexed record of generated timetables backed by Postgres
// (durable, source of truth) with a Redis fast path for the two hot
// queries — best_of_session and population_of.
type Store struct {
	postgres *postgresStore
	redis    *redisIndex
	logger   *zap.Logger
	metrics  *metrics.Metrics
	maxAge   time.Duration
	maxBytes int64
}

// New wires a Store from live Postgres/Redis handles and the service's
// cache tuning. redisClient may be nil, in which case the fast path is
// skipped and every read falls through to Postgres. m may be nil; every
// Metrics method is a no-op on a nil receiver.
func New(db *sqlx.DB, redisClient *redis.Client, cfg config.CacheConfig, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		postgres: newPostgresStore(db),
		redis:    newRedisIndex(redisClient, logger, cfg.MaxAge),
		logger:   logger,
		metrics:  m,
		maxAge:   cfg.MaxAge,
		maxBytes: cfg.MaxBytes,
	}
}

// StoredAt lets tests and the solve orchestrator stamp CreatedAt
// deterministically instead of relying on time.Now() inside Store.
type StoredAt = time.Time

// Store persists a Timetable under a new content-addressed cache id
// and refreshes the Redis fast-path indexes. Returns the assigned
// cache id.
func (s *Store) Store(ctx context.Context, sessionID string, generation int, fitness float64, tt domain.Timetable, createdAt StoredAt) (string, error) {
	start := time.Now()
	record := Record{
		SchemaVersion: schemaVersion,
		CacheID:       newCacheID(),
		SessionID:     sessionID,
		Generation:    generation,
		Fitness:       fitness,
		CreatedAt:     createdAt,
		Timetable:     tt,
	}

	if err := s.postgres.insert(ctx, record); err != nil {
		return "", err
	}
	s.metrics.ObserveCacheWrite(time.Since(start))

	s.redis.recordBest(ctx, sessionID, record.CacheID, fitness)
	s.redis.recordPopulation(ctx, sessionID, generation, record.CacheID)

	return record.CacheID, nil
}

// Retrieve fetches one cached timetable by cache id. Absence is not an
// error: ok is false and err is nil on a miss.
func (s *Store) Retrieve(ctx context.Context, cacheID string) (domain.Timetable, bool, error) {
	record, ok, err := s.postgres.get(ctx, cacheID)
	if err != nil || !ok {
		return domain.Timetable{}, ok, err
	}
	return record.Timetable, true, nil
}

// BestOfSession returns the highest-fitness timetable stored for a
// session. It tries the Redis index first and falls back to a
// Postgres scan on a miss or Redis failure.
func (s *Store) BestOfSession(ctx context.Context, sessionID string) (domain.Timetable, bool, error) {
	if cacheID, ok := s.redis.bestCacheID(ctx, sessionID); ok {
		if tt, found, err := s.Retrieve(ctx, cacheID); err == nil && found {
			s.metrics.RecordCacheLookup(true)
			return tt, true, nil
		}
	}

	s.metrics.RecordCacheLookup(false)
	record, ok, err := s.postgres.bestOfSession(ctx, sessionID)
	if err != nil || !ok {
		return domain.Timetable{}, ok, err
	}
	return record.Timetable, true, nil
}

// PopulationOf returns every timetable cached for a session/generation
// pair, best fitness first.
func (s *Store) PopulationOf(ctx context.Context, sessionID string, generation int) ([]domain.Timetable, error) {
	if ids, ok := s.redis.populationCacheIDs(ctx, sessionID, generation); ok {
		records := make([]Record, 0, len(ids))
		complete := true
		for _, id := range ids {
			record, found, err := s.postgres.get(ctx, id)
			if err != nil || !found {
				complete = false
				break
			}
			records = append(records, record)
		}
		if complete {
			// Redis set members carry no order; match the Postgres ordering.
			sort.Slice(records, func(i, j int) bool {
				if records[i].Fitness != records[j].Fitness {
					return records[i].Fitness > records[j].Fitness
				}
				return records[i].CacheID < records[j].CacheID
			})
			timetables := make([]domain.Timetable, 0, len(records))
			for _, r := range records {
				timetables = append(timetables, r.Timetable)
			}
			s.metrics.RecordCacheLookup(true)
			return timetables, nil
		}
	}

	s.metrics.RecordCacheLookup(false)
	records, err := s.postgres.populationOf(ctx, sessionID, generation)
	if err != nil {
		return nil, err
	}
	timetables := make([]domain.Timetable, 0, len(records))
	for _, r := range records {
		timetables = append(timetables, r.Timetable)
	}
	return timetables, nil
}

// CompleteSession closes out a solve session's cache entries. When
// keepBest is true the highest-fitness entry survives; otherwise every
// entry for the session is removed.
func (s *Store) CompleteSession(ctx context.Context, sessionID string, keepBest bool) error {
	if err := s.postgres.completeSession(ctx, sessionID, keepBest); err != nil {
		return err
	}
	s.redis.dropSession(ctx, sessionID)
	return nil
}

// Stats reports the aggregate cache footprint (§4.6).
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.postgres.stats(ctx)
	if err != nil {
		return stats, err
	}
	s.metrics.SetCacheEntries(stats.TotalEntries)
	return stats, nil
}

// Evict runs the configured age/size eviction policy and returns the
// total number of rows removed. A session's best entry is never
// evicted by either rule.
func (s *Store) Evict(ctx context.Context, now time.Time) (int64, error) {
	var removed int64

	if s.maxAge > 0 {
		n, err := s.postgres.evictOlderThan(ctx, now.Add(-s.maxAge))
		if err != nil {
			return removed, err
		}
		removed += n
	}

	if s.maxBytes > 0 {
		n, err := s.postgres.evictToMaxBytes(ctx, s.maxBytes)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	return removed, nil
}
