package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisIndex holds the fast-path best_of_session and population_of
// indexes. These never need durability — Postgres is the source of
// truth — so a failed write here is logged and ignored rather than
// propagated (SPEC_FULL §4.6 "Cache I/O: log and continue").
type redisIndex struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func newRedisIndex(client *redis.Client, logger *zap.Logger, ttl time.Duration) *redisIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisIndex{client: client, logger: logger, ttl: ttl}
}

func bestKey(sessionID string) string {
	return fmt.Sprintf("tt:best:%s", sessionID)
}

func populationKey(sessionID string, generation int) string {
	return fmt.Sprintf("tt:population:%s:%d", sessionID, generation)
}

// recordBest keeps a sorted set of (cacheID, fitness) per session so
// the current best is a cheap ZREVRANGE instead of a Postgres scan.
func (idx *redisIndex) recordBest(ctx context.Context, sessionID, cacheID string, fitness float64) {
	if idx.client == nil {
		return
	}
	key := bestKey(sessionID)
	if err := idx.client.ZAdd(ctx, key, redis.Z{Score: fitness, Member: cacheID}).Err(); err != nil {
		idx.logger.Warn("redis best-of-session write failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	idx.client.Expire(ctx, key, idx.ttl)
}

// bestCacheID returns the highest-fitness cache id recorded for a
// session, or ("", false) on a miss or Redis failure — callers must
// fall back to Postgres in either case.
func (idx *redisIndex) bestCacheID(ctx context.Context, sessionID string) (string, bool) {
	if idx.client == nil {
		return "", false
	}
	result, err := idx.client.ZRevRangeWithScores(ctx, bestKey(sessionID), 0, 0).Result()
	if err != nil {
		idx.logger.Warn("redis best-of-session read failed", zap.String("session_id", sessionID), zap.Error(err))
		return "", false
	}
	if len(result) == 0 {
		return "", false
	}
	member, ok := result[0].Member.(string)
	return member, ok
}

// recordPopulation indexes the cache ids belonging to one generation
// as a simple set, refreshed on every store.
func (idx *redisIndex) recordPopulation(ctx context.Context, sessionID string, generation int, cacheID string) {
	if idx.client == nil {
		return
	}
	key := populationKey(sessionID, generation)
	if err := idx.client.SAdd(ctx, key, cacheID).Err(); err != nil {
		idx.logger.Warn("redis population index write failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	idx.client.Expire(ctx, key, idx.ttl)
}

func (idx *redisIndex) populationCacheIDs(ctx context.Context, sessionID string, generation int) ([]string, bool) {
	if idx.client == nil {
		return nil, false
	}
	ids, err := idx.client.SMembers(ctx, populationKey(sessionID, generation)).Result()
	if err != nil {
		idx.logger.Warn("redis population index read failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

func (idx *redisIndex) dropSession(ctx context.Context, sessionID string) {
	if idx.client == nil {
		return
	}
	if err := idx.client.Del(ctx, bestKey(sessionID)).Err(); err != nil {
		idx.logger.Warn("redis session index cleanup failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
