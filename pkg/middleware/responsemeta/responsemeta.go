// Package responsemeta tracks per-request metadata (processing time,
// cache hit/miss) on the gin context so handlers can fold it into
// pkg/response's Envelope.Meta, adapted from the teacher's
// WithResponseMeta middleware.
package responsemeta

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey     = "response_meta"
	cacheHitKey = "cache_hit"
)

// Middleware initializes response metadata storage on the request
// context and stamps processing_time_ms once the handler returns.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
		duration := time.Since(start)
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = duration.Milliseconds()
		}
	}
}

// SetCacheHit records whether the current request found its data in the
// C6 cache (Redis fast path or Postgres).
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// Extract returns the metadata map stored on the context, or nil.
func Extract(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(metaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(metaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(metaKey, newMeta)
	return newMeta
}
