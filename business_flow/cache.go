package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/redis/go-redis/v9"
)

// ResolutionCache keeps the active content version of a code in Redis so the
// default step of the cascade avoids a database read on hot codes. Every
// method is a no-op when no Redis client is configured, and cache failures
// degrade to a database read.
type ResolutionCache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewResolutionCache creates a resolution cache. rc may be nil.
func NewResolutionCache(rc *redis.Client, ttl time.Duration) *ResolutionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ResolutionCache{rc: rc, ttl: ttl}
}

func (c *ResolutionCache) key(codeID uint) string {
	return fmt.Sprintf("dyn:active:%d", codeID)
}

// GetActiveVersion returns the cached active version of a code, if present
func (c *ResolutionCache) GetActiveVersion(ctx context.Context, codeID uint) (*models.ContentVersion, bool) {
	if c == nil || c.rc == nil {
		return nil, false
	}
	raw, err := c.rc.Get(ctx, c.key(codeID)).Bytes()
	if err != nil {
		return nil, false
	}
	var v models.ContentVersion
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// SetActiveVersion stores the active version of a code with the cache TTL
func (c *ResolutionCache) SetActiveVersion(ctx context.Context, codeID uint, v *models.ContentVersion) {
	if c == nil || c.rc == nil || v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rc.Set(ctx, c.key(codeID), raw, c.ttl).Err()
}

// Invalidate drops the cached active version of a code. Called by every
// mutating content version operation.
func (c *ResolutionCache) Invalidate(ctx context.Context, codeID uint) {
	if c == nil || c.rc == nil {
		return
	}
	_ = c.rc.Del(ctx, c.key(codeID)).Err()
}
