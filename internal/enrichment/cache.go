package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

const episodeKeyPrefix = "ytseo:episode:"

// CachedLookup keeps found episodes in Redis so batch runs do not reopen the
// pipeline database for every video. Redis failures fall through to the store.
type CachedLookup struct {
	next        Lookup
	redisClient *redis.Client
	ttl         time.Duration
	log         *zap.Logger
}

// NewCachedLookup wraps next with a Redis cache.
func NewCachedLookup(next Lookup, redisClient *redis.Client, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedLookup{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		log:         logger.L().Named("enrichment"),
	}
}

func (c *CachedLookup) GetEpisode(ctx context.Context, episodeID string) (*Episode, error) {
	key := episodeKeyPrefix + episodeID

	raw, err := c.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ep Episode
		if jsonErr := json.Unmarshal(raw, &ep); jsonErr == nil {
			return &ep, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("episode cache read failed", zap.String("episodeId", episodeID), zap.Error(err))
	}

	ep, err := c.next.GetEpisode(ctx, episodeID)
	if err != nil || ep == nil {
		return ep, err
	}

	if data, err := json.Marshal(ep); err == nil {
		if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("episode cache write failed", zap.String("episodeId", episodeID), zap.Error(err))
		}
	}

	return ep, nil
}

// SearchByTitle is not cached; it backs interactive mapping only.
func (c *CachedLookup) SearchByTitle(ctx context.Context, title string, limit int) ([]*EpisodeSummary, error) {
	return c.next.SearchByTitle(ctx, title, limit)
}

// Invalidate drops a cached episode.
func (c *CachedLookup) Invalidate(ctx context.Context, episodeID string) error {
	return c.redisClient.Del(ctx, episodeKeyPrefix+episodeID).Err()
}
