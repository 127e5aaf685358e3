package partner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	cacheKeyByID  = "partner:id:"
	cacheKeyByKey = "partner:key:"
)

// CachedRepository serves partner lookups from Redis and falls back to the
// wrapped repository on a miss or any Redis failure. Misses for unknown
// partners are not cached so newly provisioned partners are picked up
// without waiting for the TTL.
type CachedRepository struct {
	next   Repository
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedRepository(next Repository, client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *CachedRepository {
	return &CachedRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *CachedRepository) ByAPIKey(ctx context.Context, rawKey string) (*Config, error) {
	key := cacheKeyByKey + HashAPIKey(rawKey)
	return r.lookup(ctx, key, func() (*Config, error) { return r.next.ByAPIKey(ctx, rawKey) })
}

func (r *CachedRepository) ByID(ctx context.Context, partnerID string) (*Config, error) {
	key := cacheKeyByID + partnerID
	return r.lookup(ctx, key, func() (*Config, error) { return r.next.ByID(ctx, partnerID) })
}

func (r *CachedRepository) lookup(ctx context.Context, key string, load func() (*Config, error)) (*Config, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c Config
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return &c, nil
		}
		r.logger.Warn().Str("key", key).Msg("discarding undecodable partner cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("key", key).Msg("partner cache read failed")
	}

	c, err := load()
	if err != nil || c == nil {
		return c, err
	}

	data, err := json.Marshal(c)
	if err == nil {
		if serr := r.client.Set(ctx, key, data, r.ttl).Err(); serr != nil {
			r.logger.Warn().Err(serr).Str("key", key).Msg("partner cache write failed")
		}
	}
	return c, nil
}
