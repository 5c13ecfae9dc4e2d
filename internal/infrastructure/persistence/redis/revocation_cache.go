// Package redis layers a redis read-aside cache over the durable
// revocation store so the hot path of IsRevoked rarely reaches the
// database. The cache is an optimization, never the source of truth.
package redis

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/redlinehq/redline/internal/domain/repository"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/logger"
)

// RevocationPublisher broadcasts a revocation to peer instances. Optional.
type RevocationPublisher interface {
	PublishRevocation(ctx context.Context, jti string, expiresAt time.Time) error
}

type revocationCache struct {
	rdb       redis.UniversalClient
	durable   repository.RevocationRepository
	local     *gocache.Cache // fallback when redis is unreachable
	group     singleflight.Group
	publisher RevocationPublisher
	log       logger.Logger
}

// NewRevocationCache decorates durable with a write-through redis layer.
// Cached keys expire together with the original token, mirroring the
// tombstone's own lifetime. publisher may be nil.
func NewRevocationCache(
	rdb redis.UniversalClient,
	durable repository.RevocationRepository,
	publisher RevocationPublisher,
	log logger.Logger,
) repository.RevocationRepository {
	return &revocationCache{
		rdb:       rdb,
		durable:   durable,
		local:     gocache.New(time.Minute, 5*time.Minute),
		publisher: publisher,
		log:       log.WithComponent("revocation_cache"),
	}
}

func cacheKey(jti string) string { return constants.RevocationKeyPrefix + jti }

// Blacklist writes the tombstone durably first; the duplicate check lives
// in the durable store and must win before any cache or fan-out write.
func (c *revocationCache) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := c.durable.Blacklist(ctx, jti, expiresAt); err != nil {
		return err
	}

	ttl := time.Until(expiresAt)
	if ttl > 0 {
		if err := c.rdb.Set(ctx, cacheKey(jti), "1", ttl).Err(); err != nil {
			// Durable write already succeeded; the cache will repopulate on
			// the next lookup.
			c.log.Warn(ctx, "failed to cache tombstone in redis",
				logger.String("jti", jti), logger.Err(err))
		}
		c.local.Set(cacheKey(jti), true, ttl)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishRevocation(ctx, jti, expiresAt); err != nil {
			c.log.Warn(ctx, "failed to publish revocation event",
				logger.String("jti", jti), logger.Err(err))
		}
	}
	return nil
}

// IsRevoked consults redis, then the durable store. Durable lookups for one
// jti are deduplicated through singleflight so a burst of checks during a
// cold cache costs one query. On redis failure the local in-process cache
// answers positives before falling through to the database.
func (c *revocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, cacheKey(jti)).Result()
	if err == nil && n == 1 {
		return true, nil
	}
	if err != nil {
		c.log.Warn(ctx, "redis revocation lookup failed, using fallback",
			logger.String("jti", jti), logger.Err(err))
		if _, found := c.local.Get(cacheKey(jti)); found {
			return true, nil
		}
	}

	v, err, _ := c.group.Do(jti, func() (any, error) {
		revoked, err := c.durable.IsRevoked(ctx, jti)
		if err != nil {
			return false, err
		}
		if revoked {
			// Repopulate with a bounded ttl; the tombstone's true expiry is
			// not known here, so the entry is refreshed on later misses.
			c.rdb.Set(ctx, cacheKey(jti), "1", time.Minute)
			c.local.Set(cacheKey(jti), true, time.Minute)
		}
		return revoked, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
