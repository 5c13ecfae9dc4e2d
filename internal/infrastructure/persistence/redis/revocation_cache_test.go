package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

// fakeDurable is an in-memory stand-in for the gorm-backed store.
type fakeDurable struct {
	mu      sync.Mutex
	rows    map[string]time.Time
	lookups int
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{rows: make(map[string]time.Time)}
}

func (f *fakeDurable) Blacklist(_ context.Context, jti string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[jti]; ok {
		return errors.DuplicateRevocation(jti)
	}
	f.rows[jti] = expiresAt
	return nil
}

func (f *fakeDurable) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	exp, ok := f.rows[jti]
	return ok && exp.UTC().After(time.Now().UTC()), nil
}

func (f *fakeDurable) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func setup(t *testing.T) (*miniredis.Miniredis, *goredis.Client, *fakeDurable, *revocationCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	durable := newFakeDurable()
	cache := NewRevocationCache(client, durable, nil, logger.NewNop()).(*revocationCache)
	return mr, client, durable, cache
}

func TestBlacklistWritesThroughToRedis(t *testing.T) {
	mr, _, durable, cache := setup(t)
	ctx := context.Background()

	require.NoError(t, cache.Blacklist(ctx, "jti-1", time.Now().Add(10*time.Minute)))

	assert.True(t, mr.Exists(cacheKey("jti-1")))

	// Redis answers; the durable store is not consulted.
	revoked, err := cache.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, durable.lookupCount())
}

func TestDuplicateBlacklistStopsBeforeCache(t *testing.T) {
	mr, _, _, cache := setup(t)
	ctx := context.Background()

	require.NoError(t, cache.Blacklist(ctx, "dup", time.Now().Add(10*time.Minute)))
	mr.FlushAll()

	err := cache.Blacklist(ctx, "dup", time.Now().Add(10*time.Minute))
	assert.ErrorIs(t, err, errors.ErrDuplicateRevocation)
	assert.False(t, mr.Exists(cacheKey("dup")), "conflicting write must not repopulate the cache")
}

func TestColdCacheFallsThroughToDurable(t *testing.T) {
	mr, _, durable, cache := setup(t)
	ctx := context.Background()

	require.NoError(t, durable.Blacklist(ctx, "cold", time.Now().Add(10*time.Minute)))

	revoked, err := cache.IsRevoked(ctx, "cold")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 1, durable.lookupCount())

	// The lookup repopulated redis; the next check stays off the database.
	assert.True(t, mr.Exists(cacheKey("cold")))
	revoked, err = cache.IsRevoked(ctx, "cold")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 1, durable.lookupCount())
}

func TestNotRevokedIsNotCached(t *testing.T) {
	mr, _, _, cache := setup(t)
	ctx := context.Background()

	revoked, err := cache.IsRevoked(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.False(t, mr.Exists(cacheKey("unknown")))
}

func TestRedisOutageUsesLocalFallback(t *testing.T) {
	mr, _, durable, cache := setup(t)
	ctx := context.Background()

	require.NoError(t, cache.Blacklist(ctx, "jti-2", time.Now().Add(10*time.Minute)))
	mr.Close()

	// Redis is gone; the local go-cache copy still answers, and positives
	// never degrade to a durable miss.
	revoked, err := cache.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, durable.lookupCount())
}

func TestExpiredTombstoneReadsNotRevoked(t *testing.T) {
	_, _, durable, cache := setup(t)
	ctx := context.Background()

	require.NoError(t, durable.Blacklist(ctx, "stale", time.Now().Add(-time.Minute)))

	revoked, err := cache.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)
}
