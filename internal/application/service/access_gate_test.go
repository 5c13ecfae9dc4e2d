package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/domain/models"
	domainservice "github.com/redlinehq/redline/internal/domain/service"
	"github.com/redlinehq/redline/internal/infrastructure/crypto"
	"github.com/redlinehq/redline/internal/infrastructure/memstore"
	"github.com/redlinehq/redline/internal/infrastructure/monitoring"
	"github.com/redlinehq/redline/internal/infrastructure/persistence/gormstore"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

// countingTokenService wraps the real token service to observe call order.
type countingTokenService struct {
	domainservice.TokenService
	verifyCalls int
}

func (c *countingTokenService) Verify(ctx context.Context, tokenString string) (models.Claims, error) {
	c.verifyCalls++
	return c.TokenService.Verify(ctx, tokenString)
}

type gateFixture struct {
	gate   *AccessGate
	tokens *countingTokenService
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormstore.Migrate(db))

	log := logger.NewNop()
	tokens := &countingTokenService{
		TokenService: crypto.NewJWTManager(config.AuthConfig{
			Secret:    "gate-test-secret",
			Algorithm: "HS256",
			Enabled:   true,
		}, log),
	}

	gate := NewAccessGate(
		tokens,
		gormstore.NewRevocationRepository(db, log),
		gormstore.NewResetTokenRepository(db, log),
		memstore.New(),
		monitoring.NewMetrics(prometheus.NewRegistry()),
		log,
	)
	return &gateFixture{gate: gate, tokens: tokens}
}

func (f *gateFixture) issue(t *testing.T, claims models.Claims, ttl time.Duration) string {
	t.Helper()
	token, err := f.tokens.TokenService.Issue(context.Background(), claims, ttl)
	require.NoError(t, err)
	return token
}

var wideLimit = RateLimit{MaxCalls: 100, Period: time.Minute}

func TestAuthorizeHappyPath(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	token := f.issue(t, models.Claims{"sub": "reviewer-1", "role": "user"}, time.Minute)

	claims, err := f.gate.Authorize(ctx, token, "documents:read", wideLimit)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", claims.Subject())
	assert.Equal(t, models.RoleUser, claims.Role())
}

func TestRateLimitDenialNeverReachesVerification(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	token := f.issue(t, models.Claims{"sub": "x"}, time.Minute)
	tight := RateLimit{MaxCalls: 1, Period: time.Minute}

	_, err := f.gate.Authorize(ctx, token, "documents:export", tight)
	require.NoError(t, err)
	require.Equal(t, 1, f.tokens.verifyCalls)

	_, err = f.gate.Authorize(ctx, token, "documents:export", tight)
	assert.ErrorIs(t, err, errors.ErrRateLimited)
	assert.Equal(t, 1, f.tokens.verifyCalls, "verify must not run after a rate denial")
}

func TestVerificationErrorKindsPropagateUnchanged(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	expired := f.issue(t, models.Claims{"sub": "x"}, -time.Minute)

	_, err := f.gate.Authorize(ctx, expired, "documents:read", wideLimit)
	assert.ErrorIs(t, err, errors.ErrTokenExpired)

	_, err = f.gate.Authorize(ctx, "garbage", "documents:read", wideLimit)
	assert.ErrorIs(t, err, errors.ErrTokenMalformed)
}

func TestRevokeThenAuthorize(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	token := f.issue(t, models.Claims{"sub": "x"}, time.Minute)

	claims, err := f.gate.Authorize(ctx, token, "documents:read", wideLimit)
	require.NoError(t, err)

	require.NoError(t, f.gate.Revoke(ctx, token))

	_, err = f.gate.Authorize(ctx, token, "documents:read", wideLimit)
	assert.ErrorIs(t, err, errors.ErrTokenRevoked)

	// Blacklisting the same token twice is a conflict.
	err = f.gate.Revoke(ctx, token)
	assert.ErrorIs(t, err, errors.ErrDuplicateRevocation)

	// Other tokens for the same subject stay valid.
	other := f.issue(t, models.Claims{"sub": claims.Subject()}, time.Minute)
	_, err = f.gate.Authorize(ctx, other, "documents:read", wideLimit)
	assert.NoError(t, err)
}

func TestResetFlowSingleUse(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	token := f.issue(t, models.Claims{"sub": "a@b.com"}, time.Minute)
	const action = "auth:reset-password"

	_, err := f.gate.AuthorizeReset(ctx, token, action, "a@b.com", "n1", wideLimit)
	require.NoError(t, err)

	// The password mutation happens here; on success the use is recorded.
	require.NoError(t, f.gate.CompleteReset(ctx, "a@b.com", "n1"))

	// A replay of the same credential is rejected.
	_, err = f.gate.AuthorizeReset(ctx, token, action, "a@b.com", "n1", wideLimit)
	assert.ErrorIs(t, err, errors.ErrValidation)

	// A different nonce for the same account is unaffected.
	_, err = f.gate.AuthorizeReset(ctx, token, action, "a@b.com", "n2", wideLimit)
	assert.NoError(t, err)
}

func TestCompleteResetValidatesInput(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.gate.CompleteReset(ctx, "", "n1"), errors.ErrValidation)
	assert.ErrorIs(t, f.gate.CompleteReset(ctx, "a@b.com", ""), errors.ErrValidation)
}
