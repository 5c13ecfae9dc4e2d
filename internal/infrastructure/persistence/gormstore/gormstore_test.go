package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestRevocationLifecycle(t *testing.T) {
	repo := NewRevocationRepository(newTestDB(t), logger.NewNop())
	ctx := context.Background()

	// An active tombstone reads as revoked.
	require.NoError(t, repo.Blacklist(ctx, "abc", time.Now().Add(10*time.Minute)))
	revoked, err := repo.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	// A tombstone whose expiry has passed reads as not revoked.
	require.NoError(t, repo.Blacklist(ctx, "xyz", time.Now().Add(-time.Minute)))
	revoked, err = repo.IsRevoked(ctx, "xyz")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Unknown jti reads as not revoked.
	revoked, err = repo.IsRevoked(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistDuplicateJTIConflicts(t *testing.T) {
	repo := NewRevocationRepository(newTestDB(t), logger.NewNop())
	ctx := context.Background()

	expiresAt := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.Blacklist(ctx, "dup", expiresAt))

	err := repo.Blacklist(ctx, "dup", expiresAt)
	assert.ErrorIs(t, err, errors.ErrDuplicateRevocation)
}

func TestBlacklistStoresExpiryAsSupplied(t *testing.T) {
	db := newTestDB(t)
	repo := NewRevocationRepository(db, logger.NewNop())
	ctx := context.Background()

	loc := time.FixedZone("UTC+7", 7*3600)
	supplied := time.Date(2026, 9, 1, 10, 0, 0, 0, loc)
	require.NoError(t, repo.Blacklist(ctx, "zoned", supplied))

	var row models.RevokedToken
	require.NoError(t, db.Where("jti = ?", "zoned").First(&row).Error)
	assert.True(t, row.ExpiresAt.Equal(supplied), "stored instant must match input")
}

func TestRecordUseAndConsumed(t *testing.T) {
	repo := NewResetTokenRepository(newTestDB(t), logger.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.RecordUse(ctx, "a@b.com", "n1", time.Now()))

	consumed, err := repo.Consumed(ctx, "a@b.com", "n1")
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = repo.Consumed(ctx, "a@b.com", "other")
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = repo.Consumed(ctx, "other@b.com", "n1")
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestRecordUseValidatesBeforePersistence(t *testing.T) {
	db := newTestDB(t)
	repo := NewResetTokenRepository(db, logger.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, repo.RecordUse(ctx, "", "n1", time.Now()), errors.ErrValidation)
	assert.ErrorIs(t, repo.RecordUse(ctx, "a@b.com", "", time.Now()), errors.ErrValidation)

	// Nothing reached the ledger.
	var count int64
	require.NoError(t, db.Model(&models.UsedResetToken{}).Count(&count).Error)
	assert.Zero(t, count)
}
