package gormstore

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/internal/domain/repository"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

type revocationRepo struct {
	db  *gorm.DB
	log logger.Logger
}

// NewRevocationRepository creates the durable revocation store.
func NewRevocationRepository(db *gorm.DB, log logger.Logger) repository.RevocationRepository {
	return &revocationRepo{db: db, log: log.WithComponent("revocation_repo")}
}

// Blacklist inserts a tombstone. The expiresAt value is stored exactly as
// supplied; normalization to UTC happens only at comparison time in
// IsRevoked, so the stored row preserves the caller's input.
func (r *revocationRepo) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	row := models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.DuplicateRevocation(jti)
		}
		r.log.Error(ctx, "failed to persist tombstone", err, logger.String("jti", jti))
		return errors.Internal("failed to persist revocation").WithCause(err)
	}

	r.log.Info(ctx, "token blacklisted",
		logger.String("jti", jti),
		logger.Time("expires_at", expiresAt))
	return nil
}

// IsRevoked reports whether an active tombstone exists for jti. Tombstones
// whose expiry has passed read as not revoked: past that moment token
// verification already rejects the token on expiry grounds, so the
// question is moot and the table needs no purge job.
func (r *revocationRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var row models.RevokedToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&row).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errors.Internal("failed to query revocation").WithCause(err)
	}
	return row.Active(time.Now()), nil
}
