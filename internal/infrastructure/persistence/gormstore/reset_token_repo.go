package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/internal/domain/repository"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

type resetTokenRepo struct {
	db  *gorm.DB
	log logger.Logger
}

// NewResetTokenRepository creates the one-time-use reset token ledger.
func NewResetTokenRepository(db *gorm.DB, log logger.Logger) repository.ResetTokenRepository {
	return &resetTokenRepo{db: db, log: log.WithComponent("reset_token_repo")}
}

// RecordUse marks (email, nonce) consumed. Input validation happens before
// any persistence attempt, so an empty field never costs a round trip.
func (r *resetTokenRepo) RecordUse(ctx context.Context, email, nonce string, usedAt time.Time) error {
	if email == "" {
		return errors.Validation("email must be a non-empty string")
	}
	if nonce == "" {
		return errors.Validation("nonce must be a non-empty string")
	}

	row := models.UsedResetToken{Email: email, Nonce: nonce, UsedAt: usedAt}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.log.Error(ctx, "failed to record reset token use", err,
			logger.String("email", email))
		return errors.Internal("failed to record reset token use").WithCause(err)
	}

	r.log.Info(ctx, "reset token consumed", logger.String("email", email))
	return nil
}

// Consumed reports whether any record exists for (email, nonce).
func (r *resetTokenRepo) Consumed(ctx context.Context, email, nonce string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UsedResetToken{}).
		Where("email = ? AND nonce = ?", email, nonce).
		Count(&count).Error
	if err != nil {
		return false, errors.Internal("failed to query reset token ledger").WithCause(err)
	}
	return count > 0, nil
}
