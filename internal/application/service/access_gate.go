// Package service contains the application-level orchestration of the auth
// core.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/internal/domain/repository"
	domainservice "github.com/redlinehq/redline/internal/domain/service"
	"github.com/redlinehq/redline/internal/infrastructure/memstore"
	"github.com/redlinehq/redline/internal/infrastructure/monitoring"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

// RateLimit is the per-invocation limit for one action key. Limits are
// caller-supplied per action, not globally fixed.
type RateLimit struct {
	MaxCalls int
	Period   time.Duration
}

// AccessGate answers "is this action authorized right now". One invocation
// runs rate-limit, verification, revocation and (for reset actions) ledger
// checks strictly in that order: each step gates the more expensive one
// behind it, and a rate-limit denial never reaches the token service.
//
// A rate-limit slot consumed by an invocation whose later steps fail, or
// whose context is cancelled mid-flow, is not refunded.
type AccessGate struct {
	tokens      domainservice.TokenService
	revocations repository.RevocationRepository
	ledger      repository.ResetTokenRepository
	limiter     *memstore.Store
	metrics     *monitoring.Metrics
	tracer      trace.Tracer
	log         logger.Logger
}

// NewAccessGate wires the gate from its collaborators.
func NewAccessGate(
	tokens domainservice.TokenService,
	revocations repository.RevocationRepository,
	ledger repository.ResetTokenRepository,
	limiter *memstore.Store,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *AccessGate {
	return &AccessGate{
		tokens:      tokens,
		revocations: revocations,
		ledger:      ledger,
		limiter:     limiter,
		metrics:     metrics,
		tracer:      otel.Tracer("redline/access_gate"),
		log:         log.WithComponent("access_gate"),
	}
}

// Authorize validates tokenString for one invocation of actionKey and
// returns the verified claims. Verification errors propagate with their
// kind unchanged.
func (g *AccessGate) Authorize(ctx context.Context, tokenString, actionKey string, limit RateLimit) (models.Claims, error) {
	ctx, span := g.tracer.Start(ctx, "access_gate.authorize",
		trace.WithAttributes(attribute.String("action", actionKey)))
	defer span.End()

	if !g.limiter.Allow(actionKey, limit.MaxCalls, limit.Period) {
		g.metrics.RecordRateLimitDenial(actionKey)
		g.metrics.RecordDecision(actionKey, string(errors.KindRateLimited))
		g.log.Warn(ctx, "action rate limited",
			logger.String("action", actionKey), logger.Int("max_calls", limit.MaxCalls))
		return nil, errors.RateLimited(actionKey, limit.MaxCalls)
	}

	claims, err := g.tokens.Verify(ctx, tokenString)
	if err != nil {
		g.metrics.RecordDecision(actionKey, string(errors.KindOf(err)))
		return nil, err
	}

	// The synthetic bypass identity carries no jti and skips the
	// revocation lookup.
	if jti := claims.JTI(); jti != "" {
		revoked, err := g.revocations.IsRevoked(ctx, jti)
		if err != nil {
			g.metrics.RecordDecision(actionKey, string(errors.KindOf(err)))
			return nil, err
		}
		if revoked {
			g.metrics.RecordDecision(actionKey, string(errors.KindTokenRevoked))
			g.log.Warn(ctx, "revoked token presented", logger.String("jti", jti))
			return nil, errors.TokenRevoked(jti)
		}
	}

	g.metrics.RecordDecision(actionKey, "allowed")
	return claims, nil
}

// AuthorizeReset runs Authorize and additionally checks the one-time-use
// ledger for (email, nonce). The caller performs the password mutation and
// then calls CompleteReset; the check and the record are not atomic (see
// repository.ResetTokenRepository).
func (g *AccessGate) AuthorizeReset(ctx context.Context, tokenString, actionKey, email, nonce string, limit RateLimit) (models.Claims, error) {
	claims, err := g.Authorize(ctx, tokenString, actionKey, limit)
	if err != nil {
		return nil, err
	}

	consumed, err := g.ledger.Consumed(ctx, email, nonce)
	if err != nil {
		return nil, err
	}
	if consumed {
		g.metrics.RecordDecision(actionKey, string(errors.KindValidation))
		g.log.Warn(ctx, "reset token replay attempt", logger.String("email", email))
		return nil, errors.Validation("reset token has already been used")
	}
	return claims, nil
}

// CompleteReset records the consumption of a reset credential. Call only
// after the password mutation succeeded.
func (g *AccessGate) CompleteReset(ctx context.Context, email, nonce string) error {
	return g.ledger.RecordUse(ctx, email, nonce, time.Now())
}

// Revoke blacklists the presented token until its own expiry, so the
// tombstone ages out exactly when verification would start rejecting the
// token anyway.
func (g *AccessGate) Revoke(ctx context.Context, tokenString string) error {
	claims, err := g.tokens.Verify(ctx, tokenString)
	if err != nil {
		return err
	}
	jti := claims.JTI()
	if jti == "" {
		return errors.Validation("token carries no jti")
	}

	if err := g.revocations.Blacklist(ctx, jti, claims.ExpiresAt()); err != nil {
		return err
	}
	g.metrics.RecordRevocation()
	return nil
}
