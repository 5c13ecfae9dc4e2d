// Package service defines the domain service ports of the auth core.
package service

import (
	"context"
	"time"

	"github.com/redlinehq/redline/internal/domain/models"
)

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	// Issue signs a token carrying claims plus injected jti/iat/exp. The
	// ttl may be negative, producing an already-expired token (used by
	// tests and short-lived handoff links). claims must not pre-populate
	// `exp` or `jti`.
	Issue(ctx context.Context, claims models.Claims, ttl time.Duration) (string, error)

	// Verify validates tokenString and returns its claims. While
	// authentication is administratively disabled it returns a synthetic
	// admin identity for any input without error; real verification errors
	// otherwise carry one of the pkg/errors token kinds.
	Verify(ctx context.Context, tokenString string) (models.Claims, error)
}
