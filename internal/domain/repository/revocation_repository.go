// Package repository defines the persistence ports of the auth core. The
// collaborator behind them owns durable storage and its transaction
// boundaries; implementations issue individual operations only.
package repository

import (
	"context"
	"time"
)

// RevocationRepository records and answers token revocations by jti.
type RevocationRepository interface {
	// Blacklist persists a tombstone for jti lasting until expiresAt.
	// Blacklisting an already-revoked jti fails with
	// errors.ErrDuplicateRevocation.
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether jti has a tombstone whose expiry is still
	// strictly in the future. An expired tombstone reads as not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
