package repository

import (
	"context"
	"time"
)

// ResetTokenRepository is the one-time-use ledger for password-reset
// credentials.
//
// Callers check Consumed before performing the reset and call RecordUse
// after it succeeds. The check and the insert are not atomic: two
// concurrent redemptions of the same (email, nonce) can both pass the
// Consumed check and both be recorded. The window is a single reset flow's
// database round trip; the schema keeps non-unique indexes so the second
// RecordUse cannot fail mid-flow.
type ResetTokenRepository interface {
	// RecordUse durably marks (email, nonce) as consumed at usedAt. Empty
	// email or nonce fails with errors.ErrValidation before any I/O.
	RecordUse(ctx context.Context, email, nonce string, usedAt time.Time) error

	// Consumed reports whether any prior record exists for (email, nonce).
	Consumed(ctx context.Context, email, nonce string) (bool, error)
}
