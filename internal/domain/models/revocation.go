package models

import "time"

// RevokedToken is a revocation tombstone. A tombstone marks a jti invalid
// until the original token's own expiry; past that point verification
// rejects the token on expiry grounds anyway, so tombstones age out of
// relevance without a purge job.
type RevokedToken struct {
	ID uint `gorm:"primaryKey"`
	// JTI is the revoked token identifier. The unique index makes a second
	// blacklist of the same jti a conflict, never a silent overwrite.
	JTI       string    `gorm:"column:jti;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// TableName maps the entity onto the collaborator-owned schema.
func (RevokedToken) TableName() string { return "blacklisted_tokens" }

// Active reports whether the tombstone still suppresses its token: true
// only while ExpiresAt is strictly in the future. Comparison happens in
// UTC; the stored value keeps whatever location the caller supplied.
func (r RevokedToken) Active(now time.Time) bool {
	return r.ExpiresAt.UTC().After(now.UTC())
}
