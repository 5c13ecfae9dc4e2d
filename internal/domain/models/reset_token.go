package models

import "time"

// UsedResetToken records the consumption of a password-reset credential
// identified by (email, nonce). The pair is deliberately not a unique
// index: see the ResetTokenRepository docs for the concurrency caveat.
type UsedResetToken struct {
	ID     uint      `gorm:"primaryKey"`
	Email  string    `gorm:"index;not null"`
	Nonce  string    `gorm:"index;not null"`
	UsedAt time.Time `gorm:"not null"`
}

// TableName maps the entity onto the collaborator-owned schema.
func (UsedResetToken) TableName() string { return "used_password_reset_tokens" }
