package models

import (
	"time"
)

// TokenPurpose names the flow a token was issued for.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

// Token is a single-use capability sent by email. It authorizes an action for
// Email, not for a particular account row; the account is resolved by email
// when the token is redeemed.
type Token struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Hash      string       `gorm:"type:varchar(255);uniqueIndex;not null"`
	Email     string       `gorm:"type:varchar(255);index;not null"`
	Purpose   TokenPurpose `gorm:"type:varchar(32);not null"`
	ExpiresAt time.Time    `gorm:"not null;index"`
}

// Expired reports whether the token expiry is strictly before now.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
