package models

import "time"

// PasswordResetToken is a one-time password recovery grant. Only the hash of
// the secret is stored.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
