package models

import "time"

// RefreshToken is one persisted refresh-token grant, correlated with the
// signed token through JTI. Records are revoked, never deleted.
type RefreshToken struct {
	ID        string
	JTI       string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Expired reports whether the store-side expiry has passed at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
