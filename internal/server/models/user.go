package models

import "time"

// User is an identity record. Email is unique; PasswordHash is only ever
// replaced by a completed password reset.
type User struct {
	ID           string
	Email        string
	Name         *string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName returns the user's name or an empty string when none was given.
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
