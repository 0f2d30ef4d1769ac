// Package models holds the server-side persistent records.
package models

import "time"

// RefreshToken is the stored record behind a refresh token, keyed by JTI.
// Revoked only ever goes from false to true and ExpiresAt is fixed at creation.
type RefreshToken struct {
	ID        string
	UserID    string
	JTI       string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
