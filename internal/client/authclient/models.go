package authclient

import "time"

type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}
