package models

import "time"

// User is a registered identity. Email is unique and compared case-sensitively.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
