// Package users declares the identity store and its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository persists user identities. Lookups of absent users return
// common.ErrorNotFound.
type Repository interface {
	// Create inserts user and fills in ID and timestamps. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// Delete removes the user and, by cascade, its refresh tokens.
	Delete(ctx context.Context, id string) error
}
