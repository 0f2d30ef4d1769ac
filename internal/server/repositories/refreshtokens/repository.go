// Package refreshtokens declares the server-side repository contract for
// refresh-token records and its PostgreSQL implementation.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// Repository stores refresh-token records. Each method is one SQL statement.
type Repository interface {
	// Create inserts token and fills in ID, Revoked and timestamps.
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)

	// FindByJTI returns the record for jti or common.ErrorNotFound.
	FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)

	// Revoke marks the record for jti revoked. Revoking an absent or already
	// revoked record is not an error.
	Revoke(ctx context.Context, jti string) error

	// RevokeAllForUser revokes every active record of userID and returns how
	// many changed.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)

	// ListByUser returns userID's records, newest first.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.RefreshToken, error)

	// DeleteExpired removes records whose expiry is before now and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
