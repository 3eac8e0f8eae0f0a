// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"
)

// Repository defines operations for storing, checking, and revoking refresh tokens.
type Repository interface {
	// Create stores a refresh token for userID valid until expiresAt.
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error

	// Exists reports whether token is stored for userID and has not expired.
	Exists(ctx context.Context, token string, userID int64) (bool, error)

	// DeleteByUser revokes every refresh token of userID. Deleting when none
	// exist is not an error.
	DeleteByUser(ctx context.Context, userID int64) error

	// DeleteExpired removes tokens past their expiry and returns how many
	// were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
