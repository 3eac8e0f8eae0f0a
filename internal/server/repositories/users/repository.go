// Package users declares the repository contract for donator accounts and its
// SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/foodable/internal/server/models"
)

// Repository defines the persistence operations on donator accounts.
type Repository interface {
	// Create inserts user and returns it with the generated ID set.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID and GetByEmail return common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns a page of public profiles ordered by ID.
	List(ctx context.Context, limit, offset int) ([]models.UserProfile, error)
	Count(ctx context.Context) (int, error)

	// Update applies the allow-listed columns of patch.
	Update(ctx context.Context, id int64, patch models.UserPatch) error
	UpdatePassword(ctx context.Context, id int64, hash string) error

	// Delete removes the account; donations and refresh tokens cascade.
	Delete(ctx context.Context, id int64) error
}
