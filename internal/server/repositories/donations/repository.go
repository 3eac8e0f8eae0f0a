// Package donations declares the repository contract for food donations and
// its SQL implementation.
package donations

import (
	"context"

	"github.com/dmitrijs2005/foodable/internal/server/models"
)

// Repository defines the persistence operations on donations.
type Repository interface {
	// Create inserts d and returns it with the generated ID set.
	Create(ctx context.Context, d *models.Donation) (*models.Donation, error)

	// GetByID returns the donation joined with its donor, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.DonationDetails, error)

	// List returns a page of donations joined with their donors, newest first.
	List(ctx context.Context, filter models.DonationFilter, limit, offset int) ([]models.DonationDetails, error)
	Count(ctx context.Context, filter models.DonationFilter) (int, error)

	// ListByUser returns a page of one donor's donations, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Donation, error)

	// LockOwner returns the owner of a donation and locks the row until the
	// surrounding transaction ends.
	LockOwner(ctx context.Context, id int64) (int64, error)

	Update(ctx context.Context, id int64, patch models.DonationPatch) error
	Delete(ctx context.Context, id int64) error
}
