package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/repomanager"
)

const (
	MsgDonationNotFound   = "Donation not found"
	MsgNoUpdatePermission = "You do not have permission to update this donation"
	MsgNoDeletePermission = "You do not have permission to delete this donation"
)

// DonationsService manages donation listings. Update and delete lock the row
// and check ownership inside the same transaction as the write.
type DonationsService struct {
	db          DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewDonationsService(db DB, m repomanager.RepositoryManager, logger logging.Logger) *DonationsService {
	return &DonationsService{db: db, repomanager: m, logger: logger}
}

// Create stores a pending donation owned by userID.
func (s *DonationsService) Create(ctx context.Context, userID int64, d *models.Donation) (*models.Donation, error) {
	d.UserID = userID
	d.Status = models.StatusPending

	created, err := s.repomanager.Donations(s.db).Create(ctx, d)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, apperr.Wrap(http.StatusNotFound, MsgUserNotFound, err)
		}
		return nil, fmt.Errorf("error creating donation: %w", err)
	}

	s.logger.Info(ctx, "donation created", "donation_id", created.ID, "user_id", userID)
	return created, nil
}

func (s *DonationsService) List(ctx context.Context, filter models.DonationFilter, page models.PageRequest) ([]models.DonationDetails, models.Pagination, error) {
	repo := s.repomanager.Donations(s.db)

	list, err := repo.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error listing donations: %w", err)
	}
	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error counting donations: %w", err)
	}

	return list, models.NewPagination(page, total), nil
}

func (s *DonationsService) ListByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Donation, models.Pagination, error) {
	repo := s.repomanager.Donations(s.db)

	list, err := repo.ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error listing donations: %w", err)
	}
	total, err := repo.Count(ctx, models.DonationFilter{UserID: userID})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error counting donations: %w", err)
	}

	return list, models.NewPagination(page, total), nil
}

func (s *DonationsService) Get(ctx context.Context, id int64) (*models.DonationDetails, error) {
	d, err := s.repomanager.Donations(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound(MsgDonationNotFound)
		}
		return nil, fmt.Errorf("error loading donation: %w", err)
	}
	return d, nil
}

// lockOwned locks the donation row and checks that userID owns it.
func (s *DonationsService) lockOwned(ctx context.Context, tx dbx.DBTX, id, userID int64, denied string) error {
	owner, err := s.repomanager.Donations(tx).LockOwner(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.NotFound(MsgDonationNotFound)
		}
		return err
	}
	if owner != userID {
		return apperr.Forbidden(denied)
	}
	return nil
}

// Update applies patch to a donation owned by userID and returns the result.
func (s *DonationsService) Update(ctx context.Context, userID, id int64, patch models.DonationPatch) (*models.DonationDetails, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation(MsgNoUpdateFields, nil)
	}

	var updated *models.DonationDetails
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.lockOwned(ctx, tx, id, userID, MsgNoUpdatePermission); err != nil {
			return err
		}

		repo := s.repomanager.Donations(tx)
		if err := repo.Update(ctx, id, patch); err != nil {
			return err
		}

		var err error
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("error updating donation: %w", err)
	}

	s.logger.Info(ctx, "donation updated", "donation_id", id, "user_id", userID)
	return updated, nil
}

// Delete removes a donation owned by userID.
func (s *DonationsService) Delete(ctx context.Context, userID, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.lockOwned(ctx, tx, id, userID, MsgNoDeletePermission); err != nil {
			return err
		}
		return s.repomanager.Donations(tx).Delete(ctx, id)
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return err
		}
		return fmt.Errorf("error deleting donation: %w", err)
	}

	s.logger.Info(ctx, "donation deleted", "donation_id", id, "user_id", userID)
	return nil
}
