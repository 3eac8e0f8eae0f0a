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

const MsgNoUpdateFields = "At least one field must be provided for update"

// UsersService exposes account lookups and self-service profile changes.
type UsersService struct {
	db          DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUsersService(db DB, m repomanager.RepositoryManager, logger logging.Logger) *UsersService {
	return &UsersService{db: db, repomanager: m, logger: logger}
}

func (s *UsersService) List(ctx context.Context, page models.PageRequest) ([]models.UserProfile, models.Pagination, error) {
	repo := s.repomanager.Users(s.db)

	list, err := repo.List(ctx, page.Limit, page.Offset())
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error listing users: %w", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error counting users: %w", err)
	}

	return list, models.NewPagination(page, total), nil
}

func (s *UsersService) GetByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	return s.profile(s.repomanager.Users(s.db).GetByID(ctx, id))
}

func (s *UsersService) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return s.profile(s.repomanager.Users(s.db).GetByEmail(ctx, email))
}

func (s *UsersService) profile(user *models.User, err error) (*models.UserProfile, error) {
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	p := user.Profile()
	return &p, nil
}

// UpdateProfile applies patch to the user's own account and returns the
// updated profile.
func (s *UsersService) UpdateProfile(ctx context.Context, userID int64, patch models.UserPatch) (*models.UserProfile, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation(MsgNoUpdateFields, nil)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.Update(ctx, userID, patch); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, apperr.Wrap(http.StatusConflict, MsgEmailTaken, err)
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	cols, _ := patch.Columns()
	s.logger.Info(ctx, "user profile updated", "user_id", userID, "fields", cols)

	return s.profile(repo.GetByID(ctx, userID))
}

// DeleteAccount removes the user. Donations and refresh tokens go with it.
func (s *UsersService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.logger.Info(ctx, "user account deleted", "user_id", userID)
	return nil
}
