package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/repomanager"
)

const (
	MsgEmailTaken         = "User with this email already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgRefreshRequired    = "Refresh token is required"
	MsgRefreshExpired     = "Refresh token has expired. Please log in again."
	MsgRefreshInvalid     = "Invalid refresh token. Please log in again."
	MsgRefreshNotStored   = "Invalid or expired refresh token"
	MsgUserNotFound       = "User not found"
	MsgWrongPassword      = "Current password is incorrect"
)

// PasswordHasher hashes and verifies passwords. *auth.Hasher implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

// AuthService provides authentication-related operations:
// - Register: create accounts
// - Login: verify credentials and mint an access/refresh token pair
// - Refresh: mint a new access token for a stored refresh token
// - Logout and ChangePassword: revoke every refresh token of the user
type AuthService struct {
	db          DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
	hasher      PasswordHasher
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(db DB, m repomanager.RepositoryManager, tokens *auth.TokenIssuer, hasher PasswordHasher, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates an account. The email must not be taken; a concurrent
// registration that slips past the check is caught by the unique index.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, apperr.Conflict(MsgEmailTaken)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{Username: username, Email: email, Password: hash})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, apperr.Wrap(http.StatusConflict, MsgEmailTaken, err)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "email", email)

	pub := user.Public()
	return &pub, nil
}

// Login verifies the credentials and stores a new refresh token. Unknown
// email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	ok, err := s.hasher.Compare(user.Password, password)
	if err != nil {
		return nil, apperr.Internal("Failed to verify password", err)
	}
	if !ok {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to issue token", err)
	}

	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if err := s.repomanager.RefreshTokens(s.db).Create(ctx, user.ID, refresh, expiresAt); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: access, RefreshToken: refresh, User: user.Public()}, nil
}

// Refresh returns a new access token. The refresh token must verify against
// the refresh secret and still be stored for its user. It is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.BadRequest(MsgRefreshRequired)
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", apperr.Wrap(http.StatusUnauthorized, MsgRefreshExpired, err)
		}
		return "", apperr.Wrap(http.StatusUnauthorized, MsgRefreshInvalid, err)
	}

	ok, err := s.repomanager.RefreshTokens(s.db).Exists(ctx, refreshToken, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("error searching refresh token: %w", err)
	}
	if !ok {
		return "", apperr.Unauthorized(MsgRefreshNotStored)
	}

	access, err := s.tokens.IssueAccess(claims.UserID, claims.Email)
	if err != nil {
		return "", apperr.Internal("Failed to issue token", err)
	}

	s.logger.Debug(ctx, "access token refreshed", "user_id", claims.UserID)
	return access, nil
}

// Logout revokes every refresh token of the user. Access tokens stay valid
// until they expire.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting refresh tokens: %w", err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Profile returns the public profile of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	p := user.Profile()
	return &p, nil
}

// ChangePassword replaces the password hash and revokes all refresh tokens
// in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	ok, err := s.hasher.Compare(user.Password, current)
	if err != nil {
		return apperr.Internal("Failed to verify password", err)
	}
	if !ok {
		return apperr.Unauthorized(MsgWrongPassword)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperr.Internal("Failed to hash password", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}
