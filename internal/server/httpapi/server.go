// Package httpapi is the REST interface of the Foodable API: the chi router,
// its middleware chain, request decoding and validation, handlers and the
// JSON response envelope.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/config"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/services"
	"github.com/dmitrijs2005/foodable/internal/server/storage"
	"github.com/go-chi/httprate"
)

type AuthAPI interface {
	Register(ctx context.Context, username, email, password string) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID int64) error
	Profile(ctx context.Context, userID int64) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
}

type UsersAPI interface {
	List(ctx context.Context, page models.PageRequest) ([]models.UserProfile, models.Pagination, error)
	GetByID(ctx context.Context, id int64) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, patch models.UserPatch) (*models.UserProfile, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

type DonationsAPI interface {
	Create(ctx context.Context, userID int64, d *models.Donation) (*models.Donation, error)
	List(ctx context.Context, filter models.DonationFilter, page models.PageRequest) ([]models.DonationDetails, models.Pagination, error)
	ListByUser(ctx context.Context, userID int64, page models.PageRequest) ([]models.Donation, models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.DonationDetails, error)
	Update(ctx context.Context, userID, id int64, patch models.DonationPatch) (*models.DonationDetails, error)
	Delete(ctx context.Context, userID, id int64) error
}

type ImagesAPI interface {
	CreateUploadURL(ctx context.Context, userID int64, contentType string) (*storage.Upload, error)
}

type HealthAPI interface {
	Basic() services.BasicHealth
	Detailed(ctx context.Context) *services.DetailedHealth
}

// TokenVerifier checks access tokens. *auth.TokenIssuer satisfies it.
type TokenVerifier interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// Deps are the collaborators of the HTTP layer. Images may be nil when
// uploads are disabled. Nil counters select in-memory counting.
type Deps struct {
	Auth      AuthAPI
	Users     UsersAPI
	Donations DonationsAPI
	Images    ImagesAPI
	Health    HealthAPI
	Tokens    TokenVerifier
	Logger    logging.Logger

	APICounter  httprate.LimitCounter
	AuthCounter httprate.LimitCounter
}

// Server serves the REST API.
type Server struct {
	cfg        *config.Config
	production bool

	auth      AuthAPI
	users     UsersAPI
	donations DonationsAPI
	images    ImagesAPI
	health    HealthAPI
	tokens    TokenVerifier
	logger    logging.Logger

	apiCounter  httprate.LimitCounter
	authCounter httprate.LimitCounter

	started time.Time
}

func New(cfg *config.Config, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		cfg:         cfg,
		production:  cfg.IsProduction(),
		auth:        d.Auth,
		users:       d.Users,
		donations:   d.Donations,
		images:      d.Images,
		health:      d.Health,
		tokens:      d.Tokens,
		logger:      logger,
		apiCounter:  d.APICounter,
		authCounter: d.AuthCounter,
		started:     time.Now(),
	}
}

// NewHTTPServer wraps the routes in an http.Server with conservative
// timeouts.
func (s *Server) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
