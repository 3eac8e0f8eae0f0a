package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/config"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/dmitrijs2005/foodable/internal/server/services"
	"github.com/dmitrijs2005/foodable/internal/server/storage"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

type fakeUser struct {
	models.UserProfile
	password string
}

// fakeAuth keeps users in memory and issues real tokens.
type fakeAuth struct {
	mu      sync.Mutex
	tokens  *auth.TokenIssuer
	byEmail map[string]*fakeUser
	nextID  int64

	registerCalls int
	loggedOut     []int64
}

func newFakeAuth(tokens *auth.TokenIssuer) *fakeAuth {
	return &fakeAuth{tokens: tokens, byEmail: map[string]*fakeUser{}, nextID: 1}
}

func (f *fakeAuth) Register(_ context.Context, username, email, password string) (*models.PublicUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	if _, ok := f.byEmail[email]; ok {
		return nil, apperr.Conflict(services.MsgEmailTaken)
	}
	u := &fakeUser{
		UserProfile: models.UserProfile{ID: f.nextID, Username: username, Email: email, CreatedAt: time.Now()},
		password:    password,
	}
	f.nextID++
	f.byEmail[email] = u
	return &models.PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok || u.password != password {
		return nil, apperr.Unauthorized(services.MsgInvalidCredentials)
	}
	access, err := f.tokens.IssueAccess(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := f.tokens.IssueRefresh(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &services.LoginResult{
		Token:        access,
		RefreshToken: refresh,
		User:         models.PublicUser{ID: u.ID, Username: u.Username, Email: u.Email},
	}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.BadRequest(services.MsgRefreshRequired)
	}
	claims, err := f.tokens.ParseRefresh(token)
	if err != nil {
		return "", apperr.Unauthorized(services.MsgRefreshInvalid)
	}
	return f.tokens.IssueAccess(claims.UserID, claims.Email)
}

func (f *fakeAuth) Logout(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, userID)
	return nil
}

func (f *fakeAuth) Profile(_ context.Context, userID int64) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			p := u.UserProfile
			return &p, nil
		}
	}
	return nil, apperr.NotFound(services.MsgUserNotFound)
}

func (f *fakeAuth) ChangePassword(_ context.Context, userID int64, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			if u.password != current {
				return apperr.Unauthorized(services.MsgWrongPassword)
			}
			u.password = next
			return nil
		}
	}
	return apperr.NotFound(services.MsgUserNotFound)
}

type fakeUsers struct {
	list      []models.UserProfile
	gotPage   models.PageRequest
	gotPatch  models.UserPatch
	deletedID int64
}

func (f *fakeUsers) List(_ context.Context, page models.PageRequest) ([]models.UserProfile, models.Pagination, error) {
	f.gotPage = page
	return f.list, models.NewPagination(page, len(f.list)), nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.UserProfile, error) {
	for _, u := range f.list {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(services.MsgUserNotFound)
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	for _, u := range f.list {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(services.MsgUserNotFound)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID int64, patch models.UserPatch) (*models.UserProfile, error) {
	f.gotPatch = patch
	if patch.IsEmpty() {
		return nil, apperr.Validation(services.MsgNoUpdateFields, nil)
	}
	p := models.UserProfile{ID: userID}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	return &p, nil
}

func (f *fakeUsers) DeleteAccount(_ context.Context, userID int64) error {
	f.deletedID = userID
	return nil
}

// fakeDonations orders by created_at DESC, id DESC like the repository.
type fakeDonations struct {
	rows      []models.DonationDetails
	gotFilter models.DonationFilter
	created   *models.Donation
	updateErr error
	deleteErr error
}

func (f *fakeDonations) sorted() []models.DonationDetails {
	out := append([]models.DonationDetails(nil), f.rows...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeDonations) Create(_ context.Context, userID int64, d *models.Donation) (*models.Donation, error) {
	d.ID = int64(len(f.rows) + 1)
	d.UserID = userID
	d.Status = models.StatusPending
	f.created = d
	return d, nil
}

func (f *fakeDonations) List(_ context.Context, filter models.DonationFilter, page models.PageRequest) ([]models.DonationDetails, models.Pagination, error) {
	f.gotFilter = filter
	all := f.sorted()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], models.NewPagination(page, len(all)), nil
}

func (f *fakeDonations) ListByUser(_ context.Context, userID int64, page models.PageRequest) ([]models.Donation, models.Pagination, error) {
	var out []models.Donation
	for _, d := range f.sorted() {
		if d.UserID == userID {
			out = append(out, d.Donation)
		}
	}
	return out, models.NewPagination(page, len(out)), nil
}

func (f *fakeDonations) Get(_ context.Context, id int64) (*models.DonationDetails, error) {
	for _, d := range f.rows {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, apperr.NotFound(services.MsgDonationNotFound)
}

func (f *fakeDonations) Update(_ context.Context, userID, id int64, patch models.DonationPatch) (*models.DonationDetails, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	d := &models.DonationDetails{Donation: models.Donation{ID: id, UserID: userID}}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	return d, nil
}

func (f *fakeDonations) Delete(_ context.Context, userID, id int64) error {
	return f.deleteErr
}

type fakeImages struct{}

func (fakeImages) CreateUploadURL(_ context.Context, userID int64, contentType string) (*storage.Upload, error) {
	return &storage.Upload{
		Key:       "donations/2026/01/01/abc",
		UploadURL: "http://s3/upload",
		ImageURL:  "http://cdn/donations/2026/01/01/abc",
	}, nil
}

type fakeHealth struct {
	healthy bool
}

func (f fakeHealth) Basic() services.BasicHealth {
	return services.BasicHealth{Status: "OK", Environment: "test", Version: "v1"}
}

func (f fakeHealth) Detailed(context.Context) *services.DetailedHealth {
	status := "healthy"
	if !f.healthy {
		status = "degraded"
	}
	return &services.DetailedHealth{Status: status}
}

type testEnv struct {
	handler   http.Handler
	server    *Server
	tokens    *auth.TokenIssuer
	auth      *fakeAuth
	users     *fakeUsers
	donations *fakeDonations
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Environment = config.EnvTest
	return cfg
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()
	cfg := testConfig()
	tokens := auth.NewTokenIssuer(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	env := &testEnv{
		tokens:    tokens,
		auth:      newFakeAuth(tokens),
		users:     &fakeUsers{},
		donations: &fakeDonations{},
	}
	deps := Deps{
		Auth:      env.auth,
		Users:     env.users,
		Donations: env.donations,
		Images:    fakeImages{},
		Health:    fakeHealth{healthy: true},
		Tokens:    tokens,
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	env.server = New(cfg, deps)
	env.handler = env.server.Routes()
	return env
}

type reqOpt func(*http.Request)

func withToken(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withIP(ip string) reqOpt {
	return func(r *http.Request) { r.RemoteAddr = ip + ":40000" }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) tokenFor(t *testing.T, userID int64, email string) string {
	t.Helper()
	tok, err := e.tokens.IssueAccess(userID, email)
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
	StatusCode int                `json:"statusCode"`
	Errors     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Stack string `json:"stack"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func fieldMessages(env envelope) map[string]string {
	out := map[string]string{}
	for _, e := range env.Errors {
		out[e.Field] = e.Message
	}
	return out
}
