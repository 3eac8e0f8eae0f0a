package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	donationsrepo "github.com/dmitrijs2005/foodable/internal/server/repositories/donations"
	refreshtokensrepo "github.com/dmitrijs2005/foodable/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/foodable/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, dbx.DriverMySQL), mock
}

// --- users ---

type fakeUsersRepo struct {
	byID   map[int64]*models.User
	nextID int64

	existsErr error
	createErr error
	getErr    error
	updateErr error
	passErr   error
	deleteErr error

	listOut  []models.UserProfile
	countOut int
}

func newFakeUsers(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[int64]*models.User{}, nextID: 1}
	for _, u := range users {
		f.byID[u.ID] = u
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsersRepo) List(ctx context.Context, limit, offset int) ([]models.UserProfile, error) {
	return f.listOut, f.getErr
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int, error) { return f.countOut, nil }

func (f *fakeUsersRepo) Update(ctx context.Context, id int64, p models.UserPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if f.passErr != nil {
		return f.passErr
	}
	f.byID[id].Password = hash
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// --- refresh tokens ---

type storedToken struct {
	userID    int64
	expiresAt time.Time
}

type fakeRefreshRepo struct {
	tokens map[string]storedToken

	createErr error
	existsErr error
	deleteErr error
}

func newFakeRefresh() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]storedToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeRefreshRepo) Exists(ctx context.Context, token string, userID int64) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	st, ok := f.tokens[token]
	return ok && st.userID == userID && st.expiresAt.After(time.Now()), nil
}

func (f *fakeRefreshRepo) DeleteByUser(ctx context.Context, userID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k, st := range f.tokens {
		if st.userID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	for k, st := range f.tokens {
		if !st.expiresAt.After(time.Now()) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshRepo) countFor(userID int64) int {
	n := 0
	for _, st := range f.tokens {
		if st.userID == userID {
			n++
		}
	}
	return n
}

// --- donations ---

type fakeDonationsRepo struct {
	byID   map[int64]*models.Donation
	nextID int64

	createErr error
	lockErr   error
	updateErr error

	locked  []int64
	deleted []int64
	listed  models.DonationFilter
}

func newFakeDonations(ds ...*models.Donation) *fakeDonationsRepo {
	f := &fakeDonationsRepo{byID: map[int64]*models.Donation{}, nextID: 1}
	for _, d := range ds {
		f.byID[d.ID] = d
		if d.ID >= f.nextID {
			f.nextID = d.ID + 1
		}
	}
	return f
}

func (f *fakeDonationsRepo) Create(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	d.ID = f.nextID
	f.nextID++
	f.byID[d.ID] = d
	return d, nil
}

func (f *fakeDonationsRepo) GetByID(ctx context.Context, id int64) (*models.DonationDetails, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.DonationDetails{Donation: *d, Username: "owner"}, nil
}

func (f *fakeDonationsRepo) List(ctx context.Context, filter models.DonationFilter, limit, offset int) ([]models.DonationDetails, error) {
	f.listed = filter
	out := []models.DonationDetails{}
	for _, d := range f.byID {
		if filter.Status == "" || d.Status == filter.Status {
			out = append(out, models.DonationDetails{Donation: *d})
		}
	}
	return out, nil
}

func (f *fakeDonationsRepo) Count(ctx context.Context, filter models.DonationFilter) (int, error) {
	n := 0
	for _, d := range f.byID {
		if (filter.Status == "" || d.Status == filter.Status) && (filter.UserID == 0 || d.UserID == filter.UserID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDonationsRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Donation, error) {
	out := []models.Donation{}
	for _, d := range f.byID {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDonationsRepo) LockOwner(ctx context.Context, id int64) (int64, error) {
	if f.lockErr != nil {
		return 0, f.lockErr
	}
	f.locked = append(f.locked, id)
	d, ok := f.byID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return d.UserID, nil
}

func (f *fakeDonationsRepo) Update(ctx context.Context, id int64, p models.DonationPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	d := f.byID[id]
	if p.ItemName != nil {
		d.ItemName = *p.ItemName
	}
	if p.ItemQuantity != nil {
		d.ItemQuantity = *p.ItemQuantity
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	return nil
}

func (f *fakeDonationsRepo) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *fakeDonationsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Donations(db dbx.DBTX) donationsrepo.Repository         { return m.d }

func requireAppErr(t *testing.T, err error, status int, msg string) {
	t.Helper()
	ae, ok := apperr.As(err)
	if !ok {
		t.Fatalf("want *apperr.Error, got %v", err)
	}
	if ae.Status != status || ae.Message != msg {
		t.Fatalf("want %d %q, got %d %q", status, msg, ae.Status, ae.Message)
	}
}
