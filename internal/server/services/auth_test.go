package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type countingHasher struct {
	*auth.Hasher
	hashes int
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes++
	return h.Hasher.Hash(password)
}

func newAuthService(t *testing.T, rm *fakeRepoManager) (*AuthService, *auth.TokenIssuer) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	tokens := auth.NewTokenIssuer("access", "refresh", time.Hour, 7*24*time.Hour)
	return NewAuthService(db, rm, tokens, auth.NewHasher(bcrypt.MinCost), logging.Nop()), tokens
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost).Hash(pw)
	require.NoError(t, err)
	return h
}

func TestRegister_Success(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsers(), r: newFakeRefresh()}
	s, _ := newAuthService(t, rm)

	u, err := s.Register(context.Background(), "alice", "alice@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{ID: 1, Username: "alice", Email: "alice@example.com"}, *u)

	stored := rm.u.byID[1]
	assert.NotEqual(t, "Password1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Password1")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 1, Email: "alice@example.com"}),
		r: newFakeRefresh(),
	}
	db, _ := newSQLMockDB(t)
	h := &countingHasher{Hasher: auth.NewHasher(bcrypt.MinCost)}
	s := NewAuthService(db, rm, auth.NewTokenIssuer("a", "r", time.Hour, time.Hour), h, logging.Nop())

	_, err := s.Register(context.Background(), "alice2", "alice@example.com", "Password1")
	requireAppErr(t, err, http.StatusConflict, MsgEmailTaken)
	assert.Len(t, rm.u.byID, 1)
	assert.Zero(t, h.hashes, "no hash is computed for a taken email")
}

func TestRegister_LongPassword(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsers(), r: newFakeRefresh()}
	s, _ := newAuthService(t, rm)
	long := "Aa1" + strings.Repeat("x", 80)

	_, err := s.Register(context.Background(), "alice", "alice@example.com", long)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "alice@example.com", long)
	require.NoError(t, err)
}

func TestRegister_RaceCaughtByUniqueIndex(t *testing.T) {
	users := newFakeUsers()
	users.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	s, _ := newAuthService(t, &fakeRepoManager{u: users, r: newFakeRefresh()})

	_, err := s.Register(context.Background(), "alice", "alice@example.com", "Password1")
	requireAppErr(t, err, http.StatusConflict, MsgEmailTaken)
}

func TestRegister_DBError(t *testing.T) {
	users := newFakeUsers()
	users.createErr = errBoom{}
	s, _ := newAuthService(t, &fakeRepoManager{u: users, r: newFakeRefresh()})

	_, err := s.Register(context.Background(), "bob", "bob@example.com", "Password1")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`error creating user: .*boom`), err.Error())
}

func TestLogin_Success(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Username: "alice", Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	s, tokens := newAuthService(t, rm)

	before := time.Now()
	res, err := s.Login(context.Background(), "alice@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.User.ID)

	claims, err := tokens.ParseAccess(res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)

	st, ok := rm.r.tokens[res.RefreshToken]
	require.True(t, ok, "refresh token not stored")
	assert.Equal(t, int64(7), st.userID)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), st.expiresAt, time.Minute)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	s, _ := newAuthService(t, rm)

	_, errUnknown := s.Login(context.Background(), "ghost@example.com", "Password1")
	_, errWrong := s.Login(context.Background(), "alice@example.com", "Password2")

	requireAppErr(t, errUnknown, http.StatusUnauthorized, MsgInvalidCredentials)
	requireAppErr(t, errWrong, http.StatusUnauthorized, MsgInvalidCredentials)
	assert.Empty(t, rm.r.tokens)
}

func TestLogin_RepoError(t *testing.T) {
	users := newFakeUsers()
	users.getErr = errBoom{}
	s, _ := newAuthService(t, &fakeRepoManager{u: users, r: newFakeRefresh()})

	_, err := s.Login(context.Background(), "a@example.com", "x")
	require.Error(t, err)
	_, isApp := apperr.As(err)
	assert.False(t, isApp)
}

func TestRefresh_Flows(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	s, tokens := newAuthService(t, rm)
	ctx := context.Background()

	_, err := s.Refresh(ctx, "")
	requireAppErr(t, err, http.StatusBadRequest, MsgRefreshRequired)

	_, err = s.Refresh(ctx, "garbage")
	requireAppErr(t, err, http.StatusUnauthorized, MsgRefreshInvalid)

	expired, _ := auth.NewTokenIssuer("access", "refresh", time.Hour, -time.Second).IssueRefresh(7, "alice@example.com")
	_, err = s.Refresh(ctx, expired)
	requireAppErr(t, err, http.StatusUnauthorized, MsgRefreshExpired)

	unstored, _ := tokens.IssueRefresh(7, "alice@example.com")
	_, err = s.Refresh(ctx, unstored)
	requireAppErr(t, err, http.StatusUnauthorized, MsgRefreshNotStored)

	res, err := s.Login(ctx, "alice@example.com", "Password1")
	require.NoError(t, err)

	access, err := s.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)

	require.NoError(t, s.Logout(ctx, 7))
	_, err = s.Refresh(ctx, res.RefreshToken)
	requireAppErr(t, err, http.StatusUnauthorized, MsgRefreshNotStored)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	s, tokens := newAuthService(t, &fakeRepoManager{u: newFakeUsers(), r: newFakeRefresh()})

	access, _ := tokens.IssueAccess(7, "alice@example.com")
	_, err := s.Refresh(context.Background(), access)
	requireAppErr(t, err, http.StatusUnauthorized, MsgRefreshInvalid)
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	s, _ := newAuthService(t, rm)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Login(ctx, "alice@example.com", "Password1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, rm.r.countFor(7))

	require.NoError(t, s.Logout(ctx, 7))
	assert.Equal(t, 0, rm.r.countFor(7))
}

func TestProfile(t *testing.T) {
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Username: "alice", Email: "alice@example.com", CreatedAt: created}),
		r: newFakeRefresh(),
	}
	s, _ := newAuthService(t, rm)

	p, err := s.Profile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.UserProfile{ID: 7, Username: "alice", Email: "alice@example.com", CreatedAt: created}, *p)

	_, err = s.Profile(context.Background(), 8)
	requireAppErr(t, err, http.StatusNotFound, MsgUserNotFound)
}

func TestChangePassword_Success(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	db, mock := newSQLMockDB(t)
	tokens := auth.NewTokenIssuer("access", "refresh", time.Hour, time.Hour)
	s := NewAuthService(db, rm, tokens, auth.NewHasher(bcrypt.MinCost), logging.Nop())
	ctx := context.Background()

	_, err := s.Login(ctx, "alice@example.com", "Password1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, s.ChangePassword(ctx, 7, "Password1", "Password2"))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, rm.r.countFor(7))

	_, err = s.Login(ctx, "alice@example.com", "Password1")
	requireAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)
	_, err = s.Login(ctx, "alice@example.com", "Password2")
	require.NoError(t, err)
}

func TestChangePassword_LongPassword(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Email: "alice@example.com", Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	db, mock := newSQLMockDB(t)
	s := NewAuthService(db, rm, auth.NewTokenIssuer("a", "r", time.Hour, time.Hour), auth.NewHasher(bcrypt.MinCost), logging.Nop())
	long := "Bb2" + strings.Repeat("y", 100)

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, s.ChangePassword(context.Background(), 7, "Password1", long))
	require.NoError(t, mock.ExpectationsWereMet())

	_, err := s.Login(context.Background(), "alice@example.com", long)
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	s, _ := newAuthService(t, rm)

	err := s.ChangePassword(context.Background(), 7, "Nope1234", "Password2")
	requireAppErr(t, err, http.StatusUnauthorized, MsgWrongPassword)

	err = s.ChangePassword(context.Background(), 8, "Password1", "Password2")
	requireAppErr(t, err, http.StatusNotFound, MsgUserNotFound)
}

func TestChangePassword_RollsBackWhenRevocationFails(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsers(&models.User{ID: 7, Password: hashed(t, "Password1")}),
		r: newFakeRefresh(),
	}
	rm.r.deleteErr = errBoom{}

	db, mock := newSQLMockDB(t)
	s := NewAuthService(db, rm, auth.NewTokenIssuer("a", "r", time.Hour, time.Hour), auth.NewHasher(bcrypt.MinCost), logging.Nop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.ChangePassword(context.Background(), 7, "Password1", "Password2")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`error changing password: .*boom`), err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}
