package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/models"
	"ShopAdmin/internal/passwords"
	"ShopAdmin/internal/sessions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeAdmins is an in-memory AdminStore.
type fakeAdmins struct {
	mu     sync.Mutex
	byID   map[int64]*models.Administrator
	err    error
	lookup int
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byID: map[int64]*models.Administrator{}}
}

func (f *fakeAdmins) add(t *testing.T, id int64, email, password string, active bool) {
	t.Helper()
	h, err := passwords.Bcrypt{Cost: bcrypt.MinCost}.Hash(password)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id] = &models.Administrator{ID: id, Email: db.NormalizeEmail(email), PasswordHash: h, Active: active, FullName: "Admin " + email}
}

func (f *fakeAdmins) setActive(id int64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Active = active
}

func (f *fakeAdmins) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

func (f *fakeAdmins) FindActiveAdminByEmail(_ context.Context, email string) (*models.Administrator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookup++
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.byID {
		if a.Email == db.NormalizeEmail(email) && a.Active {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAdmins) FindActiveAdminByID(_ context.Context, id int64) (*models.Administrator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookup++
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byID[id]
	if !ok || !a.Active {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

type fixture struct {
	admins   *fakeAdmins
	sessions *sessions.Manager
	verifier *Verifier
	guard    *Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	admins := newFakeAdmins()
	mgr := sessions.NewManager(sessions.NewMemoryBackend(), sessions.Options{Secret: "s", MaxAge: time.Hour})
	v, err := NewVerifier(admins, mgr, passwords.Bcrypt{Cost: bcrypt.MinCost}, nil)
	require.NoError(t, err)
	return &fixture{admins: admins, sessions: mgr, verifier: v, guard: NewGuard(admins, mgr)}
}

// login performs Verifier.Login and returns the session cookie, if set.
func (fx *fixture) login(t *testing.T, email, password string) (*http.Cookie, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	w := httptest.NewRecorder()
	_, err := fx.verifier.Login(w, r, email, password)
	for _, c := range w.Result().Cookies() {
		if c.Name == sessions.SessionName {
			return c, err
		}
	}
	return nil, err
}

func (fx *fixture) authorize(cookie *http.Cookie) (*models.Administrator, error) {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return fx.guard.Authorize(r)
}

func TestAuthenticateActiveAdmins(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	fx.admins.add(t, 2, "Owner@Shop.com", "hunter22", true)

	for _, tc := range []struct {
		id       int64
		email    string
		password string
	}{
		{1, "a@b.com", "secret"},
		{1, "A@B.COM", "secret"},
		{2, " owner@shop.com ", "hunter22"},
	} {
		a, err := fx.verifier.Authenticate(context.Background(), tc.email, tc.password)
		require.NoError(t, err, tc.email)
		assert.Equal(t, tc.id, a.ID)
		assert.Empty(t, a.PasswordHash, "hash must not leave the verifier")
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	fx.admins.add(t, 2, "off@b.com", "secret", false)
	ctx := context.Background()

	_, wrongPassword := fx.verifier.Authenticate(ctx, "a@b.com", "nope")
	_, unknownEmail := fx.verifier.Authenticate(ctx, "x@b.com", "secret")
	_, inactive := fx.verifier.Authenticate(ctx, "off@b.com", "secret")
	_, empty := fx.verifier.Authenticate(ctx, "", "")

	for _, err := range []error{wrongPassword, unknownEmail, inactive, empty} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), err.Error())
		assert.False(t, IsPersistence(err))
	}
}

func TestAuthenticatePersistenceError(t *testing.T) {
	fx := newFixture(t)
	fx.admins.err = errors.New("connection refused")

	_, err := fx.verifier.Authenticate(context.Background(), "a@b.com", "secret")
	require.Error(t, err)
	assert.True(t, IsPersistence(err))
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestAuthenticateCorruptStoredHash(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	fx.admins.byID[1].PasswordHash = "argon2id$v=19$m=65536,t=0,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

	var err error
	require.NotPanics(t, func() {
		_, err = fx.verifier.Authenticate(context.Background(), "a@b.com", "secret")
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, IsPersistence(err))
}

func TestLoginWithoutAccountSetsNoCookie(t *testing.T) {
	fx := newFixture(t)
	cookie, err := fx.login(t, "a@b.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, cookie)
}

func TestLoginThenGuardAuthorizes(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 7, "a@b.com", "secret", true)

	cookie, err := fx.login(t, "a@b.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, cookie)

	first, err := fx.authorize(cookie)
	require.NoError(t, err)
	second, err := fx.authorize(cookie)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(7), first.ID)
	assert.Empty(t, first.PasswordHash)
}

func TestGuardLooksUpEveryTime(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 7, "a@b.com", "secret", true)
	cookie, err := fx.login(t, "a@b.com", "secret")
	require.NoError(t, err)

	before := fx.admins.lookup
	for i := 0; i < 3; i++ {
		_, err := fx.authorize(cookie)
		require.NoError(t, err)
	}
	assert.Equal(t, before+3, fx.admins.lookup)
}

func TestGuardRejectsAfterDeactivateOrDelete(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	fx.admins.add(t, 2, "c@d.com", "secret", true)

	c1, err := fx.login(t, "a@b.com", "secret")
	require.NoError(t, err)
	c2, err := fx.login(t, "c@d.com", "secret")
	require.NoError(t, err)

	fx.admins.setActive(1, false)
	fx.admins.remove(2)

	_, err = fx.authorize(c1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = fx.authorize(c2)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuardWithoutSession(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.authorize(nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, fx.admins.lookup)
}

func TestGuardSessionForUnknownAdmin(t *testing.T) {
	fx := newFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	require.NoError(t, fx.sessions.SetAdminID(w, r, 999))
	cookie := w.Result().Cookies()[0]

	_, err := fx.authorize(cookie)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuardPersistenceError(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	cookie, err := fx.login(t, "a@b.com", "secret")
	require.NoError(t, err)

	fx.admins.err = errors.New("db down")
	_, err = fx.authorize(cookie)
	assert.True(t, IsPersistence(err))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	fx := newFixture(t)
	fx.admins.add(t, 1, "a@b.com", "secret", true)
	cookie, err := fx.login(t, "a@b.com", "secret")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	r.AddCookie(cookie)
	require.NoError(t, fx.verifier.Logout(httptest.NewRecorder(), r))

	_, err = fx.authorize(cookie)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAdminContext(t *testing.T) {
	_, ok := AdminFromContext(context.Background())
	assert.False(t, ok)

	a := &models.Administrator{ID: 3}
	got, ok := AdminFromContext(WithAdmin(context.Background(), a))
	assert.True(t, ok)
	assert.Same(t, a, got)
}
