package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ShopAdmin/internal/auth"
	"ShopAdmin/internal/db"
	"ShopAdmin/internal/metrics"
	"ShopAdmin/internal/models"
	"ShopAdmin/internal/ratelimit"
	"ShopAdmin/internal/sessions"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubAdmins struct {
	admins map[int64]models.Administrator
	err    error
}

func (s *stubAdmins) FindActiveAdminByEmail(context.Context, string) (*models.Administrator, error) {
	return nil, db.ErrNotFound
}

func (s *stubAdmins) FindActiveAdminByID(_ context.Context, id int64) (*models.Administrator, error) {
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.admins[id]
	if !ok || !a.Active {
		return nil, db.ErrNotFound
	}
	return &a, nil
}

func sessionCookie(t *testing.T, mgr *sessions.Manager, adminID int64) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, mgr.SetAdminID(w, httptest.NewRequest(http.MethodPost, LoginPath, nil), adminID))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

type guardFixture struct {
	mgr     *sessions.Manager
	admins  *stubAdmins
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs
	seen    *models.Administrator
	handler http.Handler
}

func newGuardFixture() *guardFixture {
	f := &guardFixture{
		mgr: sessions.NewManager(sessions.NewMemoryBackend(), sessions.Options{Secret: "k", MaxAge: time.Hour}),
		admins: &stubAdmins{admins: map[int64]models.Administrator{
			1: {ID: 1, Email: "a@b.com", Active: true, PasswordHash: "h", FullName: "A"},
			2: {ID: 2, Email: "off@b.com", Active: false},
		}},
		metrics: metrics.New(),
	}
	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	guard := auth.NewGuard(f.admins, f.mgr)
	f.handler = AdminOnly(guard, f.metrics, zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.seen, _ = auth.AdminFromContext(r.Context())
		_, _ = w.Write([]byte("dashboard"))
	}))
	return f
}

func (f *guardFixture) serve(c *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if c != nil {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func (f *guardFixture) decisions(d string) float64 {
	return testutil.ToFloat64(f.metrics.GuardCounter(d))
}

func TestAdminOnly_NoCookieRedirects(t *testing.T) {
	f := newGuardFixture()
	w := f.serve(nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.Nil(t, f.seen)
	assert.Equal(t, 1.0, f.decisions(metrics.GuardUnauthenticated))
}

func TestAdminOnly_ActiveAdminPasses(t *testing.T) {
	f := newGuardFixture()
	w := f.serve(sessionCookie(t, f.mgr, 1))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dashboard", w.Body.String())
	require.NotNil(t, f.seen)
	assert.Equal(t, int64(1), f.seen.ID)
	assert.Empty(t, f.seen.PasswordHash)
	assert.NotEmpty(t, w.Result().Cookies(), "session should be refreshed")
	assert.Equal(t, 1.0, f.decisions(metrics.GuardAuthorized))
}

func TestAdminOnly_RevokedAdminRedirects(t *testing.T) {
	f := newGuardFixture()
	for _, id := range []int64{2, 404} {
		w := f.serve(sessionCookie(t, f.mgr, id))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, LoginPath, w.Header().Get("Location"))
	}
	assert.Nil(t, f.seen)
	assert.Equal(t, 2.0, f.decisions(metrics.GuardUnauthenticated))
}

func TestAdminOnly_DeactivatedAfterLogin(t *testing.T) {
	f := newGuardFixture()
	c := sessionCookie(t, f.mgr, 1)
	require.Equal(t, http.StatusOK, f.serve(c).Code)

	a := f.admins.admins[1]
	a.Active = false
	f.admins.admins[1] = a

	w := f.serve(c)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAdminOnly_StoreErrorRedirectsAndLogs(t *testing.T) {
	f := newGuardFixture()
	c := sessionCookie(t, f.mgr, 1)
	f.admins.err = errors.New("connection refused")

	w := f.serve(c)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
	assert.Equal(t, 1.0, f.decisions(metrics.GuardError))

	entries := f.logs.FilterMessage("session guard failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestRateLimit(t *testing.T) {
	l := ratelimit.NewMemory(2, time.Minute)
	defer l.Stop()
	m := metrics.New()

	h := RateLimit(l, m, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hit := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, LoginPath, nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusNoContent, hit("10.0.0.1:2222").Code)

	w := hit("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many login attempts"}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginCounter(metrics.LoginLimited)))

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2").Code, "other clients are unaffected")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(failingLimiter{}, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, LoginPath, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RequestLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/login?password=x", nil))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/admin/login", fields["path"])
	assert.Equal(t, int64(http.StatusUnauthorized), fields["status"])
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, levelForStatus(302))
	assert.Equal(t, zapcore.WarnLevel, levelForStatus(404))
	assert.Equal(t, zapcore.ErrorLevel, levelForStatus(503))
}
