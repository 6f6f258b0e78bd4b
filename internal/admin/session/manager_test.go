package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time { return c.current }

func newTestManager(t *testing.T) (*Manager, *fixedClock) {
	t.Helper()

	clock := &fixedClock{current: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mgr, err := NewManager(Config{
		CookieName:  "test_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuv0123456789"),
		IdleTimeout: 10 * time.Minute,
		Lifetime:    2 * time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)
	return mgr, clock
}

func roundTrip(t *testing.T, mgr *Manager, sess *Session) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, mgr.Save(rec, sess))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewManagerValidatesKeys(t *testing.T) {
	_, err := NewManager(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewManager(Config{HashKey: []byte("k"), BlockKey: []byte("short")})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManagerPersistsIdentityAndUser(t *testing.T) {
	mgr, clock := newTestManager(t)

	sess, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID())
	require.True(t, sess.Dirty())
	require.Equal(t, clock.current, sess.CreatedAt())

	sess.SetUser(&User{UID: "staff-1", Email: "staff@example.com", Roles: []string{"editor"}})
	sess.SetFlash("saved")
	req := roundTrip(t, mgr, sess)

	clock.current = clock.current.Add(5 * time.Minute)
	loaded, err := mgr.Load(req)
	require.NoError(t, err)
	require.Equal(t, sess.ID(), loaded.ID())
	require.Equal(t, "staff-1", loaded.User().UID)
	require.False(t, loaded.Dirty())
	require.Equal(t, "saved", loaded.PopFlash())
	require.Empty(t, loaded.PopFlash())
	require.True(t, loaded.Dirty())
}

func TestManagerIdleExpiry(t *testing.T) {
	mgr, clock := newTestManager(t)

	req := roundTrip(t, mgr, mgr.New())
	clock.current = clock.current.Add(11 * time.Minute)

	_, err := mgr.Load(req)
	require.ErrorIs(t, err, ErrExpired)
}

func TestManagerTamperedCookieStartsFresh(t *testing.T) {
	mgr, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "forged"})
	sess, err := mgr.Load(req)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID())
	require.Nil(t, sess.User())
}

func TestManagerDestroyClearsCookie(t *testing.T) {
	mgr, _ := newTestManager(t)

	sess := mgr.New()
	sess.Destroy()
	require.True(t, sess.Destroyed())

	rec := httptest.NewRecorder()
	require.NoError(t, mgr.Save(rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestSetUserCopiesRoles(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()

	roles := []string{"admin"}
	sess.SetUser(&User{UID: "u", Roles: roles})
	roles[0] = "viewer"
	require.Equal(t, []string{"admin"}, sess.User().Roles)
}
