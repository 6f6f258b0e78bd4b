package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mkshin96/portfolio/internal/admin/httpserver"
	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
	"github.com/mkshin96/portfolio/internal/admin/session"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithAuthenticator overrides the authenticator used by the admin server.
func WithAuthenticator(auth middleware.Authenticator) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Authenticator = auth
	}
}

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithIntroductionsService wires a custom store.
func WithIntroductionsService(service introductions.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Introductions = service
	}
}

// WithEditorRegistry wires a custom editor registry.
func WithEditorRegistry(reg *introductions.EditorRegistry) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Editors = reg
	}
}

// WithLogger replaces the test logger.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// NewServer constructs an httptest server running the admin HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	sessions, err := session.NewManager(session.Config{
		CookieName: "admin_session",
		HashKey:    []byte("0123456789abcdef0123456789abcdef"),
		BlockKey:   []byte("abcdef0123456789abcdef0123456789"),
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	cfg := httpserver.Config{
		Address:        ":0",
		BasePath:       "/admin",
		Environment:    "Test",
		CSRFCookieName: "csrf_token",
		CSRFHeaderName: "X-CSRF-Token",
		Authenticator:  middleware.DefaultAuthenticator(),
		Sessions:       sessions,
		Logger:         zaptest.NewLogger(t),
		Introductions:  introductions.NewSampleService(),
		Editors:        introductions.NewEditorRegistry(introductions.DefaultEditorTTL),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// TokenAuthenticator maps bearer tokens onto fixed users.
type TokenAuthenticator map[string]*middleware.User

// Authenticate implements middleware.Authenticator.
func (a TokenAuthenticator) Authenticate(_ *http.Request, token string) (*middleware.User, error) {
	user, ok := a[token]
	if !ok {
		return nil, middleware.NewAuthError(middleware.ReasonTokenInvalid, middleware.ErrUnauthorized)
	}
	copied := *user
	copied.Token = token
	return &copied, nil
}

// RoleUsers returns an authenticator with one user per role, keyed by the role name.
func RoleUsers() TokenAuthenticator {
	users := TokenAuthenticator{}
	for _, role := range []rbac.Role{rbac.RoleAdmin, rbac.RoleEditor, rbac.RoleViewer} {
		users[string(role)] = &middleware.User{
			UID:   string(role) + "-1",
			Email: string(role) + "@example.com",
			Roles: []string{string(role)},
		}
	}
	return users
}
