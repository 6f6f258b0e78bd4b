package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
)

// ContextOptions shapes the request context used to render components in tests.
type ContextOptions struct {
	BasePath    string
	Environment string
	Lang        string
	Roles       []rbac.Role
	Anonymous   bool
}

// RequestContext builds a context as the admin middleware chain would, with an English localizer
// and an admin user unless the options say otherwise.
func RequestContext(t testing.TB, opts ContextOptions) context.Context {
	t.Helper()

	if opts.BasePath == "" {
		opts.BasePath = "/admin"
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if len(opts.Roles) == 0 {
		opts.Roles = []rbac.Role{rbac.RoleAdmin}
	}

	bundle, err := i18n.Load("ko", "ko", "en", "ja")
	if err != nil {
		t.Fatalf("load i18n bundle: %v", err)
	}

	var ctx context.Context
	handler := middleware.RequestInfoMiddleware(opts.BasePath, opts.Environment)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, opts.BasePath+"/introductions", nil))

	ctx = i18n.WithLocalizer(ctx, bundle.Localizer(opts.Lang))
	if !opts.Anonymous {
		roles := make([]string, 0, len(opts.Roles))
		for _, r := range opts.Roles {
			roles = append(roles, string(r))
		}
		ctx = middleware.ContextWithUser(ctx, &middleware.User{
			UID:   "user-1",
			Email: "user@example.com",
			Roles: roles,
			Token: "token",
		})
	}
	return ctx
}
