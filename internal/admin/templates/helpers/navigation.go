package helpers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
)

// Route joins the admin base path from ctx with p.
func Route(ctx context.Context, p string) string {
	return middleware.JoinBase(middleware.BasePathFromContext(ctx), p)
}

// Routef joins path segments, escaping each one.
func Routef(ctx context.Context, segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		parts = append(parts, url.PathEscape(s))
	}
	return Route(ctx, "/"+strings.Join(parts, "/"))
}

// WithPage adds page and pageSize query parameters to a path.
func WithPage(p string, page, pageSize int) string {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}

// T translates key for the request language.
func T(ctx context.Context, key string, args ...any) string {
	return i18n.FromContext(ctx).T(key, args...)
}

// Lang returns the request language.
func Lang(ctx context.Context) string {
	if l := i18n.FromContext(ctx).Lang; l != "" {
		return l
	}
	return "ko"
}

// Can reports whether the current user holds capability.
func Can(ctx context.Context, capability rbac.Capability) bool {
	user, ok := middleware.UserFromContext(ctx)
	return ok && rbac.HasCapability(user.Roles, capability)
}

// CurrentUser returns a display label for the signed-in user.
func CurrentUser(ctx context.Context) string {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return ""
	}
	if user.Email != "" {
		return user.Email
	}
	return user.UID
}

// EnvironmentBadge abbreviates the environment label.
func EnvironmentBadge(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return "PROD"
	case "staging", "stg":
		return "STG"
	case "", "development", "dev":
		return "DEV"
	default:
		return strings.ToUpper(env)
	}
}
