package middleware

import (
	"context"
	"net/http"
	"strings"
)

type requestInfoKey struct{}

// RequestInfo is request metadata exposed to templates.
type RequestInfo struct {
	Path        string
	BasePath    string
	Method      string
	Environment string
}

// RequestInfoMiddleware records the path, base path and environment label for templates.
// Empty environment labels default to "Development".
func RequestInfoMiddleware(basePath, environment string) func(http.Handler) http.Handler {
	base := NormaliseBase(basePath)
	env := strings.TrimSpace(environment)
	if env == "" {
		env = "Development"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				Path:        r.URL.Path,
				Method:      r.Method,
				BasePath:    base,
				Environment: env,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))
		})
	}
}

// RequestInfoFromContext returns the stored RequestInfo.
func RequestInfoFromContext(ctx context.Context) (*RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info, ok && info != nil
}

// BasePathFromContext returns the admin base path, or "/".
func BasePathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.BasePath != "" {
		return info.BasePath
	}
	return "/"
}

// EnvironmentFromContext returns the deployment label, or "Development".
func EnvironmentFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.Environment != "" {
		return info.Environment
	}
	return "Development"
}

// NormaliseBase returns base with a leading slash and no trailing slash ("/" for empty).
func NormaliseBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if base != "/" {
		base = strings.TrimRight(base, "/")
		if base == "" {
			return "/"
		}
	}
	return base
}

// JoinBase joins the base path and a route path.
func JoinBase(base, p string) string {
	base = NormaliseBase(base)
	if p == "" || p == "/" {
		if base == "/" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if base == "/" {
		return p
	}
	return base + p
}
