package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mkshin96/portfolio/internal/admin/observability"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
)

// RequireCapability answers 403 when the user lacks capability.
func RequireCapability(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !rbac.HasCapability(user.Roles, capability) {
				observability.FromContext(r.Context()).Warn("capability denied", zap.String("capability", string(capability)))
				if IsHTMXRequest(r.Context()) {
					w.Header().Set("HX-Reswap", "none")
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Can reports whether the request user holds capability. Templates use it to hide affordances.
func Can(r *http.Request, capability rbac.Capability) bool {
	user, ok := UserFromContext(r.Context())
	return ok && rbac.HasCapability(user.Roles, capability)
}
