package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	custommw "github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/observability"
	appsession "github.com/mkshin96/portfolio/internal/admin/session"
	"github.com/mkshin96/portfolio/internal/admin/templates/auth"
)

type authHandlers struct {
	authenticator custommw.Authenticator
	basePath      string
	loginPath     string
}

func newAuthHandlers(authenticator custommw.Authenticator, basePath, loginPath string) *authHandlers {
	if authenticator == nil {
		panic("auth: authenticator is required")
	}
	basePath = custommw.NormaliseBase(basePath)
	if strings.TrimSpace(loginPath) == "" {
		loginPath = custommw.JoinBase(basePath, "/login")
	}
	return &authHandlers{
		authenticator: authenticator,
		basePath:      basePath,
		loginPath:     loginPath,
	}
}

// LoginForm renders the sign-in page, or skips it for an already signed-in session.
func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.isAuthenticated(r) && custommw.RequestToken(r) != "" {
		http.Redirect(w, r, h.redirectTarget(r.URL.Query().Get("next")), http.StatusFound)
		return
	}
	h.renderLoginPage(w, r, auth.LoginPageData{
		Message: h.messageForQuery(r, r.URL.Query()),
		Next:    h.normalizeNext(r.URL.Query().Get("next")),
	}, http.StatusOK)
}

// LoginSubmit verifies the submitted ID token, records the user on the session and stores the
// token in the auth cookie.
func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromContext(r.Context())
	logger := observability.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderLoginPage(w, r, auth.LoginPageData{Error: loc.T("auth.login.failed")}, http.StatusBadRequest)
		return
	}

	next := h.normalizeNext(r.PostFormValue("next"))
	token := strings.TrimSpace(r.PostFormValue("token"))
	if token == "" {
		h.renderLoginPage(w, r, auth.LoginPageData{Error: loc.T("auth.login.failed"), Next: next}, http.StatusBadRequest)
		return
	}

	user, err := h.authenticator.Authenticate(r, token)
	if err != nil || user == nil {
		if err == nil {
			err = custommw.ErrUnauthorized
		}
		logger.Info("admin login failed", zap.Error(err))
		h.renderLoginPage(w, r, auth.LoginPageData{Error: h.errorMessageFor(r, err), Next: next}, http.StatusUnauthorized)
		return
	}

	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.SetUser(&appsession.User{
			UID:   user.UID,
			Email: user.Email,
			Roles: append([]string(nil), user.Roles...),
		})
	}
	issued := token
	if user.Token != "" {
		issued = user.Token
	}
	h.setAuthCookie(w, r, issued)
	logger.Info("admin login", zap.String("user_id", user.UID))

	target := h.redirectTarget(next)
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout destroys the session and clears the auth cookie.
func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}
	h.clearAuthCookie(w)

	redirect := h.loginPath + "?status=logged_out"
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", redirect)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *authHandlers) renderLoginPage(w http.ResponseWriter, r *http.Request, data auth.LoginPageData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := auth.LoginPage(data).Render(r.Context(), w); err != nil {
		observability.FromContext(r.Context()).Error("render login page", zap.Error(err))
	}
}

func (h *authHandlers) isAuthenticated(r *http.Request) bool {
	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		return false
	}
	user := sess.User()
	return user != nil && strings.TrimSpace(user.UID) != ""
}

func (h *authHandlers) errorMessageFor(r *http.Request, err error) string {
	loc := i18n.FromContext(r.Context())
	var authErr *custommw.AuthError
	if errors.As(err, &authErr) && authErr.Reason == custommw.ReasonTokenExpired {
		return loc.T("auth.login.expired")
	}
	return loc.T("auth.login.failed")
}

func (h *authHandlers) messageForQuery(r *http.Request, q url.Values) string {
	loc := i18n.FromContext(r.Context())
	if q.Get("status") == "logged_out" {
		return loc.T("auth.login.logged_out")
	}
	switch q.Get("reason") {
	case "expired", custommw.ReasonTokenExpired:
		return loc.T("auth.login.expired")
	}
	return ""
}

func (h *authHandlers) redirectTarget(raw string) string {
	if next := h.normalizeNext(raw); next != "" {
		return next
	}
	return h.basePath
}

func (h *authHandlers) setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	if strings.TrimSpace(token) == "" {
		h.clearAuthCookie(w)
		return
	}
	cookie := &http.Cookie{
		Name:     custommw.TokenCookieName,
		Value:    token,
		Path:     h.basePath,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		if expiry := sess.ExpiresAt(); !expiry.IsZero() {
			cookie.Expires = expiry.UTC()
			if remaining := time.Until(expiry); remaining > 0 {
				cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
			}
		}
	}
	http.SetCookie(w, cookie)
}

func (h *authHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     custommw.TokenCookieName,
		Value:    "",
		Path:     h.basePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// normalizeNext accepts only local paths under the base path, and never the login page itself.
func (h *authHandlers) normalizeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return ""
	}
	unescaped, err := url.PathUnescape(parsed.Path)
	if err != nil || strings.Contains(unescaped, "\\") {
		return ""
	}
	cleaned := path.Clean("/" + strings.TrimLeft(unescaped, "/"))
	if strings.HasPrefix(unescaped, "//") {
		return ""
	}
	if h.basePath != "/" && cleaned != h.basePath && !strings.HasPrefix(cleaned, h.basePath+"/") {
		return ""
	}
	if cleaned == path.Clean(h.loginPath) {
		return ""
	}
	if parsed.RawQuery != "" {
		cleaned += "?" + parsed.RawQuery
	}
	return cleaned
}
