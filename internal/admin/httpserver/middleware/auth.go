package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mkshin96/portfolio/internal/admin/observability"
	appsession "github.com/mkshin96/portfolio/internal/admin/session"
)

type authContextKey struct{}

// TokenCookieName is the cookie the login form stores the ID token in.
const TokenCookieName = "__session"

// User is the authenticated staff member.
type User struct {
	UID   string
	Email string
	Roles []string
	// Token is forwarded to the introductions backend.
	Token string
}

// Authenticator resolves a bearer token into a User.
type Authenticator interface {
	Authenticate(r *http.Request, token string) (*User, error)
}

// ErrUnauthorized is returned when authentication fails.
var ErrUnauthorized = errors.New("unauthorized")

// AuthError carries a reason code for a failed authentication attempt.
type AuthError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError constructs an AuthError.
func NewAuthError(reason string, err error) error {
	return &AuthError{Reason: reason, Err: err}
}

const (
	// ReasonMissingToken indicates a request without credentials.
	ReasonMissingToken = "missing_token"
	// ReasonTokenInvalid indicates a malformed or rejected token.
	ReasonTokenInvalid = "token_invalid"
	// ReasonTokenExpired indicates an expired token.
	ReasonTokenExpired = "token_expired"
)

// DefaultAuthenticator accepts any non-empty token as an admin. Local development only.
func DefaultAuthenticator() Authenticator {
	return passthroughAuthenticator{}
}

// Auth authenticates the request and attaches the User, or sends the browser to the login page.
func Auth(authenticator Authenticator, loginPath string) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = DefaultAuthenticator()
	}
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())

			token := RequestToken(r)
			if token == "" {
				logger.Info("auth failure", zap.String("reason", ReasonMissingToken))
				forgetUser(r.Context())
				handleUnauthorized(w, r, loginPath, ReasonMissingToken)
				return
			}

			user, err := authenticator.Authenticate(r, token)
			if err != nil || user == nil {
				reason := ReasonTokenInvalid
				var authErr *AuthError
				if errors.As(err, &authErr) && authErr.Reason != "" {
					reason = authErr.Reason
				}
				if err == nil {
					err = ErrUnauthorized
				}
				logger.Warn("auth failure", zap.String("reason", reason), zap.Error(err))
				forgetUser(r.Context())
				handleUnauthorized(w, r, loginPath, reason)
				return
			}
			if user.Token == "" {
				user.Token = token
			}

			if sess, ok := SessionFromContext(r.Context()); ok {
				sess.SetUser(&appsession.User{
					UID:   user.UID,
					Email: user.Email,
					Roles: user.Roles,
				})
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = observability.WithLogger(ctx, logger.With(zap.String("user_id", user.UID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUser attaches user to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, authContextKey{}, user)
}

// UserFromContext returns the authenticated user.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(authContextKey{}).(*User)
	return user, ok && user != nil
}

// RequestToken extracts the ID token from the Authorization header or the token cookie.
func RequestToken(r *http.Request) string {
	if token := parseBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	for _, name := range []string{TokenCookieName, "idToken"} {
		c, err := r.Cookie(name)
		if err != nil {
			continue
		}
		if val := parseBearerToken(c.Value); val != "" {
			return val
		}
		if val := strings.TrimSpace(c.Value); val != "" {
			return val
		}
	}
	return ""
}

func parseBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath, reason string) {
	if IsHTMXRequest(r.Context()) {
		if reason == ReasonTokenExpired {
			w.Header().Set("HX-Refresh", "true")
		} else {
			w.Header().Set("HX-Redirect", loginPath)
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginRedirect(r, loginPath, reason), http.StatusFound)
}

// loginRedirect builds the login URL, carrying the page to return to for plain GETs.
func loginRedirect(r *http.Request, loginPath, reason string) string {
	u, err := url.Parse(loginPath)
	if err != nil {
		return loginPath
	}
	q := u.Query()
	if r.Method == http.MethodGet {
		q.Set("next", r.URL.RequestURI())
	}
	if reason == ReasonTokenExpired {
		q.Set("reason", "expired")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func forgetUser(ctx context.Context) {
	if sess, ok := SessionFromContext(ctx); ok {
		sess.SetUser(nil)
	}
}

type passthroughAuthenticator struct{}

func (passthroughAuthenticator) Authenticate(_ *http.Request, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	return &User{
		UID:   token,
		Roles: []string{"admin"},
		Token: token,
	}, nil
}
