package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/mkshin96/portfolio/internal/admin/rbac"
)

// ErrTokenExpired is returned when the Firebase token has expired.
var ErrTokenExpired = errors.New("firebase token expired")

// ErrEmailNotAllowed is returned when a verified token belongs to an account outside the allowed set.
var ErrEmailNotAllowed = errors.New("firebase account not allowed")

// FirebaseTokenVerifier is the subset of the Firebase Admin auth client used here.
type FirebaseTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseOption tunes a FirebaseAuthenticator.
type FirebaseOption func(*FirebaseAuthenticator)

// WithVerifiedEmail rejects tokens whose email_verified claim is not true.
func WithVerifiedEmail() FirebaseOption {
	return func(f *FirebaseAuthenticator) { f.requireVerified = true }
}

// WithAllowedDomains restricts sign-in to emails under the given domains.
func WithAllowedDomains(domains ...string) FirebaseOption {
	return func(f *FirebaseAuthenticator) {
		for _, d := range domains {
			if d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@")); d != "" {
				f.domains = append(f.domains, d)
			}
		}
	}
}

// FirebaseAuthenticator validates Firebase ID tokens for portfolio staff.
//
// Roles are read from the "portfolio" custom claim ({"roles": [...]}) and then from the flat
// "role"/"roles" claims. Only roles known to rbac survive.
type FirebaseAuthenticator struct {
	verifier        FirebaseTokenVerifier
	requireVerified bool
	domains         []string
}

// NewFirebaseAuthenticator constructs an Authenticator backed by verifier.
func NewFirebaseAuthenticator(verifier FirebaseTokenVerifier, opts ...FirebaseOption) *FirebaseAuthenticator {
	if verifier == nil {
		panic("firebase token verifier is required")
	}
	f := &FirebaseAuthenticator{verifier: verifier}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Authenticate verifies the ID token and maps its claims onto a User.
func (f *FirebaseAuthenticator) Authenticate(r *http.Request, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}

	verified, err := f.verifier.VerifyIDToken(r.Context(), token)
	switch {
	case err == nil:
	case firebaseauth.IsIDTokenExpired(err), errors.Is(err, ErrTokenExpired):
		return nil, NewAuthError(ReasonTokenExpired, err)
	default:
		return nil, NewAuthError(ReasonTokenInvalid, err)
	}

	claims := verified.Claims
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := f.admit(email, claims["email_verified"]); err != nil {
		return nil, NewAuthError(ReasonTokenInvalid, err)
	}

	return &User{
		UID:   verified.UID,
		Email: email,
		Roles: staffRoles(claims),
		Token: token,
	}, nil
}

func (f *FirebaseAuthenticator) admit(email string, verifiedClaim any) error {
	if f.requireVerified {
		if ok, _ := verifiedClaim.(bool); !ok {
			return fmt.Errorf("%w: email not verified", ErrEmailNotAllowed)
		}
	}
	if len(f.domains) == 0 {
		return nil
	}
	_, domain, found := strings.Cut(email, "@")
	if !found || !slices.Contains(f.domains, domain) {
		return fmt.Errorf("%w: %q", ErrEmailNotAllowed, email)
	}
	return nil
}

// staffRoles collects role names from the token claims, keeping only those rbac recognises.
func staffRoles(claims map[string]any) []string {
	var raw []string
	if scoped, ok := claims["portfolio"].(map[string]any); ok {
		raw = appendClaim(raw, scoped["roles"])
	}
	raw = appendClaim(raw, claims["role"])
	raw = appendClaim(raw, claims["roles"])

	var out []string
	for _, role := range rbac.NormaliseRoles(raw) {
		if rbac.Known(role) {
			out = append(out, string(role))
		}
	}
	return out
}

// appendClaim accepts a string, a list of strings, or a {role: true} map.
func appendClaim(dst []string, value any) []string {
	switch v := value.(type) {
	case string:
		return append(dst, strings.Split(v, ",")...)
	case []string:
		return append(dst, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				dst = append(dst, s)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key, val := range v {
			if granted, _ := val.(bool); granted {
				keys = append(keys, key)
			}
		}
		slices.Sort(keys)
		dst = append(dst, keys...)
	}
	return dst
}
