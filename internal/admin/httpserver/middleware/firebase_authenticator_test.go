package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"
)

type stubFirebaseVerifier struct {
	token *firebaseauth.Token
	err   error
	seen  string
}

func (s *stubFirebaseVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	s.seen = idToken
	return s.token, s.err
}

func staffToken(claims map[string]any) *stubFirebaseVerifier {
	return &stubFirebaseVerifier{token: &firebaseauth.Token{UID: "staff-1", Claims: claims}}
}

func TestFirebaseAuthenticatorMapsStaffClaims(t *testing.T) {
	verifier := staffToken(map[string]any{
		"email":     " Writer@Portfolio.dev ",
		"portfolio": map[string]any{"roles": []any{"Editor"}},
		"role":      "viewer, owner",
		"roles":     map[string]any{"editor": true, "admin": false},
	})

	user, err := NewFirebaseAuthenticator(verifier).Authenticate(httptest.NewRequest(http.MethodGet, "/", nil), " id-token ")
	require.NoError(t, err)
	require.Equal(t, "id-token", verifier.seen)
	require.Equal(t, "staff-1", user.UID)
	require.Equal(t, "writer@portfolio.dev", user.Email)
	require.Equal(t, []string{"editor", "viewer"}, user.Roles, "unknown roles are dropped")
	require.Equal(t, "id-token", user.Token)
}

func TestFirebaseAuthenticatorAdmission(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	cases := []struct {
		name   string
		claims map[string]any
		opts   []FirebaseOption
		ok     bool
	}{
		{name: "no restrictions", claims: map[string]any{"email": "a@elsewhere.io"}, ok: true},
		{
			name:   "unverified email rejected",
			claims: map[string]any{"email": "a@portfolio.dev", "email_verified": false},
			opts:   []FirebaseOption{WithVerifiedEmail()},
		},
		{
			name:   "verified email accepted",
			claims: map[string]any{"email": "a@portfolio.dev", "email_verified": true},
			opts:   []FirebaseOption{WithVerifiedEmail()},
			ok:     true,
		},
		{
			name:   "domain allowed",
			claims: map[string]any{"email": "a@Portfolio.dev"},
			opts:   []FirebaseOption{WithAllowedDomains("@portfolio.dev")},
			ok:     true,
		},
		{
			name:   "domain rejected",
			claims: map[string]any{"email": "a@elsewhere.io"},
			opts:   []FirebaseOption{WithAllowedDomains("portfolio.dev")},
		},
		{
			name:   "missing email rejected under domain rule",
			claims: map[string]any{},
			opts:   []FirebaseOption{WithAllowedDomains("portfolio.dev")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFirebaseAuthenticator(staffToken(tc.claims), tc.opts...).Authenticate(req, "tok")
			if tc.ok {
				require.NoError(t, err)
				return
			}
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, ReasonTokenInvalid, authErr.Reason)
			require.ErrorIs(t, err, ErrEmailNotAllowed)
		})
	}
}

func TestFirebaseAuthenticatorVerifierFailures(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	var authErr *AuthError

	_, err := NewFirebaseAuthenticator(&stubFirebaseVerifier{err: ErrTokenExpired}).Authenticate(req, "expired")
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, ReasonTokenExpired, authErr.Reason)

	_, err = NewFirebaseAuthenticator(&stubFirebaseVerifier{err: errors.New("bad signature")}).Authenticate(req, "forged")
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, ReasonTokenInvalid, authErr.Reason)

	verifier := &stubFirebaseVerifier{}
	_, err = NewFirebaseAuthenticator(verifier).Authenticate(req, "  ")
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, ReasonMissingToken, authErr.Reason)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Empty(t, verifier.seen)
}
