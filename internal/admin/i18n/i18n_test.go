package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAndTranslate(t *testing.T) {
	t.Parallel()

	b, err := Load("ko")
	require.NoError(t, err)
	require.Equal(t, []string{"ko", "en", "ja"}, b.Supported())

	require.Equal(t, "저장", b.T("ko", "introductions.save"))
	require.Equal(t, "Save", b.T("en", "introductions.save"))
	require.Equal(t, "저장", b.T("fr", "introductions.save"), "unknown language falls back")
	require.Equal(t, "missing.key", b.T("en", "missing.key"))
	require.Equal(t, "Section 3 title", b.T("en", "introductions.field.section_title", 3))
}

func TestLoadUnknownLocale(t *testing.T) {
	t.Parallel()

	_, err := Load("ko", "xx")
	require.Error(t, err)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	b, err := Load("ko")
	require.NoError(t, err)

	require.Equal(t, "en", b.Match("en-US,en;q=0.9"))
	require.Equal(t, "ja", b.Match("fr-FR;q=0.9, ja;q=0.8"))
	require.Equal(t, "ko", b.Match(""))
	require.Equal(t, "ko", b.Match("not a tag!!"))
}

func TestMiddlewareResolution(t *testing.T) {
	t.Parallel()

	b, err := Load("ko")
	require.NoError(t, err)

	var got string
	h := Middleware(b)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context()).Lang
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ja", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "en"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", got)

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/?lang=ja", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "en"})
	h.ServeHTTP(rec, req)
	require.Equal(t, "ja", got)
	require.Contains(t, rec.Header().Get("Set-Cookie"), "lang=ja")
}

func TestLocalizerSectionLabels(t *testing.T) {
	t.Parallel()

	b, err := Load("ko")
	require.NoError(t, err)

	labels := Localizer{bundle: b, Lang: "en"}.SectionLabels()
	require.Len(t, labels, 5)
	require.Equal(t, "Motivation", labels[1])

	require.Equal(t, "plain.key", FromContext(context.Background()).T("plain.key"))
}
