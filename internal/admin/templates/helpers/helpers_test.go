package helpers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
)

func TestRenderMarkdownSanitises(t *testing.T) {
	t.Parallel()

	out := RenderMarkdown("**bold** line\nnext <script>alert(1)</script>")
	require.Contains(t, out, "<strong>bold</strong>")
	require.Contains(t, out, "<br")
	require.NotContains(t, out, "<script>")

	require.Empty(t, RenderMarkdown("   "))

	link := RenderMarkdown("[x](javascript:alert(1))")
	require.NotContains(t, link, "javascript:")
}

func TestHTMLEscapes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewHTML(&buf)
	h.Raw("<p").Attr("title", `a"b`).AttrIf(true, "hidden").AttrIf(false, "open").Raw(">").Text("<i>").Raw("</p>")
	require.NoError(t, h.Err())
	require.Equal(t, `<p title="a&#34;b" hidden>&lt;i&gt;</p>`, buf.String())
}

func TestHTMLRejectsUnsafeAttributeNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "onclick=alert(1) x", `a"b`, "x>", "data/x", "a\tb"} {
		var buf bytes.Buffer
		h := NewHTML(&buf)
		h.Raw("<p").Attr(name, "v").AttrIf(true, "hidden").Raw(">")
		require.ErrorIs(t, h.Err(), ErrAttrName, "%q", name)
		require.Equal(t, "<p", buf.String(), "nothing is written after the bad name")
	}

	var buf bytes.Buffer
	h := NewHTML(&buf)
	h.AttrIf(true, "x onload=alert(1)")
	require.ErrorIs(t, h.Err(), ErrAttrName)
	require.Empty(t, buf.String())

	buf.Reset()
	h = NewHTML(&buf)
	h.Attr("hx-on:htmx:after-swap", "x").AttrIf(true, "data-empty")
	require.NoError(t, h.Err())
}

func TestRoutesUseBasePath(t *testing.T) {
	t.Parallel()

	var ctx context.Context
	middleware.RequestInfoMiddleware("/admin", "")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, "/admin/introductions", Route(ctx, "/introductions"))
	require.Equal(t, "/admin/introductions/a%2Fb/edit", Routef(ctx, "introductions", "a/b", "edit"))
	require.Equal(t, "/admin/introductions/list?page=2&pageSize=10", WithPage("/admin/introductions/list", 2, 10))
	require.Equal(t, "/x", WithPage("/x", 1, 0))
}

func TestEnvironmentBadge(t *testing.T) {
	t.Parallel()

	require.Equal(t, "STG", EnvironmentBadge("Staging"))
	require.Equal(t, "DEV", EnvironmentBadge(""))
	require.Equal(t, "QA", EnvironmentBadge("qa"))
	require.True(t, strings.HasPrefix(EnvironmentBadge("production"), "PROD"))
}
