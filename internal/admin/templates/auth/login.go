package auth

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/mkshin96/portfolio/internal/admin/templates/helpers"
	"github.com/mkshin96/portfolio/internal/admin/templates/layout"
)

// LoginPageData is the rendering state of the login screen.
type LoginPageData struct {
	Message string
	Error   string
	Next    string
}

// LoginPage renders the sign-in form. The form accepts a Firebase ID token and the server stores it
// in the session cookie.
func LoginPage(data LoginPageData) templ.Component {
	content := helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		h.Raw(`<section class="login"><h1>`).Text(helpers.T(ctx, "auth.login.title")).Raw("</h1>")
		if data.Message != "" {
			h.Raw(`<p class="notice" role="status">`).Text(data.Message).Raw("</p>")
		}
		h.Component(ctx, layout.ErrorAlert(data.Error))
		h.Raw(`<form method="post" class="login-form"`).Attr("action", helpers.Route(ctx, "/login")).Raw(">")
		h.Component(ctx, layout.CSRFField())
		if data.Next != "" {
			h.Raw(`<input type="hidden" name="next"`).Attr("value", data.Next).Raw(">")
		}
		h.Raw(`<label class="field">`).Text(helpers.T(ctx, "auth.login.token")).
			Raw(`<textarea name="token" rows="4" required autocomplete="off"></textarea></label>`)
		h.Raw(`<button type="submit" class="btn btn-primary">`).Text(helpers.T(ctx, "auth.login.submit")).
			Raw("</button></form></section>")
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.Page(layout.PageData{
			Title:   helpers.T(ctx, "auth.login.title"),
			Content: content,
		}).Render(ctx, w)
	})
}
