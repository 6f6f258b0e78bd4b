package layout

import (
	"context"
	"encoding/json"

	"github.com/a-h/templ"

	"github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/templates/helpers"
)

const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// Container IDs shared by handlers and scripts.
const (
	ModalRootID = "modal-root"
	ToastRootID = "toast-root"
)

// PageData describes the document shell.
type PageData struct {
	Title   string
	Active  string
	Flash   string
	Content templ.Component
}

// Page renders the full HTML document around data.Content.
func Page(data PageData) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		appTitle := helpers.T(ctx, "app.title")
		title := appTitle
		if data.Title != "" {
			title = data.Title + " | " + appTitle
		}
		csrf := middleware.CSRFTokenFromContext(ctx)

		h.Raw("<!DOCTYPE html><html").Attr("lang", helpers.Lang(ctx)).Raw("><head>")
		h.Raw(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw("<title>").Text(title).Raw("</title>")
		h.Raw(`<meta name="csrf-token"`).Attr("content", csrf).Raw(">")
		h.Raw(`<link rel="stylesheet"`).Attr("href", helpers.Route(ctx, "/public/static/admin.css")).Raw(">")
		h.Raw(`<script defer`).Attr("src", htmxSrc).Raw("></script>")
		h.Raw(`<script defer`).Attr("src", helpers.Route(ctx, "/public/static/admin.js")).Raw("></script>")
		h.Raw("</head><body").Attr("hx-headers", csrfHeaders(csrf)).Raw(">")

		h.Component(ctx, topbar(data.Active))
		h.Raw(`<main class="admin-main">`)
		if data.Flash != "" {
			h.Raw(`<div class="flash" role="status">`).Text(data.Flash).Raw("</div>")
		}
		h.Component(ctx, data.Content)
		h.Raw("</main>")
		h.Raw(`<div`).Attr("id", ModalRootID).Raw("></div>")
		h.Raw(`<div class="toasts" aria-live="polite"`).Attr("id", ToastRootID).Raw("></div>")
		h.Raw("</body></html>")
	})
}

func topbar(active string) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		env := middleware.EnvironmentFromContext(ctx)
		h.Raw(`<header class="topbar"><a class="brand"`).Attr("href", helpers.Route(ctx, "/")).Raw(">").
			Text(helpers.T(ctx, "app.title")).Raw("</a>")
		h.Raw(`<span class="env-badge" data-environment-badge`).Attr("data-env", env).Raw(">").Text(helpers.EnvironmentBadge(env)).Raw("</span>")

		h.Raw(`<nav><a`).Attr("href", helpers.Route(ctx, "/introductions"))
		h.AttrIf(active == "introductions", `aria-current="page"`)
		h.Raw(">").Text(helpers.T(ctx, "nav.introductions")).Raw("</a></nav>")

		if user := helpers.CurrentUser(ctx); user != "" {
			h.Raw(`<div class="account"><span class="user">`).Text(user).Raw("</span>")
			h.Raw(`<form method="post" data-logout`).Attr("action", helpers.Route(ctx, "/logout")).Raw(">")
			h.Raw(`<input type="hidden"`).Attr("name", middleware.CSRFFormField).Attr("value", middleware.CSRFTokenFromContext(ctx)).Raw(">")
			h.Raw(`<button type="submit">`).Text(helpers.T(ctx, "nav.logout")).Raw("</button></form></div>")
		}
		h.Raw("</header>")
	})
}

// ModalShell wraps dialog content with the backdrop and the dismiss markers read by admin.js.
// When submitOnDismiss is set, Escape and backdrop clicks submit formID instead of removing the
// dialog.
func ModalShell(id, title, formID string, submitOnDismiss bool, body templ.Component) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		h.Raw(`<div class="modal" role="dialog" aria-modal="true" data-modal`).Attr("id", id)
		if submitOnDismiss {
			h.Attr("data-dismiss-submit", formID)
		}
		h.Attr("aria-labelledby", id+"-title").Raw(">")
		h.Raw(`<div class="modal-backdrop" data-modal-backdrop></div>`)
		h.Raw(`<div class="modal-panel"><header class="modal-header"><h2`).Attr("id", id+"-title").Raw(">").Text(title).Raw("</h2>")
		if submitOnDismiss {
			h.Raw(`<button type="submit" class="modal-close" data-modal-close`).Attr("form", formID).
				Attr("aria-label", helpers.T(ctx, "introductions.close")).Raw(">&times;</button>")
		} else {
			h.Raw(`<button type="button" class="modal-close" data-modal-close`).
				Attr("aria-label", helpers.T(ctx, "introductions.close")).Raw(">&times;</button>")
		}
		h.Raw("</header>")
		h.Component(ctx, body)
		h.Raw("</div></div>")
	})
}

// ErrorAlert renders a dialog-level error message.
func ErrorAlert(message string) templ.Component {
	return helpers.Func(func(_ context.Context, h *helpers.HTML) {
		if message == "" {
			return
		}
		h.Raw(`<div class="alert alert-error" role="alert" data-modal-error>`).Text(message).Raw("</div>")
	})
}

// CSRFField renders the hidden CSRF input for forms.
func CSRFField() templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		h.Raw(`<input type="hidden"`).Attr("name", middleware.CSRFFormField).Attr("value", middleware.CSRFTokenFromContext(ctx)).Raw(">")
	})
}

func csrfHeaders(token string) string {
	b, err := json.Marshal(map[string]string{"X-CSRF-Token": token})
	if err != nil {
		return "{}"
	}
	return string(b)
}
