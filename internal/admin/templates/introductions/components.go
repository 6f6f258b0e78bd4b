package introductions

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/templates/helpers"
	"github.com/mkshin96/portfolio/internal/admin/templates/layout"
)

const fieldTrigger = "input changed delay:400ms"

// Page renders the introductions page body.
func Page(data PageData) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		h.Raw(`<section class="page-header"><div><h1>`).Text(helpers.T(ctx, "introductions.heading")).Raw("</h1>")
		h.Raw(`<p class="subtitle">`).Text(helpers.T(ctx, "introductions.subtitle")).Raw("</p></div>")
		if data.Permissions.Create {
			h.Raw(`<button type="button" class="btn btn-primary" data-action="new"`).
				Attr("hx-get", helpers.Route(ctx, "/introductions/new")).
				Attr("hx-target", "#"+layout.ModalRootID).
				Attr("hx-swap", "innerHTML").Raw(">").
				Text(helpers.T(ctx, "introductions.new")).Raw("</button>")
		}
		h.Raw("</section>")
		h.Component(ctx, List(data.List))
	})
}

// List renders the panel list. It reloads itself when ChangedEvent fires.
func List(data ListData) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		listPath := helpers.Route(ctx, "/introductions/list")
		h.Raw(`<section class="intro-list"`).Attr("id", ListID).
			Attr("hx-get", helpers.WithPage(listPath, data.Page, data.PageSize)).
			Attr("hx-trigger", ChangedEvent+" from:body").
			Attr("hx-swap", "outerHTML").Raw(">")

		switch {
		case data.Error != "":
			h.Component(ctx, layout.ErrorAlert(data.Error))
		case len(data.Panels) == 0:
			h.Raw(`<p class="empty" data-empty>`).Text(helpers.T(ctx, "introductions.empty")).Raw("</p>")
		}
		for _, panel := range data.Panels {
			h.Component(ctx, Panel(panel))
		}
		h.Component(ctx, pager(data))
		h.Raw("</section>")
	})
}

func pager(data ListData) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		if data.TotalPages <= 1 && !data.HasPrev {
			return
		}
		pagePath := helpers.Route(ctx, "/introductions")
		listPath := helpers.Route(ctx, "/introductions/list")
		link := func(page int, key, rel string) {
			h.Raw(`<a class="pager-link"`).Attr("rel", rel).
				Attr("href", helpers.WithPage(pagePath, page, data.PageSize)).
				Attr("hx-get", helpers.WithPage(listPath, page, data.PageSize)).
				Attr("hx-target", "#"+ListID).
				Attr("hx-swap", "outerHTML").
				Attr("hx-push-url", helpers.WithPage(pagePath, page, data.PageSize)).Raw(">").
				Text(helpers.T(ctx, key)).Raw("</a>")
		}
		h.Raw(`<nav class="pager" aria-label="pagination">`)
		if data.HasPrev {
			link(data.Page-1, "pager.prev", "prev")
		}
		h.Raw(`<span class="pager-summary">`).
			Text(helpers.T(ctx, "pager.summary", data.Page, max(data.TotalPages, 1), data.TotalItems)).Raw("</span>")
		if data.HasNext {
			link(data.Page+1, "pager.next", "next")
		}
		h.Raw("</nav>")
	})
}

// Panel renders one entry as a collapsible panel: the title in the summary and the five sections
// in the body. Section content is rendered as sanitised markdown.
func Panel(data PanelData) templ.Component {
	return helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		view := data.View
		id := view.ID.String()
		title := view.Title
		if title == "" {
			title = helpers.T(ctx, "introductions.untitled")
		}

		h.Raw(`<details class="intro-panel"`).Attr("id", PanelDOMID(view.ID)).Attr("data-introduction-id", id).
			AttrIf(data.Open, "open").AttrIf(view.Empty(), "data-empty").Raw(">")
		h.Raw(`<summary><span class="intro-title">`).Text(title).Raw("</span>")
		if data.Permissions.Edit || data.Permissions.Delete {
			h.Raw(`<span class="intro-actions">`)
			if data.Permissions.Edit {
				h.Raw(`<button type="button" class="btn" data-panel-action="edit"`).
					Attr("hx-get", helpers.Routef(ctx, "introductions", id, "edit")).
					Attr("hx-target", "#"+layout.ModalRootID).
					Attr("hx-swap", "innerHTML").Raw(">").
					Text(helpers.T(ctx, "introductions.edit")).Raw("</button>")
			}
			if data.Permissions.Delete {
				h.Raw(`<button type="button" class="btn btn-danger" data-panel-action="delete"`).
					Attr("hx-get", helpers.Routef(ctx, "introductions", id, "delete")).
					Attr("hx-target", "#"+layout.ModalRootID).
					Attr("hx-swap", "innerHTML").Raw(">").
					Text(helpers.T(ctx, "introductions.delete")).Raw("</button>")
			}
			h.Raw("</span>")
		}
		h.Raw("</summary>")

		h.Raw(`<div class="intro-body">`)
		if view.Empty() {
			h.Raw(`<p class="intro-empty">`).Text(helpers.T(ctx, "introductions.panel.empty")).Raw("</p>")
		}
		for _, sec := range view.Sections {
			h.Raw(`<section class="intro-section"`).Attr("data-section", strconv.Itoa(sec.Index)).Raw("><h3")
			if sec.Untitled {
				h.Raw(` class="untitled"`)
			}
			h.Raw(">").Text(sec.Label).Raw(`</h3><div class="intro-content">`)
			h.Component(ctx, helpers.Markdown(sec.Content))
			h.Raw("</div></section>")
		}
		h.Raw("</div></details>")
	})
}

// EditorModal renders the editor dialog. Every way of closing it (the close icon, the save button,
// Escape and backdrop clicks) submits the same form, which persists the whole draft.
func EditorModal(data EditorData) templ.Component {
	body := helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		entry := data.Entry
		id := entry.ID.String()
		fieldURL := func(f introductions.Field) string {
			return helpers.Routef(ctx, "introductions", "editors", data.Token, "fields", f.Name())
		}

		h.Raw(`<form class="editor-form"`).Attr("id", EditorFormID).
			Attr("hx-put", helpers.Routef(ctx, "introductions", id)).
			Attr("hx-target", "#"+PanelDOMID(entry.ID)).
			Attr("hx-swap", "outerHTML").
			Attr("hx-sync", "this:drop").
			Attr("data-editor-token", data.Token).Raw(">")
		h.Component(ctx, layout.CSRFField())
		h.Raw(`<input type="hidden" name="editor"`).Attr("value", data.Token).Raw(">")
		h.Component(ctx, layout.ErrorAlert(data.Error))
		h.Raw(`<p class="hint">`).Text(helpers.T(ctx, "introductions.editor.hint")).Raw("</p>")

		h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.title"))
		h.Raw(`<input type="text" required`).Attr("name", introductions.FieldTitle.Name()).
			Attr("value", entry.Title).
			Attr("hx-patch", fieldURL(introductions.FieldTitle)).
			Attr("hx-trigger", fieldTrigger).
			Attr("hx-swap", "none").
			Attr("hx-sync", "closest form:abort").Raw("></label>")

		for n := 1; n <= introductions.SectionCount; n++ {
			titleField, contentField := introductions.SectionTitle(n), introductions.SectionContent(n)
			h.Raw(`<fieldset class="section-fields"`).Attr("data-section", strconv.Itoa(n)).Raw("><legend>").
				Text(label(data.Labels, n)).Raw("</legend>")
			h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.section_title", n))
			h.Raw(`<input type="text"`).Attr("name", titleField.Name()).
				Attr("value", entry.Get(titleField)).
				Attr("placeholder", label(data.Labels, n)).
				Attr("hx-patch", fieldURL(titleField)).
				Attr("hx-trigger", fieldTrigger).
				Attr("hx-swap", "none").
				Attr("hx-sync", "closest form:abort").Raw("></label>")
			h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.section_content", n))
			h.Raw(`<textarea rows="6"`).Attr("name", contentField.Name()).
				Attr("hx-patch", fieldURL(contentField)).
				Attr("hx-trigger", fieldTrigger).
				Attr("hx-swap", "none").
				Attr("hx-sync", "closest form:abort").Raw(">").
				Text(entry.Get(contentField)).Raw("</textarea></label></fieldset>")
		}

		h.Raw(`<footer class="modal-footer"><span class="htmx-indicator">`).
			Text(helpers.T(ctx, "introductions.editor.saving")).Raw("</span>")
		h.Raw(`<button type="submit" class="btn btn-primary" data-editor-save>`).
			Text(helpers.T(ctx, "introductions.save")).Raw("</button></footer></form>")
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.ModalShell(EditorID, helpers.T(ctx, "introductions.editor.heading"), EditorFormID, true, body).Render(ctx, w)
	})
}

// CreateModal renders the dialog for a new entry.
func CreateModal(data CreateData) templ.Component {
	body := helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		entry := data.Entry
		h.Raw(`<form class="editor-form"`).Attr("id", CreateFormID).
			Attr("hx-post", helpers.Route(ctx, "/introductions")).
			Attr("hx-target", "#"+layout.ModalRootID).
			Attr("hx-swap", "innerHTML").
			Attr("hx-sync", "this:drop").Raw(">")
		h.Component(ctx, layout.CSRFField())
		h.Component(ctx, layout.ErrorAlert(data.Error))

		h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.title"))
		h.Raw(`<input type="text" required`).Attr("name", introductions.FieldTitle.Name()).
			Attr("value", entry.Title).Raw("></label>")
		for n := 1; n <= introductions.SectionCount; n++ {
			titleField, contentField := introductions.SectionTitle(n), introductions.SectionContent(n)
			h.Raw(`<fieldset class="section-fields"`).Attr("data-section", strconv.Itoa(n)).Raw("><legend>").
				Text(label(data.Labels, n)).Raw("</legend>")
			h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.section_title", n))
			h.Raw(`<input type="text"`).Attr("name", titleField.Name()).
				Attr("value", entry.Get(titleField)).
				Attr("placeholder", label(data.Labels, n)).Raw("></label>")
			h.Raw(`<label class="field">`).Text(helpers.T(ctx, "introductions.field.section_content", n))
			h.Raw(`<textarea rows="4"`).Attr("name", contentField.Name()).Raw(">").
				Text(entry.Get(contentField)).Raw("</textarea></label></fieldset>")
		}
		h.Raw(`<footer class="modal-footer"><button type="button" class="btn" data-modal-close>`).
			Text(helpers.T(ctx, "introductions.cancel")).Raw("</button>")
		h.Raw(`<button type="submit" class="btn btn-primary">`).
			Text(helpers.T(ctx, "introductions.create")).Raw("</button></footer></form>")
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.ModalShell(CreateID, helpers.T(ctx, "introductions.create.heading"), CreateFormID, false, body).Render(ctx, w)
	})
}

// DeleteModal renders the delete confirmation.
func DeleteModal(data DeleteData) templ.Component {
	body := helpers.Func(func(ctx context.Context, h *helpers.HTML) {
		title := data.Title
		if title == "" {
			title = helpers.T(ctx, "introductions.untitled")
		}
		h.Raw(`<form`).Attr("id", DeleteFormID).
			Attr("hx-delete", helpers.Routef(ctx, "introductions", data.ID.String())).
			Attr("hx-target", "#"+PanelDOMID(data.ID)).
			Attr("hx-swap", "outerHTML").
			Attr("hx-sync", "this:drop").Raw(">")
		h.Component(ctx, layout.CSRFField())
		h.Component(ctx, layout.ErrorAlert(data.Error))
		h.Raw("<p>").Text(helpers.T(ctx, "introductions.delete.confirm", title)).Raw("</p>")
		h.Raw(`<footer class="modal-footer"><button type="button" class="btn" data-modal-close>`).
			Text(helpers.T(ctx, "introductions.cancel")).Raw("</button>")
		h.Raw(`<button type="submit" class="btn btn-danger">`).
			Text(helpers.T(ctx, "introductions.delete")).Raw("</button></footer></form>")
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.ModalShell(DeleteID, helpers.T(ctx, "introductions.delete.heading"), DeleteFormID, false, body).Render(ctx, w)
	})
}
