package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	custommw "github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/observability"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
	introtpl "github.com/mkshin96/portfolio/internal/admin/templates/introductions"
	"github.com/mkshin96/portfolio/internal/admin/templates/layout"
)

// IntroductionsPage renders the full introductions page.
func (h *Handlers) IntroductionsPage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, status := h.loadList(r, user)

	flash := ""
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		flash = sess.PopFlash()
	}
	loc := localizer(r)
	page := layout.Page(layout.PageData{
		Title:  loc.T("introductions.heading"),
		Active: "introductions",
		Flash:  flash,
		Content: introtpl.Page(introtpl.PageData{
			List:        list,
			Permissions: list.Permissions,
		}),
	})
	render(w, r, status, page)
}

// IntroductionsList renders the list fragment.
func (h *Handlers) IntroductionsList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, _ := h.loadList(r, user)
	render(w, r, http.StatusOK, introtpl.List(list))
}

func (h *Handlers) loadList(r *http.Request, user *custommw.User) (introtpl.ListData, int) {
	ctx := r.Context()
	query := parseListQuery(r, h.pageSize)
	perms := permissions(r)
	loc := localizer(r)

	result, err := h.introductions.List(ctx, user.Token, query)
	if err != nil {
		observability.FromContext(ctx).Error("introductions: list failed",
			zap.Error(err),
			zap.Int("page", query.Page),
			zap.Int("page_size", query.PageSize),
		)
		return introtpl.ListData{
			Page:        query.Page,
			PageSize:    query.PageSize,
			Error:       loc.T("introductions.error.load"),
			Permissions: perms,
		}, http.StatusBadGateway
	}
	return introtpl.NewListData(result, loc.SectionLabels(), perms), http.StatusOK
}

// IntroductionPanel re-reads one entry and renders its panel.
func (h *Handlers) IntroductionPanel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := h.fetchEntry(w, r, user)
	if !ok {
		return
	}
	data := introtpl.NewPanelData(entry, localizer(r).SectionLabels(), permissions(r))
	data.Open = r.URL.Query().Get("open") != ""
	render(w, r, http.StatusOK, introtpl.Panel(data))
}

// IntroductionEditor opens an editor on the latest stored entry and renders the modal.
func (h *Handlers) IntroductionEditor(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := h.fetchEntry(w, r, user)
	if !ok {
		return
	}

	token, editor := h.editors.Open(editorOwner(r, user), entry)
	snap := editor.Snapshot()
	observability.FromContext(r.Context()).Debug("introductions: editor opened",
		zap.String("introduction_id", entry.ID.String()),
		zap.String("editor", token),
	)
	render(w, r, http.StatusOK, introtpl.EditorModal(introtpl.EditorData{
		Token:    token,
		Entry:    snap.Draft,
		OpenedAt: snap.OpenedAt,
		Labels:   localizer(r).SectionLabels(),
	}))
}

// IntroductionFieldChange records one field change on an open editor.
func (h *Handlers) IntroductionFieldChange(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	field, err := introductions.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	values, present := r.PostForm[field.Name()]
	if !present || len(values) == 0 {
		http.Error(w, "missing field value", http.StatusBadRequest)
		return
	}

	editor, err := h.editors.Lookup(editorOwner(r, user), chi.URLParam(r, "token"))
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		return
	}
	if err := editor.Set(field, values[0]); err != nil {
		observability.FromContext(r.Context()).Debug("introductions: field change rejected",
			zap.String("field", field.Name()),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IntroductionSave applies the submitted form to the open editor and closes it, persisting the
// whole record. A failed save keeps the editor open and re-renders the dialog with the error.
func (h *Handlers) IntroductionSave(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	loc := localizer(r)

	id := introductions.ID(strings.TrimSpace(chi.URLParam(r, "id")))
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	token := strings.TrimSpace(r.PostFormValue("editor"))

	editor, err := h.editors.LookupFor(editorOwner(r, user), token, id)
	if err != nil {
		logger.Info("introductions: save without open editor",
			zap.String("introduction_id", id.String()),
			zap.Error(err),
		)
		h.editorGone(w, r)
		return
	}

	for _, field := range introductions.Fields() {
		values, present := r.PostForm[field.Name()]
		if !present || len(values) == 0 {
			continue
		}
		if err := editor.Set(field, values[0]); err != nil {
			h.editorBusy(w, r, err)
			return
		}
	}

	changed := editor.Snapshot().Dirty()
	saved, err := editor.Close(ctx, introductions.ServiceSaver(h.introductions, user.Token))
	if err != nil {
		var saveErr *introductions.SaveError
		if !errors.As(err, &saveErr) {
			h.editorBusy(w, r, err)
			return
		}
		logger.Error("introductions: save failed",
			zap.String("introduction_id", id.String()),
			zap.Error(err),
		)
		snap := editor.Snapshot()
		retargetModal(w)
		render(w, r, http.StatusOK, introtpl.EditorModal(introtpl.EditorData{
			Token:    token,
			Entry:    snap.Draft,
			OpenedAt: snap.OpenedAt,
			Labels:   loc.SectionLabels(),
			Error:    h.errorMessage(r, saveErr.Err, "introductions.error.save"),
		}))
		return
	}

	h.editors.Discard(token)
	logger.Info("introductions: saved",
		zap.String("introduction_id", saved.ID.String()),
		zap.Bool("changed", changed),
	)

	custommw.SetTrigger(w, custommw.Triggers{}.
		Event(introtpl.ModalCloseEvent).
		Toast(loc.T("introductions.toast.saved"), "success"))
	data := introtpl.NewPanelData(saved, loc.SectionLabels(), permissions(r))
	data.Open = true
	render(w, r, http.StatusOK, introtpl.Panel(data))
}

// editorGone answers a save whose editor is unknown, expired or owned by another session.
func (h *Handlers) editorGone(w http.ResponseWriter, r *http.Request) {
	custommw.SetTrigger(w, custommw.Triggers{}.
		Event(introtpl.ModalCloseEvent).
		Toast(localizer(r).T("introductions.error.editor_gone"), "error"))
	w.WriteHeader(http.StatusConflict)
}

// editorBusy answers a second close while the first save is still running.
func (h *Handlers) editorBusy(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, introductions.ErrEditorClosed) {
		h.editorGone(w, r)
		return
	}
	observability.FromContext(r.Context()).Info("introductions: save already in progress", zap.Error(err))
	w.WriteHeader(http.StatusConflict)
}

// IntroductionNew renders the create dialog.
func (h *Handlers) IntroductionNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	render(w, r, http.StatusOK, introtpl.CreateModal(introtpl.CreateData{
		Labels: localizer(r).SectionLabels(),
	}))
}

// IntroductionCreate stores a new entry from the create dialog.
func (h *Handlers) IntroductionCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	loc := localizer(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	entry := entryFromForm(r)

	rerender := func(message string) {
		render(w, r, http.StatusOK, introtpl.CreateModal(introtpl.CreateData{
			Entry:  entry,
			Labels: loc.SectionLabels(),
			Error:  message,
		}))
	}

	if strings.TrimSpace(entry.Title) == "" {
		rerender(loc.T("introductions.error.title_required"))
		return
	}

	created, err := h.introductions.Create(ctx, user.Token, entry)
	if err != nil {
		observability.FromContext(ctx).Error("introductions: create failed", zap.Error(err))
		rerender(h.errorMessage(r, err, "introductions.error.create"))
		return
	}

	observability.FromContext(ctx).Info("introductions: created", zap.String("introduction_id", created.ID.String()))
	custommw.SetTrigger(w, custommw.Triggers{}.
		Event(introtpl.ChangedEvent).
		Event(introtpl.ModalCloseEvent).
		Toast(loc.T("introductions.toast.created"), "success"))
	w.WriteHeader(http.StatusNoContent)
}

// IntroductionDeleteConfirm renders the delete confirmation dialog.
func (h *Handlers) IntroductionDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, ok := h.fetchEntry(w, r, user)
	if !ok {
		return
	}
	render(w, r, http.StatusOK, introtpl.DeleteModal(introtpl.DeleteData{
		ID:    entry.ID,
		Title: entry.Title,
	}))
}

// IntroductionDelete removes an entry. On success the panel is swapped out for nothing.
func (h *Handlers) IntroductionDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	loc := localizer(r)
	id := introductions.ID(strings.TrimSpace(chi.URLParam(r, "id")))

	if err := h.introductions.Delete(ctx, user.Token, id); err != nil {
		observability.FromContext(ctx).Error("introductions: delete failed",
			zap.String("introduction_id", id.String()),
			zap.Error(err),
		)
		title := ""
		if entry, getErr := h.introductions.Get(ctx, user.Token, id); getErr == nil {
			title = entry.Title
		}
		retargetModal(w)
		render(w, r, http.StatusOK, introtpl.DeleteModal(introtpl.DeleteData{
			ID:    id,
			Title: title,
			Error: h.errorMessage(r, err, "introductions.error.delete"),
		}))
		return
	}

	observability.FromContext(ctx).Info("introductions: deleted", zap.String("introduction_id", id.String()))
	custommw.SetTrigger(w, custommw.Triggers{}.
		Event(introtpl.ChangedEvent).
		Event(introtpl.ModalCloseEvent).
		Toast(loc.T("introductions.toast.deleted"), "success"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
}

// fetchEntry loads the entry named by the id URL parameter, answering the request itself on failure.
func (h *Handlers) fetchEntry(w http.ResponseWriter, r *http.Request, user *custommw.User) (introductions.Entry, bool) {
	ctx := r.Context()
	loc := localizer(r)
	id := introductions.ID(strings.TrimSpace(chi.URLParam(r, "id")))

	entry, err := h.introductions.Get(ctx, user.Token, id)
	switch {
	case err == nil:
		return entry, true
	case errors.Is(err, introductions.ErrNotFound), errors.Is(err, introductions.ErrMissingID), errors.Is(err, introductions.ErrInvalidID):
		triggerToast(w, loc.T("introductions.error.not_found"), "error")
		http.Error(w, loc.T("introductions.error.not_found"), http.StatusNotFound)
	default:
		observability.FromContext(ctx).Error("introductions: get failed",
			zap.String("introduction_id", id.String()),
			zap.Error(err),
		)
		triggerToast(w, loc.T("introductions.error.load"), "error")
		http.Error(w, loc.T("introductions.error.load"), http.StatusBadGateway)
	}
	return introductions.Entry{}, false
}

// errorMessage turns a store error into a user-facing message. Validation failures carry the
// store's own message when it has one.
func (h *Handlers) errorMessage(r *http.Request, err error, fallbackKey string) string {
	loc := localizer(r)
	if errors.Is(err, introductions.ErrNotFound) || errors.Is(err, introductions.ErrInvalidID) {
		return loc.T("introductions.error.not_found")
	}
	var backendErr *introductions.BackendError
	if introductions.IsValidation(err) && errors.As(err, &backendErr) && strings.TrimSpace(backendErr.Message) != "" {
		return backendErr.Message
	}
	return loc.T(fallbackKey)
}

func permissions(r *http.Request) introtpl.Permissions {
	return introtpl.Permissions{
		Create: can(r, rbac.CapIntroductionsCreate),
		Edit:   can(r, rbac.CapIntroductionsEdit),
		Delete: can(r, rbac.CapIntroductionsDelete),
	}
}
