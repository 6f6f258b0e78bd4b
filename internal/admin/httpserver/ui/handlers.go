package ui

import (
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	custommw "github.com/mkshin96/portfolio/internal/admin/httpserver/middleware"
	"github.com/mkshin96/portfolio/internal/admin/i18n"
	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/observability"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
	"github.com/mkshin96/portfolio/internal/admin/templates/layout"
)

// Dependencies collects the collaborators required by the UI handlers.
type Dependencies struct {
	Introductions introductions.Service
	Editors       *introductions.EditorRegistry
	PageSize      int
}

// Handlers exposes HTTP handlers for admin pages and fragments.
type Handlers struct {
	introductions introductions.Service
	editors       *introductions.EditorRegistry
	pageSize      int
}

// NewHandlers wires the UI handler set. Missing collaborators fall back to in-memory versions.
func NewHandlers(deps Dependencies) *Handlers {
	service := deps.Introductions
	if service == nil {
		service = introductions.NewSampleService()
	}
	editors := deps.Editors
	if editors == nil {
		editors = introductions.NewEditorRegistry(introductions.DefaultEditorTTL)
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = introductions.DefaultPageSize
	}
	return &Handlers{
		introductions: service,
		editors:       editors,
		pageSize:      pageSize,
	}
}

// Root redirects to the introductions page.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, custommw.JoinBase(custommw.BasePathFromContext(r.Context()), "/introductions"), http.StatusFound)
}

func render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := component.Render(r.Context(), w); err != nil {
		observability.FromContext(r.Context()).Error("render failed", zap.Error(err))
	}
}

// retargetModal swaps the response into the modal container instead of the requesting form's target.
func retargetModal(w http.ResponseWriter) {
	w.Header().Set("HX-Retarget", "#"+layout.ModalRootID)
	w.Header().Set("HX-Reswap", "innerHTML")
}

func triggerToast(w http.ResponseWriter, message, tone string) {
	custommw.SetTrigger(w, custommw.Triggers{}.Toast(message, tone))
}

func requireUser(w http.ResponseWriter, r *http.Request) (*custommw.User, bool) {
	user, ok := custommw.UserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// editorOwner binds editors to the browser session, falling back to the user when sessions are off.
func editorOwner(r *http.Request, user *custommw.User) string {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok && sess.ID() != "" {
		return "session:" + sess.ID()
	}
	return "user:" + user.UID
}

func localizer(r *http.Request) i18n.Localizer {
	return i18n.FromContext(r.Context())
}

func can(r *http.Request, capability rbac.Capability) bool {
	return custommw.Can(r, capability)
}
