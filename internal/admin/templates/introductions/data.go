package introductions

import (
	"strings"
	"time"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
)

// DOM hooks shared with the handlers and admin.js.
const (
	ListID       = "introductions-list"
	EditorID     = "introduction-editor"
	EditorFormID = "introduction-editor-form"
	CreateID     = "introduction-create"
	CreateFormID = "introduction-create-form"
	DeleteID     = "introduction-delete"
	DeleteFormID = "introduction-delete-form"

	// ChangedEvent asks the list to reload itself.
	ChangedEvent = "introductions:changed"
	// ModalCloseEvent removes the open dialog.
	ModalCloseEvent = "modal:close"
)

// Permissions gates the actions rendered for the current user.
type Permissions struct {
	Create bool
	Edit   bool
	Delete bool
}

// PageData drives the full introductions page.
type PageData struct {
	List        ListData
	Permissions Permissions
}

// ListData is one page of panels plus pager state.
type ListData struct {
	Panels      []PanelData
	Page        int
	PageSize    int
	TotalItems  int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	Error       string
	Permissions Permissions
}

// PanelData renders one entry panel.
type PanelData struct {
	View        introductions.PanelView
	Open        bool
	Permissions Permissions
}

// EditorData renders the editor dialog for an open editor.
type EditorData struct {
	Token    string
	Entry    introductions.Entry
	OpenedAt time.Time
	Labels   []string
	Error    string
}

// CreateData renders the create dialog.
type CreateData struct {
	Entry  introductions.Entry
	Labels []string
	Error  string
}

// DeleteData renders the delete confirmation.
type DeleteData struct {
	ID    introductions.ID
	Title string
	Error string
}

// NewListData builds list view data from a store page. labels localise empty section titles.
func NewListData(result introductions.ListResult, labels []string, perms Permissions) ListData {
	data := ListData{
		Page:        result.Page,
		PageSize:    result.PageSize,
		TotalItems:  result.TotalItems,
		TotalPages:  result.TotalPages,
		HasPrev:     result.HasPrev(),
		HasNext:     result.HasNext(),
		Permissions: perms,
		Panels:      make([]PanelData, 0, len(result.Entries)),
	}
	for _, entry := range result.Entries {
		data.Panels = append(data.Panels, NewPanelData(entry, labels, perms))
	}
	return data
}

// NewPanelData derives panel data from an entry.
func NewPanelData(entry introductions.Entry, labels []string, perms Permissions) PanelData {
	return PanelData{
		View:        introductions.NewPanelView(entry, labels),
		Permissions: perms,
	}
}

// PanelDOMID returns the element id of the panel for id.
func PanelDOMID(id introductions.ID) string {
	var b strings.Builder
	b.WriteString("introduction-")
	for _, r := range id.String() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func label(labels []string, n int) string {
	if n >= 1 && n <= len(labels) && strings.TrimSpace(labels[n-1]) != "" {
		return labels[n-1]
	}
	if n >= 1 && n <= introductions.SectionCount {
		return introductions.DefaultSectionLabels[n-1]
	}
	return ""
}
