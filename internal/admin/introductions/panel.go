package introductions

import "strings"

// DefaultSectionLabels are shown when a section title is empty.
var DefaultSectionLabels = [SectionCount]string{
	"성장 과정",
	"지원 동기",
	"장점",
	"단점",
	"입사 후 포부",
}

// PanelSection is one rendered block of a panel.
type PanelSection struct {
	Index   int
	Label   string
	Content string
	// Untitled is set when Label came from the defaults.
	Untitled bool
}

// PanelView is the presentation of one entry. It is derived from the entry on every render and
// holds no state of its own.
type PanelView struct {
	ID       ID
	Title    string
	Sections []PanelSection
}

// NewPanelView derives the panel from the entry. Empty section titles fall back to labels, and
// then to DefaultSectionLabels.
func NewPanelView(entry Entry, labels []string) PanelView {
	view := PanelView{
		ID:       entry.ID,
		Title:    entry.Title,
		Sections: make([]PanelSection, 0, SectionCount),
	}
	for _, sec := range entry.Sections() {
		ps := PanelSection{
			Index:   sec.Index,
			Label:   sec.Title,
			Content: sec.Content,
		}
		if strings.TrimSpace(ps.Label) == "" {
			ps.Label = defaultLabel(sec.Index, labels)
			ps.Untitled = true
		}
		view.Sections = append(view.Sections, ps)
	}
	return view
}

// Empty reports whether the entry carries no section content at all.
func (v PanelView) Empty() bool {
	for _, s := range v.Sections {
		if strings.TrimSpace(s.Content) != "" {
			return false
		}
	}
	return true
}

func defaultLabel(index int, labels []string) string {
	if index >= 1 && index <= len(labels) {
		if l := strings.TrimSpace(labels[index-1]); l != "" {
			return l
		}
	}
	if index >= 1 && index <= SectionCount {
		return DefaultSectionLabels[index-1]
	}
	return ""
}
