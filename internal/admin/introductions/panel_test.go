package introductions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
)

func TestNewPanelViewLabels(t *testing.T) {
	t.Parallel()

	entry := introductions.Entry{
		ID:       "7",
		Title:    "Acme",
		Title1:   "My childhood",
		Content1: "c1",
	}

	view := introductions.NewPanelView(entry, nil)
	require.Equal(t, introductions.ID("7"), view.ID)
	require.Equal(t, "Acme", view.Title)
	require.Len(t, view.Sections, introductions.SectionCount)
	require.Equal(t, "My childhood", view.Sections[0].Label)
	require.False(t, view.Sections[0].Untitled)
	require.Equal(t, introductions.DefaultSectionLabels[1], view.Sections[1].Label)
	require.True(t, view.Sections[1].Untitled)

	localized := introductions.NewPanelView(entry, []string{"Growth", "Motivation", ""})
	require.Equal(t, "Motivation", localized.Sections[1].Label)
	require.Equal(t, introductions.DefaultSectionLabels[2], localized.Sections[2].Label)
}

func TestPanelViewDerivedFromEntry(t *testing.T) {
	t.Parallel()

	entry := introductions.Entry{ID: "1", Content2: "old"}
	require.Equal(t, "old", introductions.NewPanelView(entry, nil).Sections[1].Content)

	entry = entry.With(introductions.SectionContent(2), "new")
	require.Equal(t, "new", introductions.NewPanelView(entry, nil).Sections[1].Content)
}

func TestPanelViewEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, introductions.NewPanelView(introductions.Entry{}, nil).Empty())
	require.False(t, introductions.NewPanelView(introductions.Entry{Content5: "x"}, nil).Empty())
}
