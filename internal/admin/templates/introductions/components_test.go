package introductions_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
	"github.com/mkshin96/portfolio/internal/admin/rbac"
	introtpl "github.com/mkshin96/portfolio/internal/admin/templates/introductions"
	"github.com/mkshin96/portfolio/internal/admin/testutil"
)

var allowAll = introtpl.Permissions{Create: true, Edit: true, Delete: true}

func sampleEntry() introductions.Entry {
	return introductions.Entry{
		ID:       "42",
		Title:    "Backend engineer",
		Title1:   "Growing up",
		Content1: "Built **things** early.",
		Content2: "Joined because of <script>x</script> the team.",
		Title3:   "Strengths",
		Content3: "Calm",
	}
}

func TestPanelRendersTitleAndSections(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	labels := []string{"Background", "Motivation", "Strengths", "Weaknesses", "Goals"}
	doc := testutil.Render(t, ctx, introtpl.Panel(introtpl.NewPanelData(sampleEntry(), labels, allowAll)))

	panel := doc.Find("details.intro-panel")
	require.Equal(t, 1, panel.Length())
	require.Equal(t, "introduction-42", panel.AttrOr("id", ""))
	require.Equal(t, "42", panel.AttrOr("data-introduction-id", ""))
	_, open := panel.Attr("open")
	require.False(t, open)
	require.Equal(t, "Backend engineer", strings.TrimSpace(panel.Find("summary .intro-title").Text()))

	sections := panel.Find("section.intro-section")
	require.Equal(t, introductions.SectionCount, sections.Length())
	require.Equal(t, "Growing up", sections.Eq(0).Find("h3").Text())
	require.Equal(t, "Motivation", sections.Eq(1).Find("h3").Text(), "empty title falls back to label")
	require.True(t, sections.Eq(1).Find("h3").HasClass("untitled"))
	require.Equal(t, "things", sections.Eq(0).Find(".intro-content strong").Text())
	require.Zero(t, panel.Find("script").Length())
	_, empty := panel.Attr("data-empty")
	require.False(t, empty)
	require.Zero(t, panel.Find(".intro-empty").Length())

	require.Equal(t, "/admin/introductions/42/edit", panel.Find("[data-panel-action=edit]").AttrOr("hx-get", ""))
	require.Equal(t, "/admin/introductions/42/delete", panel.Find("[data-panel-action=delete]").AttrOr("hx-get", ""))
}

func TestPanelHidesActionsWithoutPermissions(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{Roles: []rbac.Role{rbac.RoleViewer}})
	data := introtpl.NewPanelData(sampleEntry(), nil, introtpl.Permissions{})
	data.Open = true
	doc := testutil.Render(t, ctx, introtpl.Panel(data))

	require.Zero(t, doc.Find("[data-panel-action]").Length())
	_, open := doc.Find("details").Attr("open")
	require.True(t, open)
}

func TestPanelUntitledEntry(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	doc := testutil.Render(t, ctx, introtpl.Panel(introtpl.NewPanelData(introductions.Entry{ID: "a/b"}, nil, allowAll)))

	require.Equal(t, "(untitled)", doc.Find(".intro-title").Text())
	_, empty := doc.Find("details").Attr("data-empty")
	require.True(t, empty, "entry without content is marked empty")
	require.Equal(t, "No section has content yet.", doc.Find(".intro-empty").Text())
	require.Equal(t, introductions.SectionCount, doc.Find("section.intro-section").Length())
	require.Equal(t, "introduction-a_b", doc.Find("details").AttrOr("id", ""))
	require.Equal(t, "/admin/introductions/a%2Fb/edit", doc.Find("[data-panel-action=edit]").AttrOr("hx-get", ""))
}

func TestListRendersPagerAndReloadHook(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	result := introductions.ListResult{
		Entries:    []introductions.Entry{sampleEntry(), {ID: "43", Title: "Second"}},
		Page:       2,
		PageSize:   2,
		TotalItems: 6,
		TotalPages: 3,
	}
	doc := testutil.Render(t, ctx, introtpl.List(introtpl.NewListData(result, nil, allowAll)))

	list := doc.Find("#" + introtpl.ListID)
	require.Equal(t, 1, list.Length())
	require.Equal(t, "/admin/introductions/list?page=2&pageSize=2", list.AttrOr("hx-get", ""))
	require.Equal(t, introtpl.ChangedEvent+" from:body", list.AttrOr("hx-trigger", ""))
	require.Equal(t, 2, list.Find("details.intro-panel").Length())

	prev := doc.Find(".pager a[rel=prev]")
	next := doc.Find(".pager a[rel=next]")
	require.Equal(t, "/admin/introductions/list?pageSize=2", prev.AttrOr("hx-get", ""))
	require.Equal(t, "/admin/introductions?page=3&pageSize=2", next.AttrOr("href", ""))
	require.Contains(t, doc.Find(".pager-summary").Text(), "Page 2 of 3")
}

func TestListEmptyAndError(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	doc := testutil.Render(t, ctx, introtpl.List(introtpl.ListData{Page: 1, PageSize: 10}))
	require.Equal(t, 1, doc.Find("[data-empty]").Length())
	require.Zero(t, doc.Find(".pager").Length())

	doc = testutil.Render(t, ctx, introtpl.List(introtpl.ListData{Page: 1, Error: "boom"}))
	require.Equal(t, "boom", doc.Find("[role=alert]").Text())
	require.Zero(t, doc.Find("[data-empty]").Length())
}

func TestPageShowsCreateButtonOnlyWhenPermitted(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	doc := testutil.Render(t, ctx, introtpl.Page(introtpl.PageData{Permissions: allowAll}))
	require.Equal(t, "/admin/introductions/new", doc.Find("[data-action=new]").AttrOr("hx-get", ""))

	doc = testutil.Render(t, ctx, introtpl.Page(introtpl.PageData{}))
	require.Zero(t, doc.Find("[data-action=new]").Length())
}

func TestEditorModalCarriesEveryField(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	entry := sampleEntry()
	doc := testutil.Render(t, ctx, introtpl.EditorModal(introtpl.EditorData{Token: "TOKEN1", Entry: entry}))

	modal := doc.Find("#" + introtpl.EditorID)
	require.Equal(t, 1, modal.Length())
	require.Equal(t, introtpl.EditorFormID, modal.AttrOr("data-dismiss-submit", ""), "dismissal submits the form")

	form := doc.Find("form#" + introtpl.EditorFormID)
	require.Equal(t, "/admin/introductions/42", form.AttrOr("hx-put", ""))
	require.Equal(t, "#introduction-42", form.AttrOr("hx-target", ""))
	require.Equal(t, "TOKEN1", form.Find("input[name=editor]").AttrOr("value", ""))
	require.Equal(t, 1, form.Find("input[name=_csrf]").Length())

	for _, f := range introductions.Fields() {
		el := form.Find("[name=" + f.Name() + "]")
		require.Equal(t, 1, el.Length(), f.Name())
		require.Equal(t, "/admin/introductions/editors/TOKEN1/fields/"+f.Name(), el.AttrOr("hx-patch", ""))
		want := entry.Get(f)
		if strings.HasPrefix(f.Name(), "content") {
			require.Equal(t, want, el.Text(), f.Name())
		} else {
			require.Equal(t, want, el.AttrOr("value", ""), f.Name())
		}
	}

	closeBtn := modal.Find("[data-modal-close]")
	require.Equal(t, "submit", closeBtn.AttrOr("type", ""))
	require.Equal(t, introtpl.EditorFormID, closeBtn.AttrOr("form", ""))
	require.Equal(t, "submit", form.Find("[data-editor-save]").AttrOr("type", ""))
}

func TestEditorModalShowsError(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	doc := testutil.Render(t, ctx, introtpl.EditorModal(introtpl.EditorData{Token: "T", Entry: sampleEntry(), Error: "Could not save."}))
	require.Equal(t, "Could not save.", doc.Find("[data-modal-error]").Text())
}

func TestCreateAndDeleteModals(t *testing.T) {
	t.Parallel()

	ctx := testutil.RequestContext(t, testutil.ContextOptions{})
	doc := testutil.Render(t, ctx, introtpl.CreateModal(introtpl.CreateData{Entry: introductions.Entry{Title: "Draft"}, Error: "bad"}))
	form := doc.Find("form#" + introtpl.CreateFormID)
	require.Equal(t, "/admin/introductions", form.AttrOr("hx-post", ""))
	require.Equal(t, "Draft", form.Find("input[name=introductionTitle]").AttrOr("value", ""))
	require.Equal(t, "bad", doc.Find("[data-modal-error]").Text())
	_, dismissSubmits := doc.Find("#" + introtpl.CreateID).Attr("data-dismiss-submit")
	require.False(t, dismissSubmits)

	doc = testutil.Render(t, ctx, introtpl.DeleteModal(introtpl.DeleteData{ID: "42", Title: "Backend engineer"}))
	form = doc.Find("form#" + introtpl.DeleteFormID)
	require.Equal(t, "/admin/introductions/42", form.AttrOr("hx-delete", ""))
	require.Equal(t, "#introduction-42", form.AttrOr("hx-target", ""))
	require.Contains(t, form.Text(), "Delete 'Backend engineer'?")
}
