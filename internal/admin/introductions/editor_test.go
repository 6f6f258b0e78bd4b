package introductions_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkshin96/portfolio/internal/admin/introductions"
)

func sampleEntry() introductions.Entry {
	return introductions.Entry{
		ID:       "3",
		Title:    "Acme",
		Title1:   "T1",
		Content1: "C1",
		Title2:   "T2",
		Content2: "C2",
		Title3:   "T3",
		Content3: "C3",
		Title4:   "T4",
		Content4: "C4",
		Title5:   "T5",
		Content5: "C5",
	}
}

type recordingSaver struct {
	mu    sync.Mutex
	calls []introductions.Entry
	err   error
}

func (s *recordingSaver) Update(_ context.Context, entry introductions.Entry) (introductions.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, entry)
	if s.err != nil {
		return introductions.Entry{}, s.err
	}
	return entry, nil
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestEditorOpenPopulatesEveryField(t *testing.T) {
	t.Parallel()

	editor := introductions.NewEditor()
	require.Equal(t, introductions.EditorClosed, editor.State())
	require.NoError(t, editor.Open(sampleEntry()))

	snap := editor.Snapshot()
	require.Equal(t, introductions.EditorOpen, snap.State)
	require.Equal(t, sampleEntry(), snap.Draft)
	require.False(t, snap.Dirty())
	require.False(t, snap.OpenedAt.IsZero())
}

func TestEditorSetChangesOnlyThatField(t *testing.T) {
	t.Parallel()

	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))
	require.NoError(t, editor.Set(introductions.SectionContent(2), "new text"))

	want := sampleEntry()
	want.Content2 = "new text"
	snap := editor.Snapshot()
	require.Equal(t, want, snap.Draft)
	require.True(t, snap.Dirty())
	require.Equal(t, sampleEntry(), snap.Base)
}

func TestEditorSetRejectsInvalidFieldAndClosedEditor(t *testing.T) {
	t.Parallel()

	editor := introductions.NewEditor()
	require.ErrorIs(t, editor.Set(introductions.FieldTitle, "x"), introductions.ErrEditorClosed)

	require.NoError(t, editor.Open(sampleEntry()))
	require.ErrorIs(t, editor.Set(introductions.SectionTitle(9), "x"), introductions.ErrUnknownField)
}

func TestEditorCloseSendsOneWholeRecordUpdate(t *testing.T) {
	t.Parallel()

	saver := &recordingSaver{}
	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))
	require.NoError(t, editor.Set(introductions.FieldTitle, "Acme Corp"))

	saved, err := editor.Close(context.Background(), saver)
	require.NoError(t, err)
	require.Equal(t, introductions.EditorClosed, editor.State())

	require.Equal(t, 1, saver.count())
	want := sampleEntry()
	want.Title = "Acme Corp"
	require.Equal(t, want, saver.calls[0])
	require.Equal(t, introductions.ID("3"), saver.calls[0].ID)
	require.Equal(t, want, saved)
}

func TestEditorDoubleCloseIssuesSingleUpdate(t *testing.T) {
	t.Parallel()

	saver := &recordingSaver{}
	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))

	_, err := editor.Close(context.Background(), saver)
	require.NoError(t, err)
	_, err = editor.Close(context.Background(), saver)
	require.ErrorIs(t, err, introductions.ErrEditorClosed)
	require.Equal(t, 1, saver.count())
}

func TestEditorConcurrentCloseIssuesSingleUpdate(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	saver := introductions.SaverFunc(func(_ context.Context, entry introductions.Entry) (introductions.Entry, error) {
		calls.Add(1)
		<-release
		return entry, nil
	})

	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))

	errs := make(chan error, 2)
	go func() {
		_, err := editor.Close(context.Background(), saver)
		errs <- err
	}()
	require.Eventually(t, func() bool {
		return editor.State() == introductions.EditorSaving
	}, time.Second, time.Millisecond)

	_, err := editor.Close(context.Background(), saver)
	require.ErrorIs(t, err, introductions.ErrSaveInProgress)
	require.ErrorIs(t, editor.Set(introductions.FieldTitle, "late"), introductions.ErrSaveInProgress)

	close(release)
	require.NoError(t, <-errs)
	require.EqualValues(t, 1, calls.Load())
}

func TestEditorSaveFailureKeepsEditorOpen(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend unavailable")
	saver := &recordingSaver{err: boom}
	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))
	require.NoError(t, editor.Set(introductions.SectionContent(2), "draft"))

	_, err := editor.Close(context.Background(), saver)
	require.ErrorIs(t, err, boom)
	var saveErr *introductions.SaveError
	require.ErrorAs(t, err, &saveErr)
	require.Equal(t, introductions.ID("3"), saveErr.ID)

	require.Equal(t, introductions.EditorOpen, editor.State())
	require.Equal(t, "draft", editor.Snapshot().Draft.Content2)

	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()
	_, err = editor.Close(context.Background(), saver)
	require.NoError(t, err)
	require.Equal(t, 2, saver.count())
}

func TestEditorReopenReflectsLatestEntry(t *testing.T) {
	t.Parallel()

	svc := introductions.NewStaticService(sampleEntry())
	ctx := context.Background()
	editor := introductions.NewEditor()

	require.NoError(t, editor.Open(sampleEntry()))
	require.NoError(t, editor.Set(introductions.SectionContent(1), "first edit"))
	_, err := editor.Close(ctx, introductions.ServiceSaver(svc, ""))
	require.NoError(t, err)

	svc.Put(sampleEntry().With(introductions.SectionContent(1), "changed elsewhere"))

	latest, err := svc.Get(ctx, "", "3")
	require.NoError(t, err)
	require.NoError(t, editor.Open(latest))
	require.Equal(t, "changed elsewhere", editor.Snapshot().Draft.Content1)
}

func TestEditorReopenDiscardsUnsavedDraft(t *testing.T) {
	t.Parallel()

	editor := introductions.NewEditor()
	require.NoError(t, editor.Open(sampleEntry()))
	require.NoError(t, editor.Set(introductions.SectionTitle(4), "unsaved"))

	require.NoError(t, editor.Open(sampleEntry()))
	require.Equal(t, "T4", editor.Snapshot().Draft.Title4)
}

func TestEditorRegistryOwnershipAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	registry := introductions.NewEditorRegistry(10*time.Minute,
		introductions.WithClock(clock),
		introductions.WithTokenGenerator(func() string { return "tok-1" }),
	)

	token, editor := registry.Open("session-a", sampleEntry())
	require.Equal(t, "tok-1", token)
	require.Equal(t, introductions.EditorOpen, editor.State())

	got, err := registry.Lookup("session-a", token)
	require.NoError(t, err)
	require.Same(t, editor, got)

	_, err = registry.Lookup("session-b", token)
	require.ErrorIs(t, err, introductions.ErrEditorNotFound)

	_, err = registry.LookupFor("session-a", token, "other")
	require.ErrorIs(t, err, introductions.ErrEditorNotFound)
	_, err = registry.LookupFor("session-a", token, "3")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = registry.Lookup("session-a", token)
	require.ErrorIs(t, err, introductions.ErrEditorNotFound)
	require.Zero(t, registry.Len())
}

func TestEditorRegistryLookupExtendsLifetime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	registry := introductions.NewEditorRegistry(10*time.Minute,
		introductions.WithClock(func() time.Time { return now }),
	)
	token, _ := registry.Open("s", sampleEntry())
	require.NotEmpty(t, token)

	now = now.Add(8 * time.Minute)
	_, err := registry.Lookup("s", token)
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	_, err = registry.Lookup("s", token)
	require.NoError(t, err)

	registry.Discard(token)
	_, err = registry.Lookup("s", token)
	require.ErrorIs(t, err, introductions.ErrEditorNotFound)
}

func TestEditorRegistrySweepsExpiredOnOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	registry := introductions.NewEditorRegistry(time.Minute,
		introductions.WithClock(func() time.Time { return now }),
	)
	registry.Open("s", sampleEntry())
	registry.Open("s", sampleEntry())
	require.Equal(t, 2, registry.Len())

	now = now.Add(2 * time.Minute)
	registry.Open("s", sampleEntry())
	require.Equal(t, 1, registry.Len())
}
