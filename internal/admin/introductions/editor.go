package introductions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// editorSaves counts Close attempts by outcome.
var editorSaves, _ = otel.Meter("github.com/mkshin96/portfolio/internal/admin/introductions").Int64Counter(
	"admin.introductions.editor_saves",
	metric.WithDescription("Editor close-and-save attempts by outcome"),
)

var (
	// ErrEditorClosed is returned when an editor is used after it has been closed.
	ErrEditorClosed = errors.New("introductions: editor is closed")
	// ErrSaveInProgress is returned when a close is requested while a save is in flight.
	ErrSaveInProgress = errors.New("introductions: save already in progress")
)

// EditorState is the lifecycle state of an Editor.
type EditorState int

const (
	// EditorClosed is the initial and final state.
	EditorClosed EditorState = iota
	// EditorOpen accepts field changes.
	EditorOpen
	// EditorSaving holds the draft while the update call is in flight.
	EditorSaving
)

func (s EditorState) String() string {
	switch s {
	case EditorOpen:
		return "open"
	case EditorSaving:
		return "saving"
	default:
		return "closed"
	}
}

// Saver persists a whole entry. Service satisfies it through SaverFunc or a token-bound adapter.
type Saver interface {
	Update(ctx context.Context, entry Entry) (Entry, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, entry Entry) (Entry, error)

// Update calls f.
func (f SaverFunc) Update(ctx context.Context, entry Entry) (Entry, error) {
	return f(ctx, entry)
}

// ServiceSaver binds a Service and the caller's token into a Saver.
func ServiceSaver(svc Service, token string) Saver {
	return SaverFunc(func(ctx context.Context, entry Entry) (Entry, error) {
		return svc.Update(ctx, token, entry)
	})
}

// SaveError wraps a failed persist attempt. The editor stays open when it is returned.
type SaveError struct {
	ID  ID
	Err error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("introductions: save entry %s: %v", e.ID, e.Err)
}

// Unwrap returns the store error.
func (e *SaveError) Unwrap() error { return e.Err }

// Snapshot is a copy of an editor's draft. Base is the entry as read from the store when the
// editor was opened; the draft is not re-synced with later store changes.
type Snapshot struct {
	State    EditorState
	Draft    Entry
	Base     Entry
	OpenedAt time.Time
}

// Dirty reports whether any field differs from the entry the editor was opened with.
func (s Snapshot) Dirty() bool {
	return s.Draft != s.Base
}

// Editor holds the edit-local copy of one entry.
type Editor struct {
	mu       sync.Mutex
	state    EditorState
	draft    Entry
	base     Entry
	openedAt time.Time
	now      func() time.Time
}

// NewEditor returns a closed editor.
func NewEditor() *Editor {
	return &Editor{now: time.Now}
}

// Open copies every field of entry into a fresh draft and moves the editor to open.
// Re-opening always discards the previous draft.
func (e *Editor) Open(entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditorSaving {
		return ErrSaveInProgress
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.draft = entry
	e.base = entry
	e.openedAt = e.now()
	e.state = EditorOpen
	return nil
}

// Set overwrites exactly one field of the draft.
func (e *Editor) Set(field Field, value string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case EditorClosed:
		return ErrEditorClosed
	case EditorSaving:
		return ErrSaveInProgress
	}
	e.draft = e.draft.With(field, value)
	return nil
}

// State returns the current lifecycle state.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns a copy of the draft and its staleness metadata.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:    e.state,
		Draft:    e.draft,
		Base:     e.base,
		OpenedAt: e.openedAt,
	}
}

// Close persists the whole draft with exactly one Update call and closes the editor.
// A failed save leaves the editor open so the caller can surface the error and retry.
func (e *Editor) Close(ctx context.Context, saver Saver) (Entry, error) {
	e.mu.Lock()
	switch e.state {
	case EditorClosed:
		e.mu.Unlock()
		return Entry{}, ErrEditorClosed
	case EditorSaving:
		e.mu.Unlock()
		return Entry{}, ErrSaveInProgress
	}
	draft := e.draft
	e.state = EditorSaving
	e.mu.Unlock()

	ctx, span := tracer.Start(ctx, "introductions.editor.close",
		trace.WithAttributes(attribute.String("introductions.id", draft.ID.String())),
	)
	saved, err := saver.Update(ctx, draft)
	endSpan(span, err)
	outcome := "saved"
	if err != nil {
		outcome = "failed"
	}
	editorSaves.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = EditorOpen
		return Entry{}, &SaveError{ID: draft.ID, Err: err}
	}
	if saved.ID.IsZero() {
		saved.ID = draft.ID
	}
	e.state = EditorClosed
	e.base = saved
	e.draft = saved
	return saved, nil
}

// EditorRegistry tracks open editors across requests. Each editor is bound to the session that
// opened it and expires after the configured TTL.
type EditorRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
	editors map[string]*registeredEditor
}

type registeredEditor struct {
	editor  *Editor
	owner   string
	entryID ID
	expires time.Time
}

// RegistryOption customises an EditorRegistry.
type RegistryOption func(*EditorRegistry)

// WithClock overrides the registry clock.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *EditorRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTokenGenerator overrides editor token generation.
func WithTokenGenerator(fn func() string) RegistryOption {
	return func(r *EditorRegistry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// ErrEditorNotFound is returned for unknown, expired or foreign editor tokens.
var ErrEditorNotFound = errors.New("introductions: editor not found")

// DefaultEditorTTL bounds how long an unsaved editor is kept.
const DefaultEditorTTL = 30 * time.Minute

// NewEditorRegistry constructs a registry. Non-positive TTLs fall back to DefaultEditorTTL.
func NewEditorRegistry(ttl time.Duration, opts ...RegistryOption) *EditorRegistry {
	if ttl <= 0 {
		ttl = DefaultEditorTTL
	}
	r := &EditorRegistry{
		ttl:     ttl,
		now:     time.Now,
		newID:   newToken,
		editors: make(map[string]*registeredEditor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open starts a new editor for entry owned by the given session and returns its token.
func (r *EditorRegistry) Open(owner string, entry Entry) (string, *Editor) {
	editor := &Editor{now: r.now}
	_ = editor.Open(entry)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	token := r.newID()
	r.editors[token] = &registeredEditor{
		editor:  editor,
		owner:   owner,
		entryID: entry.ID,
		expires: r.now().Add(r.ttl),
	}
	return token, editor
}

// Lookup returns the editor for token when it belongs to owner and has not expired.
// A successful lookup extends the editor's lifetime.
func (r *EditorRegistry) Lookup(owner, token string) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, err := r.lookupLocked(owner, token)
	if err != nil {
		return nil, err
	}
	return reg.editor, nil
}

// LookupFor is Lookup restricted to editors opened for the given entry.
func (r *EditorRegistry) LookupFor(owner, token string, id ID) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, err := r.lookupLocked(owner, token)
	if err != nil {
		return nil, err
	}
	if reg.entryID != id {
		return nil, ErrEditorNotFound
	}
	return reg.editor, nil
}

func (r *EditorRegistry) lookupLocked(owner, token string) (*registeredEditor, error) {
	reg, ok := r.editors[token]
	if !ok || reg.owner != owner {
		return nil, ErrEditorNotFound
	}
	now := r.now()
	if now.After(reg.expires) {
		delete(r.editors, token)
		return nil, ErrEditorNotFound
	}
	reg.expires = now.Add(r.ttl)
	return reg, nil
}

// Discard forgets the editor.
func (r *EditorRegistry) Discard(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.editors, token)
}

// Len reports the number of tracked editors, including ones not yet swept.
func (r *EditorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.editors)
}

func (r *EditorRegistry) sweepLocked() {
	now := r.now()
	for token, reg := range r.editors {
		if now.After(reg.expires) {
			delete(r.editors, token)
		}
	}
}

func newToken() string {
	return ulid.Make().String()
}
