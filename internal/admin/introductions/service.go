package introductions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultPageSize is used when a list query omits the page size.
	DefaultPageSize = 10
	// MaxPageSize caps list queries.
	MaxPageSize = 50
)

var (
	// ErrNotConfigured indicates that the introductions store has not been wired.
	ErrNotConfigured = errors.New("introductions service not configured")
	// ErrNotFound is returned when the addressed entry does not exist.
	ErrNotFound = errors.New("introductions: entry not found")
	// ErrMissingID is returned when an operation needs an entry identifier and none was given.
	ErrMissingID = errors.New("introductions: entry id is required")
	// ErrInvalidID is returned for identifiers that do not name a single entry, such as "..".
	ErrInvalidID = errors.New("introductions: invalid entry id")
)

// Service is the store collaborator used by the admin UI.
type Service interface {
	// List returns one page of entries.
	List(ctx context.Context, token string, query ListQuery) (ListResult, error)
	// Get fetches the current state of a single entry.
	Get(ctx context.Context, token string, id ID) (Entry, error)
	// Create stores a new entry; the store assigns its identifier.
	Create(ctx context.Context, token string, entry Entry) (Entry, error)
	// Update replaces the whole record addressed by entry.ID.
	Update(ctx context.Context, token string, entry Entry) (Entry, error)
	// Delete removes the entry.
	Delete(ctx context.Context, token string, id ID) error
}

// ListQuery selects a page of entries. Page is 1-based.
type ListQuery struct {
	Page     int
	PageSize int
}

// Normalize clamps the query into the supported range.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// ListResult is one page of entries.
type ListResult struct {
	Entries    []Entry
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// HasNext reports whether a later page exists.
func (r ListResult) HasNext() bool {
	return r.TotalPages > 0 && r.Page < r.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (r ListResult) HasPrev() bool {
	return r.Page > 1
}

// BackendError describes a non-2xx response from the store.
type BackendError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("introductions: backend error (%s): %s", e.Code, msg)
	}
	return fmt.Sprintf("introductions: backend error (%d): %s", e.Status, msg)
}

// Is maps 404 responses onto ErrNotFound.
func (e *BackendError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// IsValidation reports whether the store rejected the payload itself.
func IsValidation(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Status == http.StatusBadRequest || be.Status == http.StatusUnprocessableEntity
	}
	return false
}
