package introductions

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// StaticService is an in-memory Service used for local development and tests.
type StaticService struct {
	mu      sync.Mutex
	order   []ID
	entries map[ID]Entry
	newID   func() ID
	fail    error
	last    Entry

	updates int
	creates int
	deletes int
}

// NewStaticService constructs a StaticService seeded with the provided entries.
// Entries without an identifier receive a ULID.
func NewStaticService(seed ...Entry) *StaticService {
	s := &StaticService{
		entries: make(map[ID]Entry),
		newID:   func() ID { return ID(ulid.Make().String()) },
	}
	for _, e := range seed {
		if e.ID.IsZero() {
			e.ID = s.newID()
		}
		s.order = append(s.order, e.ID)
		s.entries[e.ID] = e
	}
	return s
}

// NewSampleService returns a StaticService with demo content for local development.
func NewSampleService() *StaticService {
	return NewStaticService(
		Entry{
			Title:    "Acme Corp. backend engineer",
			Title1:   "Growth",
			Content1: "Grew up taking radios apart and putting them back together.",
			Title2:   "Motivation",
			Content2: "Acme builds the tools I already use every day.",
			Title3:   "Strengths",
			Content3: "Patient debugging, careful **code review**.",
			Title4:   "Weaknesses",
			Content4: "Tend to over-document.",
			Title5:   "Aspirations",
			Content5: "Lead the platform team within three years.",
		},
		Entry{
			Title:  "Initech internship",
			Title1: "Growth",
		},
	)
}

// List returns entries in insertion order.
func (s *StaticService) List(ctx context.Context, _ string, query ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}
	query = query.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.order)
	start := (query.Page - 1) * query.PageSize
	if start > total {
		start = total
	}
	end := start + query.PageSize
	if end > total {
		end = total
	}
	entries := make([]Entry, 0, end-start)
	for _, id := range s.order[start:end] {
		entries = append(entries, s.entries[id])
	}
	pages := (total + query.PageSize - 1) / query.PageSize
	if pages == 0 {
		pages = 1
	}
	return ListResult{
		Entries:    entries,
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}, nil
}

// Get returns the stored entry.
func (s *StaticService) Get(ctx context.Context, _ string, id ID) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Create stores a new entry under a fresh identifier.
func (s *StaticService) Create(ctx context.Context, _ string, entry Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.fail != nil {
		return Entry{}, s.fail
	}
	entry.ID = s.newID()
	s.order = append([]ID{entry.ID}, s.order...)
	s.entries[entry.ID] = entry
	return entry, nil
}

// Update replaces the stored record.
func (s *StaticService) Update(ctx context.Context, _ string, entry Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	s.last = entry
	if s.fail != nil {
		return Entry{}, s.fail
	}
	if entry.ID.IsZero() {
		return Entry{}, ErrMissingID
	}
	if _, ok := s.entries[entry.ID]; !ok {
		return Entry{}, ErrNotFound
	}
	s.entries[entry.ID] = entry
	return entry, nil
}

// Delete removes the entry.
func (s *StaticService) Delete(ctx context.Context, _ string, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Put overwrites an entry without counting it as an update. Tests use it to simulate
// changes made by another client.
func (s *StaticService) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = entry
}

// SetFailure configures the error returned by mutating calls.
func (s *StaticService) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Updates returns the number of Update calls received.
func (s *StaticService) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Creates returns the number of Create calls received.
func (s *StaticService) Creates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

// Deletes returns the number of Delete calls received.
func (s *StaticService) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// LastUpdate returns the payload of the most recent Update call.
func (s *StaticService) LastUpdate() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
