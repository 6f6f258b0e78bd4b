package introductions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig tunes the Firestore-backed store.
type FirestoreConfig struct {
	Collection string
	Now        func() time.Time
}

// FirestoreService stores entries as documents keyed by entry ID.
type FirestoreService struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

type entryDocument struct {
	Title     string    `firestore:"introductionTitle"`
	Title1    string    `firestore:"title1"`
	Content1  string    `firestore:"content1"`
	Title2    string    `firestore:"title2"`
	Content2  string    `firestore:"content2"`
	Title3    string    `firestore:"title3"`
	Content3  string    `firestore:"content3"`
	Title4    string    `firestore:"title4"`
	Content4  string    `firestore:"content4"`
	Title5    string    `firestore:"title5"`
	Content5  string    `firestore:"content5"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestoreService constructs a Firestore-backed Service.
func NewFirestoreService(client *firestore.Client, cfg FirestoreConfig) *FirestoreService {
	if client == nil {
		panic("introductions: firestore client is required")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		cfg.Collection = "introductions"
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &FirestoreService{
		client:     client,
		collection: cfg.Collection,
		now:        nowFn,
	}
}

// List pages through entries, newest first.
func (s *FirestoreService) List(ctx context.Context, _ string, query ListQuery) (result ListResult, err error) {
	ctx, span := startStoreSpan(ctx, "list")
	defer func() { endSpan(span, err) }()

	query = query.Normalize()
	coll := s.client.Collection(s.collection)

	total, err := countDocuments(ctx, coll)
	if err != nil {
		return ListResult{}, err
	}

	iter := coll.
		OrderBy("createdAt", firestore.Desc).
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]Entry, 0, query.PageSize)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return ListResult{}, fmt.Errorf("introductions: iterate firestore: %w", err)
		}
		entry, err := entryFromSnapshot(snap)
		if err != nil {
			return ListResult{}, err
		}
		entries = append(entries, entry)
	}

	pages := (total + query.PageSize - 1) / query.PageSize
	if pages == 0 {
		pages = 1
	}
	span.SetAttributes(attribute.Int("introductions.count", len(entries)))
	return ListResult{
		Entries:    entries,
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}, nil
}

// Get reads a single document.
func (s *FirestoreService) Get(ctx context.Context, _ string, id ID) (entry Entry, err error) {
	ctx, span := startStoreSpan(ctx, "get", attribute.String("introductions.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := id.Validate(); err != nil {
		return Entry{}, err
	}
	snap, err := s.client.Collection(s.collection).Doc(id.String()).Get(ctx)
	if err != nil {
		return Entry{}, mapFirestoreError("get", err)
	}
	return entryFromSnapshot(snap)
}

// Create writes a new document under a generated ID.
func (s *FirestoreService) Create(ctx context.Context, _ string, entry Entry) (created Entry, err error) {
	ctx, span := startStoreSpan(ctx, "create")
	defer func() { endSpan(span, err) }()

	ref := s.client.Collection(s.collection).NewDoc()
	now := s.now().UTC()
	doc := documentFromEntry(entry)
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := ref.Create(ctx, doc); err != nil {
		return Entry{}, mapFirestoreError("create", err)
	}
	entry.ID = ID(ref.ID)
	return entry, nil
}

// Update replaces every editable field of an existing document.
func (s *FirestoreService) Update(ctx context.Context, _ string, entry Entry) (updated Entry, err error) {
	ctx, span := startStoreSpan(ctx, "update", attribute.String("introductions.id", entry.ID.String()))
	defer func() { endSpan(span, err) }()

	if err := entry.ID.Validate(); err != nil {
		return Entry{}, err
	}
	ref := s.client.Collection(s.collection).Doc(entry.ID.String())
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing entryDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("introductions: decode firestore entry %s: %w", ref.ID, err)
		}
		doc := documentFromEntry(entry)
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = s.now().UTC()
		return tx.Set(ref, doc)
	})
	if err != nil {
		return Entry{}, mapFirestoreError("update", err)
	}
	return entry, nil
}

// Delete removes the document.
func (s *FirestoreService) Delete(ctx context.Context, _ string, id ID) (err error) {
	ctx, span := startStoreSpan(ctx, "delete", attribute.String("introductions.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := id.Validate(); err != nil {
		return err
	}
	ref := s.client.Collection(s.collection).Doc(id.String())
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return mapFirestoreError("delete", err)
	}
	return nil
}

func countDocuments(ctx context.Context, coll *firestore.CollectionRef) (int, error) {
	res, err := coll.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("introductions: count firestore entries: %w", err)
	}
	raw, ok := res["total"]
	if !ok {
		return 0, nil
	}
	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case interface{ GetIntegerValue() int64 }:
		return int(v.GetIntegerValue()), nil
	default:
		return 0, fmt.Errorf("introductions: unexpected count type %T", raw)
	}
}

func entryFromSnapshot(snap *firestore.DocumentSnapshot) (Entry, error) {
	var doc entryDocument
	if err := snap.DataTo(&doc); err != nil {
		return Entry{}, fmt.Errorf("introductions: decode firestore entry %s: %w", snap.Ref.ID, err)
	}
	return Entry{
		ID:       ID(snap.Ref.ID),
		Title:    doc.Title,
		Title1:   doc.Title1,
		Content1: doc.Content1,
		Title2:   doc.Title2,
		Content2: doc.Content2,
		Title3:   doc.Title3,
		Content3: doc.Content3,
		Title4:   doc.Title4,
		Content4: doc.Content4,
		Title5:   doc.Title5,
		Content5: doc.Content5,
	}, nil
}

func documentFromEntry(e Entry) entryDocument {
	return entryDocument{
		Title:    e.Title,
		Title1:   e.Title1,
		Content1: e.Content1,
		Title2:   e.Title2,
		Content2: e.Content2,
		Title3:   e.Title3,
		Content3: e.Content3,
		Title4:   e.Title4,
		Content4: e.Content4,
		Title5:   e.Title5,
		Content5: e.Content5,
	}
}

func mapFirestoreError(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf("introductions: firestore %s: %w", op, err)
}

func startStoreSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "introductions.firestore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}
