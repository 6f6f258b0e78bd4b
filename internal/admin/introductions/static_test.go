package introductions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticServicePaging(t *testing.T) {
	t.Parallel()

	seed := make([]Entry, 0, 12)
	for i := 0; i < 12; i++ {
		seed = append(seed, Entry{Title: "entry"})
	}
	svc := NewStaticService(seed...)
	ctx := context.Background()

	page, err := svc.List(ctx, "", ListQuery{Page: 2, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page.Entries, 5)
	require.Equal(t, 12, page.TotalItems)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, svc.order[5], page.Entries[0].ID)

	last, err := svc.List(ctx, "", ListQuery{Page: 3, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, last.Entries, 2)
	require.False(t, last.HasNext())

	beyond, err := svc.List(ctx, "", ListQuery{Page: 9, PageSize: 5})
	require.NoError(t, err)
	require.Empty(t, beyond.Entries)
}

func TestStaticServiceCRUD(t *testing.T) {
	t.Parallel()

	svc := NewStaticService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "", Entry{Title: "Acme"})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	created.Content1 = "updated"
	_, err = svc.Update(ctx, "", created)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "", created.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", got.Content1)
	require.Equal(t, created, svc.LastUpdate())

	require.NoError(t, svc.Delete(ctx, "", created.ID))
	_, err = svc.Get(ctx, "", created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, 1, svc.Creates())
	require.Equal(t, 1, svc.Updates())
	require.Equal(t, 1, svc.Deletes())
}

func TestStaticServiceUpdateErrors(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(Entry{ID: "a", Title: "A"})
	ctx := context.Background()

	_, err := svc.Update(ctx, "", Entry{})
	require.ErrorIs(t, err, ErrMissingID)

	_, err = svc.Update(ctx, "", Entry{ID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	svc.SetFailure(boom)
	_, err = svc.Update(ctx, "", Entry{ID: "a"})
	require.ErrorIs(t, err, boom)

	got, err := svc.Get(ctx, "", "a")
	require.NoError(t, err)
	require.Equal(t, "A", got.Title)
}

func TestStaticServiceHonoursContext(t *testing.T) {
	t.Parallel()

	svc := NewSampleService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.List(ctx, "", ListQuery{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, svc.Updates())
}
