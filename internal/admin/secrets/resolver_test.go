package secrets

import (
	"context"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeSecretClient struct {
	mu     sync.Mutex
	values map[string]string
	calls  map[string]int
	closed bool
}

func newFakeSecretClient(values map[string]string) *fakeSecretClient {
	return &fakeSecretClient{values: values, calls: map[string]int{}}
}

func (f *fakeSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.GetName()]++
	val, ok := f.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "missing")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(val + "\n")},
	}, nil
}

func (f *fakeSecretClient) Close() error {
	f.closed = true
	return nil
}

func TestResolvePassesLiteralsThrough(t *testing.T) {
	client := newFakeSecretClient(nil)
	r := NewResolver("portfolio", WithClient(client))

	got, err := r.Resolve(context.Background(), "plain-hash-key")
	require.NoError(t, err)
	require.Equal(t, "plain-hash-key", got)
	require.Empty(t, client.calls)
}

func TestResolveFetchesOnceAndCaches(t *testing.T) {
	ctx := context.Background()
	name := "projects/portfolio/secrets/session-hash/versions/latest"
	client := newFakeSecretClient(map[string]string{name: "hash-from-sm"})
	r := NewResolver("portfolio", WithClient(client))

	for range 2 {
		got, err := r.Resolve(ctx, "secret://session-hash")
		require.NoError(t, err)
		require.Equal(t, "hash-from-sm", got)
	}
	require.Equal(t, 1, client.calls[name])
}

func TestResolveHonoursProjectAndVersion(t *testing.T) {
	name := "projects/shared/secrets/block/versions/3"
	client := newFakeSecretClient(map[string]string{name: "pinned"})
	r := NewResolver("portfolio", WithClient(client))

	got, err := r.Resolve(context.Background(), "secret://block?project=shared&version=3")
	require.NoError(t, err)
	require.Equal(t, "pinned", got)
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeSecretClient(nil)

	_, err := NewResolver("portfolio", WithClient(client)).Resolve(ctx, "secret://absent")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = NewResolver("", WithClient(client)).Resolve(ctx, "secret://needs-project")
	require.ErrorContains(t, err, "no project")

	_, err = NewResolver("portfolio", WithClient(client)).Resolve(ctx, "secret://")
	require.ErrorContains(t, err, "missing secret name")
}

func TestResolveAllRewritesInPlace(t *testing.T) {
	client := newFakeSecretClient(map[string]string{
		"projects/portfolio/secrets/hash/versions/latest": "h",
	})
	r := NewResolver("portfolio", WithClient(client))

	hash, block := "secret://hash", "literal-block"
	require.NoError(t, r.ResolveAll(context.Background(), &hash, &block, nil))
	require.Equal(t, "h", hash)
	require.Equal(t, "literal-block", block)

	require.NoError(t, r.Close())
	require.False(t, client.closed, "injected clients are owned by the caller")
}
