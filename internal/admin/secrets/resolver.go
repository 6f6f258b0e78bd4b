// Package secrets resolves secret:// references in admin configuration through Google Secret Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	scheme         = "secret://"
	meterNamespace = "github.com/mkshin96/portfolio/internal/admin/secrets"
)

// ErrNotFound is returned when the referenced secret or version does not exist.
var ErrNotFound = errors.New("secrets: not found")

// Client is the subset of the Secret Manager client used by Resolver.
type Client interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClient injects a Secret Manager client instead of dialing one.
func WithClient(client Client) Option {
	return func(r *Resolver) { r.client = client }
}

// WithClientOptions passes dial options to the lazily created client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(r *Resolver) { r.clientOpts = append(r.clientOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMeter overrides the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(r *Resolver) { r.meter = m }
}

// Resolver turns secret://NAME[?version=V&project=P] references into secret payloads.
// Plain values pass through untouched, so configs can mix literals and references.
type Resolver struct {
	project string
	logger  *zap.Logger
	meter   metric.Meter
	fetches metric.Int64Counter

	client     Client
	ownsClient bool
	clientOpts []option.ClientOption

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver builds a Resolver for project. The Secret Manager client is dialed lazily on the
// first reference so literal-only configs never need credentials.
func NewResolver(project string, opts ...Option) *Resolver {
	r := &Resolver{
		project: strings.TrimSpace(project),
		logger:  zap.NewNop(),
		cache:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.meter == nil {
		r.meter = otel.GetMeterProvider().Meter(meterNamespace)
	}
	counter, err := r.meter.Int64Counter(
		"admin.secrets.fetches",
		metric.WithDescription("Secret Manager lookups by outcome"),
	)
	if err != nil {
		r.logger.Warn("secrets: unable to register fetch counter", zap.Error(err))
	} else {
		r.fetches = counter
	}
	return r
}

// IsReference reports whether value uses the secret:// scheme.
func IsReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), scheme)
}

// Resolve returns the payload for a secret:// reference, or value itself otherwise.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	name, err := r.resourceName(value)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[name]; ok {
		r.record(ctx, "cache")
		return cached, nil
	}
	if r.client == nil {
		client, err := secretmanager.NewClient(ctx, r.clientOpts...)
		if err != nil {
			return "", fmt.Errorf("secrets: dial secret manager: %w", err)
		}
		r.client = client
		r.ownsClient = true
	}

	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	switch {
	case status.Code(err) == codes.NotFound:
		r.record(ctx, "not_found")
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	case err != nil:
		r.record(ctx, "error")
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	case resp.GetPayload() == nil:
		r.record(ctx, "error")
		return "", fmt.Errorf("secrets: empty payload for %s", name)
	}

	payload := strings.TrimSpace(string(resp.GetPayload().GetData()))
	r.cache[name] = payload
	r.record(ctx, "remote")
	r.logger.Debug("secret resolved", zap.String("secret", name))
	return payload, nil
}

// ResolveAll resolves each pointer in place and stops at the first failure.
func (r *Resolver) ResolveAll(ctx context.Context, values ...*string) error {
	for _, v := range values {
		if v == nil {
			continue
		}
		resolved, err := r.Resolve(ctx, *v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}

// Close releases a client the resolver dialed itself.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil || !r.ownsClient {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *Resolver) resourceName(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	secret := strings.Trim(u.Host+u.Path, "/")
	if secret == "" {
		return "", fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	project := firstNonEmpty(u.Query().Get("project"), r.project)
	if project == "" {
		return "", fmt.Errorf("secrets: no project for %q", ref)
	}
	version := firstNonEmpty(u.Query().Get("version"), "latest")
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, secret, version), nil
}

func (r *Resolver) record(ctx context.Context, outcome string) {
	if r.fetches == nil {
		return
	}
	r.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
