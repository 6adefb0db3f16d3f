// Package conn holds the storage-provider contract (§6 external interfaces)
// plus reference implementations: redisack (an AcknowledgableMessage source
// backed by Redis) and sqlitedlq (a DeadLetterSink backed by SQLite).
package conn

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/flowlinego/flowline/errs"
)

// StorageProvider opens read/write byte streams for URIs under the schemes
// it registers for (e.g. "file", "s3", "gs"). Connector-specific
// implementations for any particular scheme are out of scope here; this is
// the seam they plug into.
type StorageProvider interface {
	OpenRead(ctx context.Context, uri string) (io.ReadCloser, error)
	OpenWrite(ctx context.Context, uri string) (io.WriteCloser, error)
}

// Registry resolves a URI's scheme to a registered StorageProvider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]StorageProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]StorageProvider)}
}

// Register associates scheme with provider, overwriting any prior
// registration for the same scheme.
func (r *Registry) Register(scheme string, provider StorageProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[scheme] = provider
}

func (r *Registry) resolve(uri string) (StorageProvider, error) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return nil, &errs.UnsupportedStorageSchemeError{Scheme: uri}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[parsed.Scheme]
	if !ok {
		return nil, &errs.StorageProviderNotFoundError{Scheme: parsed.Scheme}
	}
	return p, nil
}

// OpenRead resolves uri's scheme and opens it for reading.
func (r *Registry) OpenRead(ctx context.Context, uri string) (io.ReadCloser, error) {
	p, err := r.resolve(uri)
	if err != nil {
		return nil, err
	}
	return p.OpenRead(ctx, uri)
}

// OpenWrite resolves uri's scheme and opens it for writing.
func (r *Registry) OpenWrite(ctx context.Context, uri string) (io.WriteCloser, error) {
	p, err := r.resolve(uri)
	if err != nil {
		return nil, err
	}
	return p.OpenWrite(ctx, uri)
}
