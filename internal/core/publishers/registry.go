package publishers

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Registry resolves a platform to its Publisher.
// It is populated once at startup and read concurrently afterwards.
type Registry struct {
	publishers map[Platform]Publisher
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{publishers: make(map[Platform]Publisher)}
}

// Register binds a publisher to a platform, replacing any previous binding
func (r *Registry) Register(platform Platform, publisher Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[platform] = publisher
}

// Get returns the publisher for a platform
func (r *Registry) Get(platform Platform) (Publisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	publisher, ok := r.publishers[platform]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedPlatform, "no publisher configured for %q", platform)
	}
	return publisher, nil
}

// Platforms returns the platforms that have a publisher registered
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Platform
	for _, p := range Platforms {
		if _, ok := r.publishers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
