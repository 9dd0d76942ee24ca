package texture

import (
	"sync"

	"glyphcaster/internal/world"
)

// Registry composes providers in priority order. It remembers, per key,
// which provider served it last so later lookups skip the scan.
type Registry struct {
	providers []Provider

	mu    sync.RWMutex
	owner map[string]int
}

// NewRegistry creates a registry; earlier providers win.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{
		providers: providers,
		owner:     make(map[string]int),
	}
}

// Add appends a provider with the lowest priority.
func (r *Registry) Add(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
}

// Texture implements Provider.
func (r *Registry) Texture(key string, width, height int, tile *world.EntryInfo, light bool) Texture {
	if key == "" {
		return nil
	}

	r.mu.RLock()
	idx, known := r.owner[key]
	providers := r.providers
	r.mu.RUnlock()

	if known && idx < len(providers) {
		if tex := providers[idx].Texture(key, width, height, tile, light); tex != nil {
			return tex
		}
	}

	for i, p := range providers {
		if known && i == idx {
			continue
		}
		if tex := p.Texture(key, width, height, tile, light); tex != nil {
			r.mu.Lock()
			r.owner[key] = i
			r.mu.Unlock()
			return tex
		}
	}
	return nil
}

// Owner reports the index of the provider cached for key.
func (r *Registry) Owner(key string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.owner[key]
	return idx, ok
}

// Forget drops the cached provider of every key.
func (r *Registry) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = make(map[string]int)
}
