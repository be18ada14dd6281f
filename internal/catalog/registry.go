package catalog

import (
	"fmt"
	"sort"
)

// Registry is an immutable, read-only provider catalog. It is built once at
// startup and is safe for concurrent use without locking.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers. Later providers with
// the same id replace earlier ones. Model ids are normalised to their map key.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID] = cloneProvider(p)
	}
	return r
}

// Get retrieves a provider by id.
func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// Lookup resolves a provider and one of its models.
func (r *Registry) Lookup(providerID, modelID string) (Provider, Model, error) {
	p, err := r.Get(providerID)
	if err != nil {
		return Provider{}, Model{}, err
	}
	m, err := p.Model(modelID)
	if err != nil {
		return Provider{}, Model{}, err
	}
	return p, m, nil
}

// List returns all providers ordered by id.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Catalog returns the registry as a provider id keyed map, the shape served
// by the models endpoint.
func (r *Registry) Catalog() map[string]Provider {
	out := make(map[string]Provider, len(r.providers))
	for id, p := range r.providers {
		out[id] = cloneProvider(p)
	}
	return out
}

// FreeOnly returns a registry restricted to free models. Providers left with
// no models are dropped.
func (r *Registry) FreeOnly() *Registry {
	free := &Registry{providers: make(map[string]Provider)}
	for id, p := range r.providers {
		models := make(map[string]Model)
		for mid, m := range p.Models {
			if m.IsFree() {
				models[mid] = m
			}
		}
		if len(models) == 0 {
			continue
		}
		p.Models = models
		free.providers[id] = p
	}
	return free
}

// Merge returns a new registry where the overlay providers are layered on top
// of r. Provider fields set in the overlay win, and overlay models replace
// models with the same id.
func (r *Registry) Merge(overlay ...Provider) *Registry {
	merged := &Registry{providers: make(map[string]Provider, len(r.providers))}
	for id, p := range r.providers {
		merged.providers[id] = cloneProvider(p)
	}

	for _, o := range overlay {
		base, ok := merged.providers[o.ID]
		if !ok {
			merged.providers[o.ID] = cloneProvider(o)
			continue
		}
		if o.Name != "" {
			base.Name = o.Name
		}
		if o.API != "" {
			base.API = o.API
		}
		if o.Doc != "" {
			base.Doc = o.Doc
		}
		if len(o.Env) > 0 {
			base.Env = append([]string(nil), o.Env...)
		}
		for mid, m := range o.Models {
			if m.ID == "" {
				m.ID = mid
			}
			base.Models[mid] = m
		}
		merged.providers[o.ID] = base
	}

	return merged
}

func cloneProvider(p Provider) Provider {
	models := make(map[string]Model, len(p.Models))
	for id, m := range p.Models {
		if m.ID == "" {
			m.ID = id
		}
		models[id] = m
	}
	p.Models = models
	p.Env = append([]string(nil), p.Env...)
	return p
}
