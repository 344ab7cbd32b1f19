package kobo

import (
	"fmt"

	"surveydash/domain/core"
	"surveydash/domain/dataset"
)

// Registry maps dataset names to remote assets
type Registry struct {
	sources []dataset.Source
	byName  map[string]dataset.Source
}

// NewRegistry builds a registry; later entries win on duplicate names
func NewRegistry(sources []dataset.Source) *Registry {
	r := &Registry{byName: make(map[string]dataset.Source, len(sources))}
	for _, s := range sources {
		if _, dup := r.byName[s.Name]; !dup {
			r.sources = append(r.sources, s)
		} else {
			for i := range r.sources {
				if r.sources[i].Name == s.Name {
					r.sources[i] = s
				}
			}
		}
		r.byName[s.Name] = s
	}
	return r
}

// List returns the known datasets in registration order
func (r *Registry) List() []dataset.Source {
	out := make([]dataset.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Resolve finds a dataset by name
func (r *Registry) Resolve(name string) (dataset.Source, error) {
	s, ok := r.byName[name]
	if !ok {
		return dataset.Source{}, fmt.Errorf("%w: %q", core.ErrDatasetNotFound, name)
	}
	return s, nil
}
