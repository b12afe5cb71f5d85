package sanctions

import "fmt"

// SourceRegistry maintains all configured sanction sources by ID. Policies
// select a subset per client; the registry owns the instances.
type SourceRegistry struct {
	sources map[string]Source
	order   []string
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]Source)}
}

// Register adds a source. Duplicate IDs are a wiring bug, not a runtime
// condition, so they fail loudly.
func (r *SourceRegistry) Register(s Source) error {
	id := s.ID()
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("sanction source %s already registered", id)
	}
	r.sources[id] = s
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a source by ID.
func (r *SourceRegistry) Get(id string) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// IDs returns all registered source IDs in registration order.
func (r *SourceRegistry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
