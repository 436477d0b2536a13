package detect

import "sync"

// Registry holds loaded units in insertion order. Loading is
// single-writer; once a registry is fully loaded, concurrent reads are
// safe because units are immutable.
type Registry struct {
	mu    sync.RWMutex
	units []*Unit
	index map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register stores a unit under its ID. Re-registering an ID replaces
// the prior unit but keeps its original position, so iteration order is
// the order IDs were first seen.
func (r *Registry) Register(unit *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[unit.ID]; ok {
		r.units[i] = unit
		return
	}
	r.index[unit.ID] = len(r.units)
	r.units = append(r.units, unit)
}

// Get returns the unit registered under id, or nil.
func (r *Registry) Get(id string) *Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.index[id]; ok {
		return r.units[i]
	}
	return nil
}

// Units returns the registered units in insertion order. The returned
// slice is a copy; the units themselves are shared and immutable.
func (r *Registry) Units() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}
