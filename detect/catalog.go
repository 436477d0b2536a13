package detect

import (
	"sort"
	"sync"
)

// Builder constructs a fresh Unit for a catalog entry. Builders run at
// load time; the loader applies manifest overrides to the result.
type Builder func() *Unit

// catalog is the compiled-in set of detection builders. Units register
// themselves from init functions (see the detections package); the
// catalog is effectively read-only once main starts.
var (
	catalogMu sync.RWMutex
	catalog   = make(map[string]Builder)
)

// RegisterBuiltin adds a builder under a catalog name. Intended to be
// called from init; a duplicate name replaces the prior builder,
// last-registered wins.
func RegisterBuiltin(name string, builder Builder) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog[name] = builder
}

// LookupBuiltin returns the builder registered under name.
func LookupBuiltin(name string) (Builder, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	b, ok := catalog[name]
	return b, ok
}

// BuiltinNames returns the registered catalog names, sorted.
func BuiltinNames() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
