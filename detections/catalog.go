// Package detections holds the compiled-in detection catalog. Each unit
// lives in its own file and registers a builder from init; the loader
// materializes units from manifest files that reference catalog names.
package detections

import "vigil/detect"

// register wires a builder into the detect catalog, stamping the
// catalog name as the default ID and source reference so builtins can
// also be registered directly, without a manifest.
func register(name string, build func() *detect.Unit) {
	detect.RegisterBuiltin(name, func() *detect.Unit {
		unit := build()
		unit.ID = name
		unit.SourceRef = "builtin:" + name
		unit.Enabled = true
		return unit
	})
}

// RegisterAll registers every catalog detection directly into a
// registry with its default attributes. Callers that manage rules
// through manifest files use detect.Loader instead.
func RegisterAll(registry *detect.Registry) []*detect.Unit {
	var units []*detect.Unit
	for _, name := range detect.BuiltinNames() {
		builder, ok := detect.LookupBuiltin(name)
		if !ok {
			continue
		}
		unit := builder()
		registry.Register(unit)
		units = append(units, unit)
	}
	return units
}
