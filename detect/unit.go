// Package detect implements the detection-rule execution engine: the
// unit contract, the registry and manifest loader, and the isolated
// evaluation engine that turns (event, unit) pairs into verdicts.
package detect

import "vigil/core"

// Predicate is the required match test of a detection unit.
type Predicate func(core.Event) bool

// StringExtractor produces one metadata string for a matched event.
type StringExtractor func(core.Event) string

// ContextExtractor produces arbitrary contextual fields for a matched
// event.
type ContextExtractor func(core.Event) map[string]interface{}

// Unit is one self-contained detection: a required predicate, six
// optional metadata extractors, and static attributes. Units are
// immutable after load; the engine never writes to them.
type Unit struct {
	// ID is unique within a registry, derived from the manifest file
	// stem (or the catalog name for builtins).
	ID string
	// SourceRef traces the unit back to its origin for verdicts.
	SourceRef string

	Rule Predicate

	Title        StringExtractor
	Severity     StringExtractor
	Description  StringExtractor
	Reference    StringExtractor
	Runbook      StringExtractor
	AlertContext ContextExtractor
	Dedup        StringExtractor

	// LogTypes lists the log types the unit applies to. Informational:
	// the engine does not filter on it, callers may.
	LogTypes []string
	Enabled  bool
	Tags     []string
}
