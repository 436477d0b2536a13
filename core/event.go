package core

// Event is one semi-structured log record: string keys mapping to
// scalars, nested objects, or arrays thereof. The engine assumes no
// schema; events are treated as read-only during evaluation.
type Event map[string]interface{}

// GetString returns a top-level field as a string, or "" when the field
// is absent or not a string.
func (e Event) GetString(key string) string {
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

// Has reports whether a top-level field is present, even if its value
// is nil.
func (e Event) Has(key string) bool {
	_, ok := e[key]
	return ok
}
