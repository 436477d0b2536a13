// Package fields is the safe field-extraction library detection units
// are written against: nested-path lookups over heterogeneous JSON-like
// data, wildcard matching, network and identifier helpers, and fixed
// reference tables. Every helper fails soft; none of them panic on
// malformed input.
package fields

import (
	"fmt"
	"strconv"
)

// DeepGet walks a sequence of keys through nested maps (and numeric
// string indexes through arrays) and returns the value found, or nil
// when any intermediate node is absent, of the wrong shape, or an index
// is out of range.
//
//	DeepGet(event, "userIdentity", "type")
func DeepGet(event map[string]interface{}, keys ...string) interface{} {
	return DeepGetDefault(event, nil, keys...)
}

// DeepGetDefault is DeepGet with a caller-supplied fallback. A present
// but nil terminal value also yields the fallback: this library does
// not distinguish "absent" from "present and null".
func DeepGetDefault(event map[string]interface{}, def interface{}, keys ...string) interface{} {
	var current interface{} = event
	for _, key := range keys {
		switch node := current.(type) {
		case map[string]interface{}:
			current = node[key]
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return def
			}
			current = node[idx]
		default:
			return def
		}
		if current == nil {
			return def
		}
	}
	if current == nil {
		return def
	}
	return current
}

// DeepGetString is DeepGet narrowed to string values; non-string or
// absent terminals yield "".
func DeepGetString(event map[string]interface{}, keys ...string) string {
	if s, ok := DeepGet(event, keys...).(string); ok {
		return s
	}
	return ""
}

// DeepWalk walks a path like DeepGet but fans out over arrays: when a
// slice is met mid-path the remaining path is applied to every element
// and the results are concatenated in element order. The terminal value
// is wrapped in a one-element slice (nil terminals contribute nothing).
//
//	DeepWalk(Event{"records": [{"id": 1}, {"id": 2}]}, "records", "id")
//	→ [1, 2]
//
// An empty aggregate returns nil. Callers must treat only the aggregate
// emptiness as "not found": an element whose shape mismatches the path
// is silently dropped, indistinguishable from an absent one.
func DeepWalk(event map[string]interface{}, keys ...string) []interface{} {
	return walk(event, keys, walkValues)
}

// DeepWalkKeys is DeepWalk in key mode: the terminal contribution is
// the key set of the terminal map (empty for non-maps).
func DeepWalkKeys(event map[string]interface{}, keys ...string) []interface{} {
	return walk(event, keys, walkKeys)
}

// DeepWalkDefault returns def in place of an empty aggregate.
func DeepWalkDefault(event map[string]interface{}, def []interface{}, keys ...string) []interface{} {
	results := DeepWalk(event, keys...)
	if len(results) == 0 {
		return def
	}
	return results
}

type walkMode int

const (
	walkValues walkMode = iota
	walkKeys
)

func walk(event map[string]interface{}, keys []string, mode walkMode) []interface{} {
	return walkNode(event, keys, mode)
}

func walkNode(node interface{}, keys []string, mode walkMode) []interface{} {
	if len(keys) == 0 {
		if mode == walkKeys {
			m, ok := node.(map[string]interface{})
			if !ok {
				return nil
			}
			out := make([]interface{}, 0, len(m))
			for k := range m {
				out = append(out, k)
			}
			return out
		}
		if node == nil {
			return nil
		}
		return []interface{}{node}
	}

	switch n := node.(type) {
	case map[string]interface{}:
		child, ok := n[keys[0]]
		if !ok {
			return nil
		}
		return walkNode(child, keys[1:], mode)
	case []interface{}:
		var out []interface{}
		for _, elem := range n {
			out = append(out, walkNode(elem, keys, mode)...)
		}
		return out
	}
	return nil
}

// GetStringSet collects a top-level field as a set of strings: a scalar
// becomes a one-element set, an array contributes each non-nil element,
// anything else is stringified.
func GetStringSet(event map[string]interface{}, key string) map[string]struct{} {
	out := map[string]struct{}{}
	value, ok := event[key]
	if !ok || value == nil {
		return out
	}
	switch v := value.(type) {
	case string:
		out[v] = struct{}{}
	case []interface{}:
		for _, elem := range v {
			if elem == nil {
				continue
			}
			out[stringify(elem)] = struct{}{}
		}
	default:
		out[stringify(v)] = struct{}{}
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprintf("%v", v)
}
