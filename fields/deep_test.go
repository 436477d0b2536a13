package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() map[string]interface{} {
	return map[string]interface{}{
		"eventName": "ConsoleLogin",
		"userIdentity": map[string]interface{}{
			"type": "Root",
			"arn":  "arn:aws:iam::123456789012:root",
		},
		"records": []interface{}{
			map[string]interface{}{"id": float64(1)},
			map[string]interface{}{"id": float64(2)},
		},
		"nullField": nil,
	}
}

func TestDeepGet(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, "Root", DeepGet(event, "userIdentity", "type"))
	assert.Equal(t, "ConsoleLogin", DeepGet(event, "eventName"))
	assert.Nil(t, DeepGet(event, "missing", "key"))
	assert.Nil(t, DeepGet(event, "eventName", "deeper"), "scalar mid-path fails soft")
	assert.Nil(t, DeepGet(event, "nullField"))
}

func TestDeepGetDefault(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, "N/A", DeepGetDefault(event, "N/A", "missing", "key"))
	assert.Equal(t, "N/A", DeepGetDefault(event, "N/A", "nullField"),
		"present-but-null yields the default, not nil")
	assert.Equal(t, "Root", DeepGetDefault(event, "N/A", "userIdentity", "type"))
}

func TestDeepGetArrayIndex(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, float64(2), DeepGet(event, "records", "1", "id"))
	assert.Nil(t, DeepGet(event, "records", "5", "id"), "out-of-range index")
	assert.Nil(t, DeepGet(event, "records", "-1", "id"))
	assert.Nil(t, DeepGet(event, "records", "x", "id"), "non-numeric index into array")
}

// Traversal composes: resolving a prefix and continuing with the suffix
// equals resolving the whole path.
func TestDeepGetPrefixSuffixComposition(t *testing.T) {
	event := sampleEvent()

	whole := DeepGet(event, "userIdentity", "type")
	prefix := DeepGet(event, "userIdentity")
	inner, ok := prefix.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, whole, DeepGet(inner, "type"))
}

func TestDeepGetString(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, "Root", DeepGetString(event, "userIdentity", "type"))
	assert.Equal(t, "", DeepGetString(event, "records"))
	assert.Equal(t, "", DeepGetString(event, "missing"))
}

func TestDeepWalkFanOut(t *testing.T) {
	event := map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{"id": float64(1)},
			map[string]interface{}{"id": float64(2)},
		},
	}

	assert.Equal(t, []interface{}{float64(1), float64(2)}, DeepWalk(event, "records", "id"))
}

func TestDeepWalkTerminalValue(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, []interface{}{"ConsoleLogin"}, DeepWalk(event, "eventName"))
	assert.Empty(t, DeepWalk(event, "nullField"), "null terminal contributes nothing")
}

func TestDeepWalkKeys(t *testing.T) {
	event := sampleEvent()

	keys := DeepWalkKeys(event, "userIdentity")
	assert.ElementsMatch(t, []interface{}{"type", "arn"}, keys)
	assert.Empty(t, DeepWalkKeys(event, "eventName"), "key mode over a non-map")
}

func TestDeepWalkEmptyAggregate(t *testing.T) {
	event := map[string]interface{}{"records": []interface{}{}}
	def := []interface{}{"fallback"}

	assert.Equal(t, def, DeepWalkDefault(event, def, "records", "id"))
	assert.Nil(t, DeepWalk(event, "records", "id"))
}

// The walk contract is deliberately loose: a branch whose shape
// mismatches the path is dropped exactly like an absent one, so the
// caller only learns that the aggregate is empty. This pins the
// documented conflation of "absent" and "wrong shape"; it is a quirk,
// not a guarantee worth strengthening silently.
func TestDeepWalkDropsMismatchedBranches(t *testing.T) {
	event := map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{"id": float64(1)},
			"not-an-object",
			map[string]interface{}{"other": true},
		},
	}

	assert.Equal(t, []interface{}{float64(1)}, DeepWalk(event, "records", "id"))

	allMismatched := map[string]interface{}{
		"records": []interface{}{"a", "b"},
	}
	def := []interface{}{"fallback"}
	assert.Equal(t, def, DeepWalkDefault(allMismatched, def, "records", "id"))
}

func TestGetStringSet(t *testing.T) {
	event := map[string]interface{}{
		"single": "a",
		"multi":  []interface{}{"a", "b", nil, float64(3)},
		"number": float64(7),
		"null":   nil,
	}

	assert.Equal(t, map[string]struct{}{"a": {}}, GetStringSet(event, "single"))
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}, "3": {}}, GetStringSet(event, "multi"))
	assert.Equal(t, map[string]struct{}{"7": {}}, GetStringSet(event, "number"))
	assert.Empty(t, GetStringSet(event, "null"))
	assert.Empty(t, GetStringSet(event, "missing"))
}
