package detect

import (
	"context"
	"fmt"
	"testing"

	"vigil/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// matchAll is a trivial unit matching every event.
func matchAll(id string) *Unit {
	return &Unit{
		ID:        id,
		SourceRef: "test:" + id,
		Enabled:   true,
		Rule:      func(core.Event) bool { return true },
	}
}

func newTestEngine(units ...*Unit) *Engine {
	registry := NewRegistry()
	for _, u := range units {
		registry.Register(u)
	}
	return NewEngine(registry, 2, testLogger())
}

func TestEvaluateUnmatchedLeavesMetadataUnset(t *testing.T) {
	unit := &Unit{
		ID:      "never",
		Enabled: true,
		Rule:    func(core.Event) bool { return false },
		Title:   func(core.Event) string { return "should not run" },
		Dedup:   func(core.Event) string { return "should not run" },
	}
	engine := newTestEngine(unit)

	v := engine.Evaluate(unit, core.Event{"a": "b"})

	assert.False(t, v.Matched)
	assert.Empty(t, v.Title)
	assert.Empty(t, v.Severity)
	assert.Empty(t, v.Description)
	assert.Empty(t, v.Reference)
	assert.Empty(t, v.Runbook)
	assert.Nil(t, v.AlertContext)
	assert.Empty(t, v.DedupKey)
	assert.Empty(t, v.Error)
}

func TestEvaluateSeverityDefaultsToMedium(t *testing.T) {
	unit := matchAll("no-severity")
	engine := newTestEngine(unit)

	v := engine.Evaluate(unit, core.Event{})

	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityMedium, v.Severity)
}

func TestEvaluateRunsExtractors(t *testing.T) {
	unit := &Unit{
		ID:      "full",
		Enabled: true,
		Rule:    func(core.Event) bool { return true },
		Title:   func(e core.Event) string { return "t:" + e.GetString("name") },
		Severity: func(core.Event) string {
			return core.SeverityHigh
		},
		Description: func(core.Event) string { return "desc" },
		Reference:   func(core.Event) string { return "ref" },
		Runbook:     func(core.Event) string { return "rb" },
		AlertContext: func(e core.Event) map[string]interface{} {
			return map[string]interface{}{"name": e["name"]}
		},
		Dedup: func(e core.Event) string { return "d:" + e.GetString("name") },
	}
	engine := newTestEngine(unit)

	v := engine.Evaluate(unit, core.Event{"name": "x"})

	assert.True(t, v.Matched)
	assert.Equal(t, "t:x", v.Title)
	assert.Equal(t, core.SeverityHigh, v.Severity)
	assert.Equal(t, "desc", v.Description)
	assert.Equal(t, "ref", v.Reference)
	assert.Equal(t, "rb", v.Runbook)
	assert.Equal(t, map[string]interface{}{"name": "x"}, v.AlertContext)
	assert.Equal(t, "d:x", v.DedupKey)
	assert.Empty(t, v.Error)
	assert.GreaterOrEqual(t, v.DurationMS, 0.0)
}

func TestEvaluatePanickingPredicate(t *testing.T) {
	unit := &Unit{
		ID:      "boom",
		Enabled: true,
		Rule:    func(core.Event) bool { panic("kaput") },
		Title:   func(core.Event) string { return "should not run" },
	}
	engine := newTestEngine(unit)

	require.NotPanics(t, func() {
		v := engine.Evaluate(unit, core.Event{})
		assert.False(t, v.Matched)
		assert.Contains(t, v.Error, "kaput")
		assert.Empty(t, v.Title)
		assert.Empty(t, v.Severity, "extractors are skipped on predicate fault")
	})
}

func TestEvaluatePanickingExtractorKeepsMatch(t *testing.T) {
	unit := &Unit{
		ID:      "partial",
		Enabled: true,
		Rule:    func(core.Event) bool { return true },
		Title:   func(core.Event) string { return "kept title" },
		Description: func(core.Event) string {
			panic("description exploded")
		},
		Dedup: func(core.Event) string { return "kept dedup" },
	}
	engine := newTestEngine(unit)

	v := engine.Evaluate(unit, core.Event{})

	assert.True(t, v.Matched, "extractor fault does not flip matched")
	assert.Equal(t, "kept title", v.Title, "fields computed before the fault survive")
	assert.Contains(t, v.Error, "description exploded")
	assert.Equal(t, "kept dedup", v.DedupKey, "later extractors still run")
	assert.Equal(t, core.SeverityMedium, v.Severity)
}

func TestEvaluateNilSafePredicateInput(t *testing.T) {
	unit := &Unit{
		ID:      "nil-event",
		Enabled: true,
		Rule: func(e core.Event) bool {
			return e.GetString("missing") == "x" // must not panic on nil map
		},
	}
	engine := newTestEngine(unit)

	v := engine.Evaluate(unit, nil)
	assert.False(t, v.Matched)
	assert.Empty(t, v.Error)
}

func TestRunOrderingContract(t *testing.T) {
	a := matchAll("A")
	b := matchAll("B")
	engine := newTestEngine(a, b)

	e1 := core.Event{"n": "e1"}
	e2 := core.Event{"n": "e2"}
	verdicts := engine.Run([]core.Event{e1, e2}, nil)

	require.Len(t, verdicts, 4)
	assert.Equal(t, "A", verdicts[0].RuleID)
	assert.Equal(t, "B", verdicts[1].RuleID)
	assert.Equal(t, "A", verdicts[2].RuleID)
	assert.Equal(t, "B", verdicts[3].RuleID)
}

func TestRunSkipsDisabledUnits(t *testing.T) {
	enabled := matchAll("on")
	disabled := matchAll("off")
	disabled.Enabled = false
	engine := newTestEngine(enabled, disabled)

	verdicts := engine.Run([]core.Event{{}}, nil)

	require.Len(t, verdicts, 1)
	assert.Equal(t, "on", verdicts[0].RuleID)
}

func TestRunFiltersByRuleID(t *testing.T) {
	engine := newTestEngine(matchAll("A"), matchAll("B"), matchAll("C"))

	verdicts := engine.Run([]core.Event{{}}, []string{"B"})

	require.Len(t, verdicts, 1)
	assert.Equal(t, "B", verdicts[0].RuleID)
}

func TestRunEmptyInputs(t *testing.T) {
	engine := newTestEngine()
	assert.Empty(t, engine.Run(nil, nil), "no units is not an error")

	engine = newTestEngine(matchAll("A"))
	assert.Empty(t, engine.Run(nil, nil), "no events yields no verdicts")
}

func TestRunOneVerdictPerPairDespiteFaults(t *testing.T) {
	good := matchAll("good")
	bad := &Unit{
		ID:      "bad",
		Enabled: true,
		Rule:    func(core.Event) bool { panic("always") },
	}
	engine := newTestEngine(good, bad)

	events := []core.Event{{}, {}, {}}
	verdicts := engine.Run(events, nil)

	require.Len(t, verdicts, 6, "exactly one verdict per evaluated pair")
	for i, v := range verdicts {
		if v.RuleID == "bad" {
			assert.NotEmpty(t, v.Error, "verdict %d", i)
			assert.False(t, v.Matched)
		} else {
			assert.True(t, v.Matched)
		}
	}
}

func TestRunMatching(t *testing.T) {
	yes := matchAll("yes")
	no := &Unit{
		ID:      "no",
		Enabled: true,
		Rule:    func(core.Event) bool { return false },
	}
	engine := newTestEngine(yes, no)

	verdicts := engine.RunMatching([]core.Event{{}, {}}, nil)

	require.Len(t, verdicts, 2)
	for _, v := range verdicts {
		assert.Equal(t, "yes", v.RuleID)
		assert.True(t, v.Matched)
	}
}

func TestRunParallelPreservesOrdering(t *testing.T) {
	a := matchAll("A")
	b := matchAll("B")
	engine := newTestEngine(a, b)

	var events []core.Event
	for i := 0; i < 50; i++ {
		events = append(events, core.Event{"i": fmt.Sprintf("%d", i)})
	}

	sequential := engine.Run(events, nil)
	parallel := engine.RunParallel(context.Background(), events, nil)

	require.Len(t, parallel, len(sequential))
	for i := range sequential {
		assert.Equal(t, sequential[i].RuleID, parallel[i].RuleID, "position %d", i)
	}
}

func TestRunParallelEmptyEvents(t *testing.T) {
	engine := newTestEngine(matchAll("A"))
	assert.Empty(t, engine.RunParallel(context.Background(), nil, nil))
}
