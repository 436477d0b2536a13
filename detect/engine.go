package detect

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"vigil/core"
	"vigil/metrics"

	"go.uber.org/zap"
)

// Engine evaluates registered units against events. All evaluation
// faults are captured into the verdict's Error field; Evaluate never
// panics outward regardless of what a predicate or extractor does.
type Engine struct {
	registry *Registry
	logger   *zap.SugaredLogger
	workers  int
}

// NewEngine creates an engine over a loaded registry. workers bounds
// RunParallel; values below 1 fall back to GOMAXPROCS.
func NewEngine(registry *Registry, workers int, logger *zap.SugaredLogger) *Engine {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{registry: registry, logger: logger, workers: workers}
}

// Registry exposes the engine's registry for callers that list units.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate runs one unit against one event and returns the verdict.
//
// A predicate fault forces Matched false and skips the extractors. When
// the predicate matches, the extractors run independently in a fixed
// order; a fault in one is recorded without discarding fields already
// extracted or un-matching the verdict. Severity defaults to MEDIUM
// when no extractor is defined or the extractor faulted.
func (e *Engine) Evaluate(unit *Unit, event core.Event) core.Verdict {
	start := time.Now()
	verdict := core.Verdict{
		RuleID:    unit.ID,
		SourceRef: unit.SourceRef,
	}

	matched, err := runPredicate(unit.Rule, event)
	if err != nil {
		verdict.Error = err.Error()
	} else if matched {
		verdict.Matched = true
		e.extract(unit, event, &verdict)
	}

	elapsed := time.Since(start)
	verdict.DurationMS = float64(elapsed.Nanoseconds()) / 1e6

	metrics.EvaluationDuration.Observe(elapsed.Seconds())
	metrics.Evaluations.WithLabelValues(outcome(&verdict)).Inc()
	return verdict
}

// extract runs the optional extractors in the fixed order title,
// severity, description, reference, runbook, alert_context, dedup.
func (e *Engine) extract(unit *Unit, event core.Event, verdict *core.Verdict) {
	runString(unit.Title, event, &verdict.Title, &verdict.Error, "title")

	if unit.Severity != nil {
		runString(unit.Severity, event, &verdict.Severity, &verdict.Error, "severity")
	}
	if verdict.Severity == "" {
		verdict.Severity = core.SeverityMedium
	}

	runString(unit.Description, event, &verdict.Description, &verdict.Error, "description")
	runString(unit.Reference, event, &verdict.Reference, &verdict.Error, "reference")
	runString(unit.Runbook, event, &verdict.Runbook, &verdict.Error, "runbook")

	if unit.AlertContext != nil {
		ctx, err := runContext(unit.AlertContext, event)
		if err != nil {
			verdict.Error = err.Error()
		} else {
			verdict.AlertContext = ctx
		}
	}

	runString(unit.Dedup, event, &verdict.DedupKey, &verdict.Error, "dedup")
}

// Run evaluates the Cartesian product of events and registered units:
// outer loop over events, inner loop over units in registry insertion
// order. Units not in ruleIDs (when non-empty) and disabled units are
// skipped. The event-major ordering of the returned verdicts is a
// contract downstream consumers may rely on.
func (e *Engine) Run(events []core.Event, ruleIDs []string) []core.Verdict {
	units := e.registry.Units()
	filter := idFilter(ruleIDs)

	var verdicts []core.Verdict
	for _, event := range events {
		verdicts = append(verdicts, e.runEvent(units, filter, event)...)
	}
	return verdicts
}

// RunMatching is Run filtered to matched verdicts.
func (e *Engine) RunMatching(events []core.Event, ruleIDs []string) []core.Verdict {
	all := e.Run(events, ruleIDs)
	matching := make([]core.Verdict, 0, len(all))
	for _, v := range all {
		if v.Matched {
			matching = append(matching, v)
		}
	}
	return matching
}

// RunParallel is Run spread across a worker pool. Work is partitioned
// per event so each verdict slice has a single writer, and slices are
// merged in event order, preserving the Run ordering contract. When ctx
// is cancelled, events not yet started are abandoned: their pairs are
// absent from the output, not errored.
func (e *Engine) RunParallel(ctx context.Context, events []core.Event, ruleIDs []string) []core.Verdict {
	if len(events) == 0 {
		return nil
	}
	units := e.registry.Units()
	filter := idFilter(ruleIDs)

	pool := core.NewWorkerPool(ctx, e.workers, len(events), "engine", e.logger)
	pool.Start()

	perEvent := make([][]core.Verdict, len(events))
	for i := range events {
		i := i
		err := pool.Submit(func() {
			perEvent[i] = e.runEvent(units, filter, events[i])
		})
		if err != nil {
			// Pool rejected the task: ctx cancelled. Remaining events
			// stay unevaluated.
			e.logger.Warnf("Abandoning %d unevaluated events: %v", len(events)-i, err)
			break
		}
	}
	pool.Stop()

	var verdicts []core.Verdict
	for _, batch := range perEvent {
		verdicts = append(verdicts, batch...)
	}
	return verdicts
}

func (e *Engine) runEvent(units []*Unit, filter map[string]struct{}, event core.Event) []core.Verdict {
	var verdicts []core.Verdict
	for _, unit := range units {
		if filter != nil {
			if _, ok := filter[unit.ID]; !ok {
				continue
			}
		}
		if !unit.Enabled {
			continue
		}
		verdicts = append(verdicts, e.Evaluate(unit, event))
	}
	return verdicts
}

func idFilter(ruleIDs []string) map[string]struct{} {
	if len(ruleIDs) == 0 {
		return nil
	}
	filter := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		filter[id] = struct{}{}
	}
	return filter
}

func outcome(v *core.Verdict) string {
	switch {
	case v.Error != "":
		return metrics.OutcomeErrored
	case v.Matched:
		return metrics.OutcomeMatched
	default:
		return metrics.OutcomeUnmatched
	}
}

// runPredicate invokes the match predicate, converting a panic into an
// error value so no fault crosses the evaluation boundary.
func runPredicate(rule Predicate, event core.Event) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("rule predicate panicked: %v", r)
		}
	}()
	return rule(event), nil
}

// runString invokes one optional string extractor, recording a panic in
// errSlot without disturbing fields extracted before it.
func runString(fn StringExtractor, event core.Event, out *string, errSlot *string, name string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			*errSlot = fmt.Sprintf("%s extractor panicked: %v", name, r)
		}
	}()
	*out = fn(event)
}

func runContext(fn ContextExtractor, event core.Event) (ctx map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("alert_context extractor panicked: %v", r)
		}
	}()
	return fn(event), nil
}
