// Package ingest loads events for evaluation. It is pure data loading:
// JSON (single object or array) and newline-delimited JSON, with size
// guards in front of the decoder. Nothing here is part of the evaluated
// core.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"vigil/core"
	"vigil/metrics"

	"github.com/google/uuid"
)

const (
	// maxInputSize caps a whole events file or request body.
	maxInputSize = 64 * 1024 * 1024
	// maxLineSize caps one NDJSON line.
	maxLineSize = 1024 * 1024
)

// EventIDField is the field Tag writes generated identifiers to.
const EventIDField = "p_event_id"

// LoadEvents reads events from r: whole-content JSON first (object or
// array of objects), newline-delimited JSON as a fallback. Malformed
// top-level content is a parse error.
func LoadEvents(r io.Reader) ([]core.Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("events input exceeds %d bytes", maxInputSize)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var events []core.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("failed to parse JSON event array: %w", err)
		}
		return events, nil
	case '{':
		// A single object, unless the document is NDJSON whose first
		// line merely starts with '{'. Try whole-document first.
		var event core.Event
		if err := json.Unmarshal(trimmed, &event); err == nil {
			return []core.Event{event}, nil
		}
		return parseNDJSON(trimmed)
	default:
		return nil, fmt.Errorf("events input is neither a JSON value nor NDJSON")
	}
}

// LoadEventsFile loads events from a JSON or NDJSON file.
func LoadEventsFile(path string) ([]core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	events, err := LoadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.EventsIngested.WithLabelValues("file").Add(float64(len(events)))
	return events, nil
}

func parseNDJSON(data []byte) ([]core.Event, error) {
	var events []core.Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event core.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("failed to parse NDJSON line %d: %w", lineNo, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan NDJSON input: %w", err)
	}
	return events, nil
}

// Tag assigns a generated event identifier to every event that lacks
// one. It mutates the given events and returns them for chaining.
func Tag(events []core.Event) []core.Event {
	for _, event := range events {
		if event == nil {
			continue
		}
		if _, ok := event[EventIDField]; !ok {
			event[EventIDField] = uuid.New().String()
		}
	}
	return events
}
