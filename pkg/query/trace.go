package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventSearchedModes     TraceEventKind = "searched_modes"
	TraceEventCandidateIDs      TraceEventKind = "candidate_ids"
	TraceEventExpandedEntities  TraceEventKind = "expanded_entities"
	TraceEventFailedMode        TraceEventKind = "failed_mode"
	TraceEventGraphContextError TraceEventKind = "graph_context_error"
)

// TraceEvent is an extensible event envelope for retrieval tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Modes        []string
	CandidateIDs []string
	EntityNames  []string

	DurationMs int64
	Error      string
}

// Tracer is a sink for retrieval tracing events.
//
// Implementers can forward events to logs, telemetry, or custom
// post-processing pipelines.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func recordSearchedModes(t Tracer, modes ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventSearchedModes, Modes: modes})
}

func recordCandidateIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventCandidateIDs, CandidateIDs: ids})
}

func recordExpandedEntities(t Tracer, names ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventExpandedEntities, EntityNames: names})
}

func recordFailedMode(t Tracer, mode string, err error) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventFailedMode, Modes: []string{mode}, Error: err.Error()})
}

func recordGraphContextError(t Tracer, err error) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventGraphContextError, Error: err.Error()})
}

// CollectingTracer accumulates events in memory. Safe for concurrent use.
type CollectingTracer struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (c *CollectingTracer) Record(event TraceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of everything recorded so far.
func (c *CollectingTracer) Events() []TraceEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TraceEvent, len(c.events))
	copy(out, c.events)
	return out
}

// FailedModes returns the sorted set of search modes that recorded a
// failure.
func (c *CollectingTracer) FailedModes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	for _, e := range c.events {
		if e.Kind == TraceEventFailedMode {
			for _, m := range e.Modes {
				seen[m] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
