package games

import "sync"

// Event kinds emitted by the engine. One event per observable state
// change; the engine never formats or persists these itself.
const (
	EventPhase         = "phase"
	EventRoleAssigned  = "role_assigned"
	EventNotice        = "notice" // private, to one actor
	EventTeamNotice    = "team_notice"
	EventBlock         = "block"
	EventKillAttempt   = "kill_attempt"
	EventDeath         = "death"
	EventInvestigation = "investigation"
	EventTrack         = "track"
	EventSpeech        = "speech"
	EventVote          = "vote"
	EventElimination   = "elimination"
	EventCouncil       = "council"
	EventWin           = "win"
	EventAbort         = "abort"
)

// Event is one structured engine occurrence.
type Event struct {
	Kind    string                 `json:"kind"`
	Actor   string                 `json:"actor,omitempty"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Sink receives every event the engine emits. Implementations decide
// whether to log, persist, or broadcast; the engine only calls Emit.
// Collectors emit concurrently during the night fan-out, so Emit must be
// safe for concurrent use.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// NopSink discards all events.
var NopSink Sink = SinkFunc(func(Event) {})

// MultiSink fans one event out to several sinks in order.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) {
		for _, s := range sinks {
			s.Emit(ev)
		}
	})
}

// MemorySink records events for inspection, mainly in tests.
type MemorySink struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MemorySink) Emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

// ByKind returns recorded events of one kind.
func (m *MemorySink) ByKind(kind string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for _, ev := range m.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
