package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sink receives every emitted event. Implementations must not block: the
// session loop calls Deliver on its own goroutine after each state change
// commits, so a slow sink would stall the match.
type Sink interface {
	Deliver(event *MatchEvent)
}

// Emitter builds event envelopes and fans them out to all registered sinks
// in emission order.
type Emitter struct {
	matchID string
	clock   clockwork.Clock
	sinks   []Sink
}

// NewEmitter creates an emitter for one match.
func NewEmitter(matchID string, clock clockwork.Clock, sinks ...Sink) *Emitter {
	return &Emitter{
		matchID: matchID,
		clock:   clock,
		sinks:   sinks,
	}
}

// AddSink registers an additional sink. Not safe to call once the session
// loop is running.
func (e *Emitter) AddSink(sink Sink) {
	e.sinks = append(e.sinks, sink)
}

// Emit wraps the payload in an envelope and delivers it to every sink.
// Marshal failures are logged and dropped; they never surface to the caller
// because a bad payload must not stall the authoritative loop.
func (e *Emitter) Emit(eventType EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		return
	}

	event := &MatchEvent{
		ID:        uuid.New().String(),
		MatchID:   e.matchID,
		Type:      eventType,
		Timestamp: e.clock.Now(),
		Data:      data,
	}

	for _, sink := range e.sinks {
		sink.Deliver(event)
	}
}
