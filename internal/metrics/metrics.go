package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skyfall-games/skyfall/internal/events"
)

var (
	ParticipantsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyfall_participants_connected",
			Help: "Participants currently connected to the match",
		},
	)
	RoundsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyfall_rounds_started_total",
			Help: "Total rounds that reached the countdown phase",
		},
	)
	HazardsSpawned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyfall_hazards_spawned_total",
			Help: "Total hazard spawn events emitted",
		},
	)
	RacesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyfall_qte_races_resolved_total",
			Help: "Total QTE races resolved, by outcome",
		},
		[]string{"outcome"},
	)
	ParticipantDeaths = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyfall_participant_deaths_total",
			Help: "Total lethal hazard collisions",
		},
	)
	MatchesEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skyfall_matches_ended_total",
			Help: "Total matches that ran to completion",
		},
	)
)

func init() {
	prometheus.MustRegister(ParticipantsConnected)
	prometheus.MustRegister(RoundsStarted)
	prometheus.MustRegister(HazardsSpawned)
	prometheus.MustRegister(RacesResolved)
	prometheus.MustRegister(ParticipantDeaths)
	prometheus.MustRegister(MatchesEnded)
}

// Sink maps the outbound event stream onto prometheus collectors. It is a
// drop-in events.Sink: counting from the committed event stream keeps the
// metrics in lockstep with what clients were actually told.
type Sink struct{}

// NewSink creates a metrics sink.
func NewSink() *Sink {
	return &Sink{}
}

// Deliver satisfies events.Sink.
func (s *Sink) Deliver(event *events.MatchEvent) {
	switch event.Type {
	case events.EventTypeParticipantJoined:
		ParticipantsConnected.Inc()
	case events.EventTypeParticipantLeft:
		ParticipantsConnected.Dec()
	case events.EventTypeRoundChanged:
		RoundsStarted.Inc()
	case events.EventTypeHazardSpawned:
		HazardsSpawned.Inc()
	case events.EventTypeQTEResolved:
		outcome := "winner"
		if payload, err := events.ParseEventPayload(event); err == nil {
			if resolved, ok := payload.(*events.QTEResolvedPayload); ok && resolved.WinnerID == nil {
				outcome = "timeout"
			}
		}
		RacesResolved.WithLabelValues(outcome).Inc()
	case events.EventTypeParticipantDied:
		ParticipantDeaths.Inc()
	case events.EventTypeMatchEnded:
		MatchesEnded.Inc()
	}
}
