package events

import (
	"encoding/json"
	"time"
)

// MatchEvent is the envelope for every outbound event. The same envelope is
// broadcast to websocket clients and published to the relay.
type MatchEvent struct {
	ID        string          `json:"id"`        // Event UUID
	MatchID   string          `json:"match_id"`  // Match UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of match event.
type EventType string

const (
	EventTypeParticipantJoined EventType = "ParticipantJoined"
	EventTypeParticipantLeft   EventType = "ParticipantLeft"
	EventTypeCharacterAssigned EventType = "CharacterAssigned"
	EventTypeCountdownTick     EventType = "CountdownTick"
	EventTypeRoundChanged      EventType = "RoundChanged"
	EventTypeRemainingTime     EventType = "RemainingTimeUpdated"
	EventTypeHazardSpawned     EventType = "HazardSpawned"
	EventTypeQTEOpened         EventType = "QTEOpened"
	EventTypeQTEResolved       EventType = "QTEResolved"
	EventTypeParticipantDied   EventType = "ParticipantDied"
	EventTypeImmunityGranted   EventType = "ImmunityGranted"
	EventTypeMatchEnded        EventType = "MatchEnded"
)

// ParseEventPayload parses event data into the appropriate payload struct.
func ParseEventPayload(event *MatchEvent) (interface{}, error) {
	var target interface{}
	switch event.Type {
	case EventTypeParticipantJoined:
		target = &ParticipantJoinedPayload{}
	case EventTypeParticipantLeft:
		target = &ParticipantLeftPayload{}
	case EventTypeCharacterAssigned:
		target = &CharacterAssignedPayload{}
	case EventTypeCountdownTick:
		target = &CountdownTickPayload{}
	case EventTypeRoundChanged:
		target = &RoundChangedPayload{}
	case EventTypeRemainingTime:
		target = &RemainingTimePayload{}
	case EventTypeHazardSpawned:
		target = &HazardSpawnedPayload{}
	case EventTypeQTEOpened:
		target = &QTEOpenedPayload{}
	case EventTypeQTEResolved:
		target = &QTEResolvedPayload{}
	case EventTypeParticipantDied:
		target = &ParticipantDiedPayload{}
	case EventTypeImmunityGranted:
		target = &ImmunityGrantedPayload{}
	case EventTypeMatchEnded:
		target = &MatchEndedPayload{}
	default:
		return nil, nil // Unknown event type
	}
	if err := json.Unmarshal(event.Data, target); err != nil {
		return nil, err
	}
	return target, nil
}
