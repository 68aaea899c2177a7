package events

import (
	"time"

	"github.com/skyfall-games/skyfall/internal/models"
)

// Event payload types shared between the match core, gateway and relay.

// ParticipantJoinedPayload is the payload for a ParticipantJoined event
type ParticipantJoinedPayload struct {
	ParticipantID models.ParticipantID `json:"participant_id"`
	JoinedAt      time.Time            `json:"joined_at"`
	Connected     int                  `json:"connected"`
}

// ParticipantLeftPayload is the payload for a ParticipantLeft event
type ParticipantLeftPayload struct {
	ParticipantID models.ParticipantID `json:"participant_id"`
	LeftAt        time.Time            `json:"left_at"`
	Connected     int                  `json:"connected"`
}

// CharacterAssignedPayload is the payload for a CharacterAssigned event
type CharacterAssignedPayload struct {
	ParticipantID models.ParticipantID `json:"participant_id"`
	Character     models.CharacterID   `json:"character"`
	Unique        bool                 `json:"unique"` // false when the pool was exhausted
}

// CountdownTickPayload is the payload for a CountdownTick event
type CountdownTickPayload struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

// RoundChangedPayload is the payload for a RoundChanged event
type RoundChangedPayload struct {
	RoundIndex  int `json:"round_index"`
	TotalRounds int `json:"total_rounds"`
}

// RemainingTimePayload is the payload for a RemainingTimeUpdated event
type RemainingTimePayload struct {
	Seconds float64 `json:"seconds"`
}

// HazardSpawnedPayload is the payload for a HazardSpawned event
type HazardSpawnedPayload struct {
	X         float64 `json:"x"`
	FallSpeed float64 `json:"fall_speed"`
}

// QTEOpenedPayload is the payload for a QTEOpened event
type QTEOpenedPayload struct {
	OpenedAt      time.Time `json:"opened_at"`
	WindowSeconds float64   `json:"window_seconds"`
}

// QTEResolvedPayload is the payload for a QTEResolved event
type QTEResolvedPayload struct {
	WinnerID   *models.ParticipantID `json:"winner_id,omitempty"` // nil on timeout
	ResolvedAt time.Time             `json:"resolved_at"`
}

// ParticipantDiedPayload is the payload for a ParticipantDied event
type ParticipantDiedPayload struct {
	ParticipantID models.ParticipantID `json:"participant_id"`
	Deaths        int                  `json:"deaths"`
	AliveCount    int                  `json:"alive_count"`
}

// ImmunityGrantedPayload is the payload for an ImmunityGranted event
type ImmunityGrantedPayload struct {
	ParticipantID models.ParticipantID `json:"participant_id"`
	Until         time.Time            `json:"until"`
}

// MatchEndedPayload is the payload for a MatchEnded event
type MatchEndedPayload struct {
	EndedAt   time.Time               `json:"ended_at"`
	Standings []models.StandingsEntry `json:"standings"`
}
