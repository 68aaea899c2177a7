package models

import "time"

// Phase defines where in its lifecycle a match currently is.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS"
	PhaseCountdown         Phase = "COUNTDOWN"
	PhaseActive            Phase = "ACTIVE"
	PhaseRoundEnd          Phase = "ROUND_END"
	PhaseMatchEnd          Phase = "MATCH_END"
)

// RaceState defines the lifecycle of a single QTE race.
type RaceState string

const (
	RaceIdle     RaceState = "IDLE"
	RaceOpen     RaceState = "OPEN"
	RaceResolved RaceState = "RESOLVED"
)

// HazardSpawn is one falling-hazard spawn instruction. Ephemeral: broadcast
// once and never stored.
type HazardSpawn struct {
	X         float64 `json:"x"`
	FallSpeed float64 `json:"fall_speed"`
}

// StandingsEntry is one row of the final match standings.
type StandingsEntry struct {
	ParticipantID ParticipantID `json:"participant_id"`
	Character     CharacterID   `json:"character"`
	RoundWins     int           `json:"round_wins"`
	Deaths        int           `json:"deaths"`
	Rank          int           `json:"rank"`
}

// MatchResult is the persisted outcome of a completed match.
type MatchResult struct {
	MatchID     string           `json:"match_id"`
	RoundsTotal int              `json:"rounds_total"`
	StartedAt   time.Time        `json:"started_at"`
	EndedAt     time.Time        `json:"ended_at"`
	Standings   []StandingsEntry `json:"standings"`
}
