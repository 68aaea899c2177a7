package models

import "time"

// ParticipantID is the stable connection-scoped identifier assigned by the
// transport layer. It is never reused while the session is live.
type ParticipantID uint64

// CharacterID identifies one of the playable characters. A participant holds
// CharacterNone until an assignment request is processed.
type CharacterID string

const (
	CharacterNone   CharacterID = "NONE"
	CharacterAmber  CharacterID = "AMBER"
	CharacterCobalt CharacterID = "COBALT"
	CharacterJade   CharacterID = "JADE"
	CharacterRuby   CharacterID = "RUBY"
)

// CharacterPool lists every assignable character, in declaration order.
func CharacterPool() []CharacterID {
	return []CharacterID{CharacterAmber, CharacterCobalt, CharacterJade, CharacterRuby}
}

// Participant is the authoritative per-player record. It is owned and mutated
// exclusively by the session loop; everything handed outward is a copy.
type Participant struct {
	ID          ParticipantID `json:"id"`
	Character   CharacterID   `json:"character"`
	Alive       bool          `json:"alive"`
	ImmuneUntil time.Time     `json:"immune_until,omitempty"`
	Deaths      int           `json:"deaths"`
	RoundWins   int           `json:"round_wins"`
	ConnectedAt time.Time     `json:"connected_at"`
}

// Immune reports whether the participant's immunity window covers now.
func (p *Participant) Immune(now time.Time) bool {
	return now.Before(p.ImmuneUntil)
}
