package roster

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/models"
)

// Registry tracks connected participants and their character assignments.
// It is mutated only by the session loop, so it carries no locking; anything
// handed outward is a copy.
type Registry struct {
	participants map[models.ParticipantID]*models.Participant
	assigned     map[models.CharacterID]models.ParticipantID
	rng          *rand.Rand
}

// NewRegistry creates an empty registry. The rng drives random character
// selection; tests pass a seeded source.
func NewRegistry(rng *rand.Rand) *Registry {
	return &Registry{
		participants: make(map[models.ParticipantID]*models.Participant),
		assigned:     make(map[models.CharacterID]models.ParticipantID),
		rng:          rng,
	}
}

// Connect registers a new participant. Re-connecting an id that is already
// present is a no-op returning the existing record.
func (r *Registry) Connect(id models.ParticipantID, now time.Time) *models.Participant {
	if p, ok := r.participants[id]; ok {
		log.Warn().Uint64("participant_id", uint64(id)).Msg("participant already connected")
		return p
	}
	p := &models.Participant{
		ID:          id,
		Character:   models.CharacterNone,
		Alive:       true,
		ConnectedAt: now,
	}
	r.participants[id] = p
	return p
}

// Disconnect removes a participant and returns its character to the pool.
// Unknown ids are a no-op.
func (r *Registry) Disconnect(id models.ParticipantID) {
	p, ok := r.participants[id]
	if !ok {
		return
	}
	r.releaseCharacter(p)
	delete(r.participants, id)
}

// AssignCharacter gives the participant a character drawn uniformly at random
// from the currently unassigned pool. Idempotent: an already-assigned
// participant keeps its character. When the pool is exhausted the assignment
// degrades to a random duplicate rather than failing. The second return value
// reports whether the assignment is unique.
func (r *Registry) AssignCharacter(id models.ParticipantID) (models.CharacterID, bool, bool) {
	p, ok := r.participants[id]
	if !ok {
		log.Warn().Uint64("participant_id", uint64(id)).Msg("character requested for unknown participant")
		return models.CharacterNone, false, false
	}
	if p.Character != models.CharacterNone {
		log.Warn().
			Uint64("participant_id", uint64(id)).
			Str("character", string(p.Character)).
			Msg("character already assigned, returning existing assignment")
		return p.Character, r.assigned[p.Character] == id, true
	}

	free := r.freeCharacters()
	if len(free) > 0 {
		c := free[r.rng.Intn(len(free))]
		p.Character = c
		r.assigned[c] = id
		return c, true, true
	}

	// Pool exhausted: hand out a duplicate so the connection still succeeds.
	pool := models.CharacterPool()
	c := pool[r.rng.Intn(len(pool))]
	p.Character = c
	log.Warn().
		Uint64("participant_id", uint64(id)).
		Str("character", string(c)).
		Msg("character pool exhausted, assigning duplicate")
	return c, false, true
}

// releaseCharacter returns the participant's character to the pool. Duplicate
// assignments only clear the ownership entry when it still points at this
// participant.
func (r *Registry) releaseCharacter(p *models.Participant) {
	if p.Character == models.CharacterNone {
		return
	}
	if owner, ok := r.assigned[p.Character]; ok && owner == p.ID {
		delete(r.assigned, p.Character)
	}
	p.Character = models.CharacterNone
}

func (r *Registry) freeCharacters() []models.CharacterID {
	var free []models.CharacterID
	for _, c := range models.CharacterPool() {
		if _, taken := r.assigned[c]; !taken {
			free = append(free, c)
		}
	}
	return free
}

// Get returns the live record for id, or nil if unknown. Callers outside the
// session loop must use Snapshot instead.
func (r *Registry) Get(id models.ParticipantID) *models.Participant {
	return r.participants[id]
}

// Count returns the number of connected participants.
func (r *Registry) Count() int {
	return len(r.participants)
}

// AliveCount returns how many participants are currently alive.
func (r *Registry) AliveCount() int {
	n := 0
	for _, p := range r.participants {
		if p.Alive {
			n++
		}
	}
	return n
}

// MarkDead records a lethal hit for the participant. Returns false when the
// hit must be ignored: unknown id, already dead, or immunity covers now.
func (r *Registry) MarkDead(id models.ParticipantID, now time.Time) bool {
	p, ok := r.participants[id]
	if !ok {
		log.Warn().Uint64("participant_id", uint64(id)).Msg("collision reported for unknown participant")
		return false
	}
	if !p.Alive || p.Immune(now) {
		return false
	}
	p.Alive = false
	p.Deaths++
	return true
}

// GrantImmunity sets the participant's immunity window to now + d.
func (r *Registry) GrantImmunity(id models.ParticipantID, now time.Time, d time.Duration) (time.Time, bool) {
	p, ok := r.participants[id]
	if !ok {
		return time.Time{}, false
	}
	p.ImmuneUntil = now.Add(d)
	return p.ImmuneUntil, true
}

// ResetForRound revives every participant and clears immunity. Death and
// round-win counters persist for the session lifetime.
func (r *Registry) ResetForRound() {
	for _, p := range r.participants {
		p.Alive = true
		p.ImmuneUntil = time.Time{}
	}
}

// CreditSurvivors increments RoundWins for every participant still alive.
func (r *Registry) CreditSurvivors() {
	for _, p := range r.participants {
		if p.Alive {
			p.RoundWins++
		}
	}
}

// Standings returns the final ranking: most round wins first, fewest deaths
// breaking ties, participant id as the stable last resort.
func (r *Registry) Standings() []models.StandingsEntry {
	entries := make([]models.StandingsEntry, 0, len(r.participants))
	for _, p := range r.participants {
		entries = append(entries, models.StandingsEntry{
			ParticipantID: p.ID,
			Character:     p.Character,
			RoundWins:     p.RoundWins,
			Deaths:        p.Deaths,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RoundWins != entries[j].RoundWins {
			return entries[i].RoundWins > entries[j].RoundWins
		}
		if entries[i].Deaths != entries[j].Deaths {
			return entries[i].Deaths < entries[j].Deaths
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Snapshot returns copies of every participant record for read-only use
// outside the session loop.
func (r *Registry) Snapshot() []models.Participant {
	out := make([]models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
