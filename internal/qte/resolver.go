package qte

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/models"
)

// Resolver is the quick-time-event race state machine. One input window is
// open at a time; the first submission processed while the window is open
// wins, everything after that is silently dropped. The resolver never reads
// a clock itself: the session loop passes its authoritative now, which is
// what makes the arrival-order tie-break well defined.
type Resolver struct {
	state    models.RaceState
	openedAt time.Time
	deadline time.Time
	window   time.Duration

	winner    models.ParticipantID
	hasWinner bool
}

// NewResolver creates an idle resolver with the given input window.
func NewResolver(window time.Duration) *Resolver {
	return &Resolver{
		state:  models.RaceIdle,
		window: window,
	}
}

// State returns the current race state.
func (r *Resolver) State() models.RaceState {
	return r.state
}

// Winner returns the winning participant and true, or false when no race has
// been won since the last Reset.
func (r *Resolver) Winner() (models.ParticipantID, bool) {
	return r.winner, r.hasWinner
}

// Deadline returns when the open window expires. Meaningful only while the
// race is open.
func (r *Resolver) Deadline() time.Time {
	return r.deadline
}

// Open starts a race: records the opening time and schedules the expiry
// deadline. Returns false if the resolver is not idle, which means a stray
// start signal arrived while a race is still in flight.
func (r *Resolver) Open(now time.Time) bool {
	if r.state != models.RaceIdle {
		log.Warn().Str("state", string(r.state)).Msg("race start ignored, resolver not idle")
		return false
	}
	r.state = models.RaceOpen
	r.openedAt = now
	r.deadline = now.Add(r.window)
	return true
}

// Submit processes one participant input. It returns true exactly once per
// race: for the first submission that arrives while the window is open and
// unexpired. Late, duplicate, and out-of-window submissions return false and
// change nothing; under network jitter those are expected, not errors.
func (r *Resolver) Submit(id models.ParticipantID, now time.Time) bool {
	if r.state != models.RaceOpen || r.hasWinner {
		return false
	}
	if !now.Before(r.deadline) {
		// The press beat the timeout check to the queue but the window is
		// already over; resolve the timeout path instead of accepting it.
		return false
	}
	r.winner = id
	r.hasWinner = true
	r.state = models.RaceResolved
	return true
}

// CheckTimeout resolves the race with no winner when the deadline has passed
// and nobody won. Returns true only on the transition; the state guard makes
// a stale timeout after resolution an idempotent no-op.
func (r *Resolver) CheckTimeout(now time.Time) bool {
	if r.state != models.RaceOpen {
		return false
	}
	if now.Before(r.deadline) {
		return false
	}
	r.state = models.RaceResolved
	return true
}

// Reset returns a resolved race to idle so the next race can be scheduled.
func (r *Resolver) Reset() {
	r.state = models.RaceIdle
	r.openedAt = time.Time{}
	r.deadline = time.Time{}
	r.winner = 0
	r.hasWinner = false
}

// OpenedAt returns when the current or last race opened.
func (r *Resolver) OpenedAt() time.Time {
	return r.openedAt
}
