package session

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/match"
	"github.com/skyfall-games/skyfall/internal/models"
)

// Recorder persists the outcome of a finished match.
type Recorder interface {
	RecordResult(ctx context.Context, result models.MatchResult) error
}

type requestKind int

const (
	reqConnect requestKind = iota
	reqDisconnect
	reqAssignCharacter
	reqQTEInput
	reqHazardCollision
	reqStartCountdown
)

type request struct {
	kind        requestKind
	participant models.ParticipantID
}

// Snapshot is the read-only projection of match state handed to anything
// outside the authoritative loop.
type Snapshot struct {
	MatchID      string               `json:"match_id"`
	Phase        models.Phase         `json:"phase"`
	RoundIndex   int                  `json:"round_index"`
	Remaining    float64              `json:"remaining_seconds"`
	Participants []models.Participant `json:"participants"`
}

// Session runs the authoritative loop for one match. Network callbacks from
// any goroutine funnel requests into a single ordered queue; the loop is the
// only goroutine that ever touches match state. That single-writer discipline
// is what gives the QTE race its deterministic first-input-wins order.
type Session struct {
	matchID  string
	orch     *match.Orchestrator
	clock    clockwork.Clock
	interval time.Duration
	recorder Recorder

	requests chan request
	nextID   atomic.Uint64
	state    atomic.Value // Snapshot
}

// Options tune the session loop itself, as opposed to the match rules.
type Options struct {
	TickInterval time.Duration // authoritative simulation step, default 50ms
	QueueSize    int           // ingress queue capacity, default 1024
	Recorder     Recorder      // optional result persistence
}

// NewSession builds the loop around a freshly wired orchestrator. The sinks
// receive every outbound event in emission order.
func NewSession(cfg match.Config, clock clockwork.Clock, rng *rand.Rand, opts Options, sinks ...events.Sink) (*Session, error) {
	matchID := uuid.New().String()
	emitter := events.NewEmitter(matchID, clock, sinks...)
	orch, err := match.NewOrchestrator(cfg, emitter, rng)
	if err != nil {
		return nil, err
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	s := &Session{
		matchID:  matchID,
		orch:     orch,
		clock:    clock,
		interval: opts.TickInterval,
		recorder: opts.Recorder,
		requests: make(chan request, opts.QueueSize),
	}
	s.state.Store(Snapshot{MatchID: s.matchID, Phase: models.PhaseWaitingForPlayers})
	return s, nil
}

// MatchID returns the session's match identifier.
func (s *Session) MatchID() string { return s.matchID }

// Connect allocates a fresh participant id and enqueues the join. Safe from
// any goroutine; ids are never reused within a session.
func (s *Session) Connect() models.ParticipantID {
	id := models.ParticipantID(s.nextID.Add(1))
	s.enqueue(request{kind: reqConnect, participant: id})
	return id
}

// Disconnect enqueues a participant departure.
func (s *Session) Disconnect(id models.ParticipantID) {
	s.enqueue(request{kind: reqDisconnect, participant: id})
}

// RequestCharacter enqueues an idempotent character assignment request.
func (s *Session) RequestCharacter(id models.ParticipantID) {
	s.enqueue(request{kind: reqAssignCharacter, participant: id})
}

// SubmitQTEInput enqueues a QTE press. Arrival order on the queue is the
// tie-break order.
func (s *Session) SubmitQTEInput(id models.ParticipantID) {
	s.enqueue(request{kind: reqQTEInput, participant: id})
}

// ReportHazardCollision enqueues a lethal-hit report from collision
// detection.
func (s *Session) ReportHazardCollision(id models.ParticipantID) {
	s.enqueue(request{kind: reqHazardCollision, participant: id})
}

// StartCountdown forces the match out of the lobby without waiting for the
// grace period.
func (s *Session) StartCountdown() {
	s.enqueue(request{kind: reqStartCountdown})
}

func (s *Session) enqueue(req request) {
	select {
	case s.requests <- req:
	default:
		// A full queue means a misbehaving flood; losing one request is
		// better than stalling a network goroutine.
		log.Warn().
			Int("kind", int(req.kind)).
			Uint64("participant_id", uint64(req.participant)).
			Msg("session queue full, dropping request")
	}
}

// State returns the latest read-only snapshot.
func (s *Session) State() Snapshot {
	return s.state.Load().(Snapshot)
}

// Run drives the loop until the match ends or ctx is cancelled. It is the
// sole mutator of match state: requests are applied strictly in arrival
// order, interleaved with fixed-cadence ticks.
func (s *Session) Run(ctx context.Context) error {
	log.Info().
		Str("match_id", s.matchID).
		Dur("tick_interval", s.interval).
		Msg("session loop started")

	s.orch.BeginMatch(s.clock.Now())
	s.publishSnapshot()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("match_id", s.matchID).Msg("session loop cancelled")
			return ctx.Err()
		case req := <-s.requests:
			s.apply(req)
		case <-ticker.Chan():
			s.orch.Tick(s.clock.Now())
		}
		s.publishSnapshot()

		if s.orch.Phase() == models.PhaseMatchEnd {
			s.finish(ctx)
			return nil
		}
	}
}

func (s *Session) apply(req request) {
	now := s.clock.Now()
	switch req.kind {
	case reqConnect:
		s.orch.HandleConnect(req.participant, now)
	case reqDisconnect:
		s.orch.HandleDisconnect(req.participant, now)
	case reqAssignCharacter:
		s.orch.HandleCharacterRequest(req.participant)
	case reqQTEInput:
		s.orch.SubmitQTEInput(req.participant, now)
	case reqHazardCollision:
		s.orch.ReportHazardCollision(req.participant, now)
	case reqStartCountdown:
		s.orch.AdvanceToCountdown(now)
	}
}

func (s *Session) publishSnapshot() {
	s.state.Store(Snapshot{
		MatchID:      s.matchID,
		Phase:        s.orch.Phase(),
		RoundIndex:   s.orch.RoundIndex(),
		Remaining:    s.orch.Remaining().Seconds(),
		Participants: s.orch.Registry().Snapshot(),
	})
}

// finish persists the result after the loop has stopped mutating state, so
// a slow database write can never stall request processing.
func (s *Session) finish(ctx context.Context) {
	log.Info().Str("match_id", s.matchID).Msg("session loop finished")
	if s.recorder == nil {
		return
	}
	result := s.orch.Result(s.matchID, s.clock.Now())
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.recorder.RecordResult(recordCtx, result); err != nil {
		log.Error().Err(err).Str("match_id", s.matchID).Msg("failed to record match result")
	}
}
