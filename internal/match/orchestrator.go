package match

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/hazard"
	"github.com/skyfall-games/skyfall/internal/models"
	"github.com/skyfall-games/skyfall/internal/qte"
	"github.com/skyfall-games/skyfall/internal/roster"
)

const timeBroadcastInterval = time.Second

// Orchestrator sequences a match through its rounds: waiting lobby, countdown,
// active play with hazard spawns and periodic QTE races, round end, and match
// end. Every method takes the authoritative now from the session loop; the
// orchestrator itself never reads a clock, which keeps every transition
// deterministic and replayable in tests.
//
// All methods must be called from a single goroutine. There is no locking
// here on purpose: the single-writer discipline is what makes "first input
// wins" a total order.
type Orchestrator struct {
	cfg      Config
	registry *roster.Registry
	resolver *qte.Resolver
	hazards  *hazard.Scheduler
	emitter  *events.Emitter

	phase      models.Phase
	roundIndex int
	startedAt  time.Time

	remaining    time.Duration
	roundElapsed time.Duration
	lastTickAt   time.Time

	graceDeadline       time.Time
	countdownRemaining  int
	nextCountdownTickAt time.Time
	nextRaceAt          time.Time
	nextTimeBroadcastAt time.Time
}

// NewOrchestrator wires the match core together. The rng seeds both the
// character assignment and the hazard positions.
func NewOrchestrator(cfg Config, emitter *events.Emitter, rng *rand.Rand) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("match config: %w", err)
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: roster.NewRegistry(rng),
		resolver: qte.NewResolver(cfg.QTEInputWindow),
		hazards: hazard.NewScheduler(hazard.Settings{
			StartDelay:           cfg.HazardStartDelay,
			InitialSpawnInterval: cfg.InitialSpawnInterval,
			MinSpawnInterval:     cfg.MinSpawnInterval,
			MatchDuration:        cfg.MatchDuration,
			PlayfieldWidth:       cfg.PlayfieldWidth,
			AllowedWidthFraction: cfg.AllowedWidthFraction,
			MinFallSpeed:         cfg.MinFallSpeed,
			MaxFallSpeed:         cfg.MaxFallSpeed,
		}, rng),
		emitter: emitter,
		phase:   models.PhaseWaitingForPlayers,
	}, nil
}

// Phase returns the current match phase.
func (o *Orchestrator) Phase() models.Phase { return o.phase }

// RoundIndex returns the 1-based current round.
func (o *Orchestrator) RoundIndex() int { return o.roundIndex }

// Remaining returns the authoritative remaining round time.
func (o *Orchestrator) Remaining() time.Duration { return o.remaining }

// Registry exposes the participant registry. The session loop uses it for
// read-only snapshots; nothing outside the loop may touch it.
func (o *Orchestrator) Registry() *roster.Registry { return o.registry }

// Resolver exposes the QTE resolver for inspection.
func (o *Orchestrator) Resolver() *qte.Resolver { return o.resolver }

// BeginMatch arms the match: round 1, waiting for players. The grace period
// starts counting immediately, so a lobby that already has enough players
// still waits WaitingGrace before the first countdown.
func (o *Orchestrator) BeginMatch(now time.Time) {
	o.phase = models.PhaseWaitingForPlayers
	o.roundIndex = 1
	o.startedAt = now
	o.graceDeadline = now.Add(o.cfg.WaitingGrace)
	log.Info().
		Int("total_rounds", o.cfg.TotalRounds).
		Dur("match_duration", o.cfg.MatchDuration).
		Msg("match armed, waiting for players")
}

// HandleConnect registers a participant and announces the join.
func (o *Orchestrator) HandleConnect(id models.ParticipantID, now time.Time) {
	o.registry.Connect(id, now)
	o.emitter.Emit(events.EventTypeParticipantJoined, events.ParticipantJoinedPayload{
		ParticipantID: id,
		JoinedAt:      now,
		Connected:     o.registry.Count(),
	})
}

// HandleDisconnect removes a participant, returns their character to the
// pool, and re-checks attrition: losing the second-to-last living player
// ends the round just like a death would.
func (o *Orchestrator) HandleDisconnect(id models.ParticipantID, now time.Time) {
	o.registry.Disconnect(id)
	o.emitter.Emit(events.EventTypeParticipantLeft, events.ParticipantLeftPayload{
		ParticipantID: id,
		LeftAt:        now,
		Connected:     o.registry.Count(),
	})
	if o.phase == models.PhaseActive && o.registry.AliveCount() <= 1 {
		o.OnRoundEnd(now)
	}
}

// HandleCharacterRequest assigns a character, idempotently, and broadcasts
// the assignment. Unknown participants are ignored.
func (o *Orchestrator) HandleCharacterRequest(id models.ParticipantID) {
	character, unique, ok := o.registry.AssignCharacter(id)
	if !ok {
		return
	}
	o.emitter.Emit(events.EventTypeCharacterAssigned, events.CharacterAssignedPayload{
		ParticipantID: id,
		Character:     character,
		Unique:        unique,
	})
}

// AdvanceToCountdown leaves the lobby. Safe to call only while waiting;
// anything else is a stray signal and is dropped.
func (o *Orchestrator) AdvanceToCountdown(now time.Time) {
	if o.phase != models.PhaseWaitingForPlayers {
		log.Warn().Str("phase", string(o.phase)).Msg("countdown requested outside lobby, ignoring")
		return
	}
	o.enterCountdown(now)
}

// Tick advances the match by one authoritative simulation step. It is
// non-blocking: all timers are deadlines compared against now.
func (o *Orchestrator) Tick(now time.Time) {
	switch o.phase {
	case models.PhaseWaitingForPlayers:
		if o.registry.Count() >= o.cfg.MinParticipants && !now.Before(o.graceDeadline) {
			o.enterCountdown(now)
		}
	case models.PhaseCountdown:
		o.tickCountdown(now)
	case models.PhaseActive:
		o.tickActive(now)
	}
}

func (o *Orchestrator) tickCountdown(now time.Time) {
	for o.phase == models.PhaseCountdown && !now.Before(o.nextCountdownTickAt) {
		o.countdownRemaining--
		o.nextCountdownTickAt = o.nextCountdownTickAt.Add(time.Second)
		o.emitter.Emit(events.EventTypeCountdownTick, events.CountdownTickPayload{
			SecondsRemaining: o.countdownRemaining,
		})
		if o.countdownRemaining <= 0 {
			o.enterActive(now)
		}
	}
}

func (o *Orchestrator) tickActive(now time.Time) {
	dt := now.Sub(o.lastTickAt)
	if dt < 0 {
		dt = 0
	}
	o.lastTickAt = now
	o.remaining -= dt
	o.roundElapsed += dt

	for _, spawn := range o.hazards.Advance(o.roundElapsed, dt) {
		o.emitter.Emit(events.EventTypeHazardSpawned, events.HazardSpawnedPayload{
			X:         spawn.X,
			FallSpeed: spawn.FallSpeed,
		})
	}

	switch o.resolver.State() {
	case models.RaceOpen:
		if o.resolver.CheckTimeout(now) {
			o.emitter.Emit(events.EventTypeQTEResolved, events.QTEResolvedPayload{
				WinnerID:   nil,
				ResolvedAt: now,
			})
			o.resolver.Reset()
			o.nextRaceAt = now.Add(o.cfg.QTECadence)
			log.Info().Int("round", o.roundIndex).Msg("qte race timed out with no winner")
		}
	case models.RaceIdle:
		if !now.Before(o.nextRaceAt) && o.resolver.Open(now) {
			o.emitter.Emit(events.EventTypeQTEOpened, events.QTEOpenedPayload{
				OpenedAt:      now,
				WindowSeconds: o.cfg.QTEInputWindow.Seconds(),
			})
			log.Info().Int("round", o.roundIndex).Msg("qte race opened")
		}
	}

	if !now.Before(o.nextTimeBroadcastAt) {
		o.nextTimeBroadcastAt = now.Add(timeBroadcastInterval)
		seconds := o.remaining.Seconds()
		if seconds < 0 {
			seconds = 0
		}
		o.emitter.Emit(events.EventTypeRemainingTime, events.RemainingTimePayload{Seconds: seconds})
	}

	if o.remaining <= 0 {
		o.OnRoundEnd(now)
	}
}

// SubmitQTEInput funnels one participant press into the race. The first
// valid press processed while the window is open wins; the reward is applied
// inside this same transition so that a disconnect or damage tick can never
// interleave between "declare winner" and "grant immunity".
func (o *Orchestrator) SubmitQTEInput(id models.ParticipantID, now time.Time) {
	if o.phase != models.PhaseActive {
		return
	}
	p := o.registry.Get(id)
	if p == nil || !p.Alive {
		return
	}
	if !o.resolver.Submit(id, now) {
		return
	}

	until, _ := o.registry.GrantImmunity(id, now, o.cfg.ImmunityDuration)
	winner := id
	o.emitter.Emit(events.EventTypeQTEResolved, events.QTEResolvedPayload{
		WinnerID:   &winner,
		ResolvedAt: now,
	})
	o.emitter.Emit(events.EventTypeImmunityGranted, events.ImmunityGrantedPayload{
		ParticipantID: id,
		Until:         until,
	})
	o.resolver.Reset()
	o.nextRaceAt = now.Add(o.cfg.QTECadence)
	log.Info().
		Uint64("participant_id", uint64(id)).
		Time("immune_until", until).
		Msg("qte race won")
}

// ReportHazardCollision applies a lethal hit. Immune and already-dead
// participants shrug it off; a real death is broadcast and may end the round
// by attrition.
func (o *Orchestrator) ReportHazardCollision(id models.ParticipantID, now time.Time) {
	if o.phase != models.PhaseActive {
		return
	}
	if !o.registry.MarkDead(id, now) {
		return
	}
	p := o.registry.Get(id)
	alive := o.registry.AliveCount()
	o.emitter.Emit(events.EventTypeParticipantDied, events.ParticipantDiedPayload{
		ParticipantID: id,
		Deaths:        p.Deaths,
		AliveCount:    alive,
	})
	log.Info().Uint64("participant_id", uint64(id)).Int("alive", alive).Msg("participant died")
	if alive <= 1 {
		o.OnRoundEnd(now)
	}
}

// OnRoundEnd closes the current round: survivors get their round-win credit,
// then the match either moves to the next countdown or ends with final
// standings.
func (o *Orchestrator) OnRoundEnd(now time.Time) {
	if o.phase != models.PhaseActive {
		return
	}
	o.phase = models.PhaseRoundEnd
	o.abortOpenRace(now)
	o.registry.CreditSurvivors()
	log.Info().Int("round", o.roundIndex).Msg("round ended")

	if o.roundIndex >= o.cfg.TotalRounds {
		o.enterMatchEnd(now)
		return
	}
	o.roundIndex++
	o.registry.ResetForRound()
	o.enterCountdown(now)
}

// abortOpenRace closes out a race cut short by the round ending: the window
// is resolved with no winner so every QTEOpened broadcast is paired with
// exactly one QTEResolved.
func (o *Orchestrator) abortOpenRace(now time.Time) {
	if o.resolver.State() != models.RaceOpen {
		return
	}
	o.emitter.Emit(events.EventTypeQTEResolved, events.QTEResolvedPayload{
		WinnerID:   nil,
		ResolvedAt: now,
	})
	o.resolver.Reset()
	log.Info().Int("round", o.roundIndex).Msg("qte race cut short by round end, no winner")
}

func (o *Orchestrator) enterCountdown(now time.Time) {
	o.phase = models.PhaseCountdown
	o.resolver.Reset()
	o.countdownRemaining = o.cfg.CountdownSeconds
	o.nextCountdownTickAt = now.Add(time.Second)
	o.emitter.Emit(events.EventTypeRoundChanged, events.RoundChangedPayload{
		RoundIndex:  o.roundIndex,
		TotalRounds: o.cfg.TotalRounds,
	})
	o.emitter.Emit(events.EventTypeCountdownTick, events.CountdownTickPayload{
		SecondsRemaining: o.countdownRemaining,
	})
	log.Info().Int("round", o.roundIndex).Int("countdown", o.countdownRemaining).Msg("countdown started")
}

func (o *Orchestrator) enterActive(now time.Time) {
	o.phase = models.PhaseActive
	o.remaining = o.cfg.MatchDuration
	o.roundElapsed = 0
	o.lastTickAt = now
	o.hazards.Reset()
	o.resolver.Reset()
	o.nextRaceAt = now.Add(o.cfg.QTECadence)
	o.nextTimeBroadcastAt = now.Add(timeBroadcastInterval)
	o.emitter.Emit(events.EventTypeRemainingTime, events.RemainingTimePayload{
		Seconds: o.remaining.Seconds(),
	})
	log.Info().Int("round", o.roundIndex).Msg("round active")
}

func (o *Orchestrator) enterMatchEnd(now time.Time) {
	o.phase = models.PhaseMatchEnd
	standings := o.registry.Standings()
	o.emitter.Emit(events.EventTypeMatchEnded, events.MatchEndedPayload{
		EndedAt:   now,
		Standings: standings,
	})
	log.Info().Int("rounds", o.cfg.TotalRounds).Int("participants", len(standings)).Msg("match ended")
}

// Result builds the persistable outcome of a finished match. Valid only
// after the match has ended.
func (o *Orchestrator) Result(matchID string, now time.Time) models.MatchResult {
	return models.MatchResult{
		MatchID:     matchID,
		RoundsTotal: o.cfg.TotalRounds,
		StartedAt:   o.startedAt,
		EndedAt:     now,
		Standings:   o.registry.Standings(),
	}
}
