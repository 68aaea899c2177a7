package hazard

import (
	"math/rand"
	"time"

	"github.com/skyfall-games/skyfall/internal/models"
)

// Settings control the spawn stream for one round.
type Settings struct {
	StartDelay           time.Duration // no spawns before this much round time has elapsed
	InitialSpawnInterval time.Duration // interval at round start
	MinSpawnInterval     time.Duration // interval at match-duration elapsed
	MatchDuration        time.Duration // ramp horizon for interpolation
	PlayfieldWidth       float64       // total width, centered on x=0
	AllowedWidthFraction float64       // usable fraction of the width, centered
	MinFallSpeed         float64       // fall speed at round start
	MaxFallSpeed         float64       // fall speed at match-duration elapsed
}

// Scheduler produces hazard spawn events on an accelerating cadence. The
// spawn interval and fall speed both ramp linearly with the elapsed fraction
// of the match: gentle at the start, relentless by the end.
type Scheduler struct {
	settings Settings
	rng      *rand.Rand

	sinceSpawn time.Duration
}

// NewScheduler creates a scheduler. The rng drives spawn positions; tests
// pass a seeded source.
func NewScheduler(settings Settings, rng *rand.Rand) *Scheduler {
	return &Scheduler{settings: settings, rng: rng}
}

// Reset clears the running spawn timer for a new round.
func (s *Scheduler) Reset() {
	s.sinceSpawn = 0
}

// Advance accumulates dt of round time at the given total elapsed round time
// and returns the spawns due in that step. Zero or one spawn per call at
// normal tick rates; more when a single step covers several intervals.
func (s *Scheduler) Advance(elapsed, dt time.Duration) []models.HazardSpawn {
	if elapsed < s.settings.StartDelay {
		return nil
	}

	s.sinceSpawn += dt
	var spawns []models.HazardSpawn
	for {
		interval := s.IntervalAt(elapsed)
		if s.sinceSpawn < interval {
			return spawns
		}
		s.sinceSpawn -= interval
		spawns = append(spawns, s.spawn(elapsed))
	}
}

// IntervalAt returns the effective spawn interval for the given elapsed round
// time, interpolated linearly from InitialSpawnInterval down to
// MinSpawnInterval over the match duration.
func (s *Scheduler) IntervalAt(elapsed time.Duration) time.Duration {
	f := elapsedFraction(elapsed, s.settings.MatchDuration)
	initial := s.settings.InitialSpawnInterval.Seconds()
	min := s.settings.MinSpawnInterval.Seconds()
	return time.Duration((initial + (min-initial)*f) * float64(time.Second))
}

// FallSpeedAt returns the fall speed for the given elapsed round time,
// interpolated linearly from MinFallSpeed up to MaxFallSpeed.
func (s *Scheduler) FallSpeedAt(elapsed time.Duration) float64 {
	f := elapsedFraction(elapsed, s.settings.MatchDuration)
	return s.settings.MinFallSpeed + (s.settings.MaxFallSpeed-s.settings.MinFallSpeed)*f
}

// spawn draws a horizontal position uniformly inside the centered sub-window
// of the playfield. The excluded edge margins keep spawns winnable: a hazard
// pinned to the wall gives the nearest player no room to dodge.
func (s *Scheduler) spawn(elapsed time.Duration) models.HazardSpawn {
	usable := s.settings.PlayfieldWidth * s.settings.AllowedWidthFraction
	x := (s.rng.Float64() - 0.5) * usable
	return models.HazardSpawn{
		X:         x,
		FallSpeed: s.FallSpeedAt(elapsed),
	}
}

func elapsedFraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	f := elapsed.Seconds() / total.Seconds()
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
