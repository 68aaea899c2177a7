package hazard

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func testSettings() Settings {
	return Settings{
		StartDelay:           2 * time.Second,
		InitialSpawnInterval: 1 * time.Second,
		MinSpawnInterval:     300 * time.Millisecond,
		MatchDuration:        30 * time.Second,
		PlayfieldWidth:       16,
		AllowedWidthFraction: 0.8,
		MinFallSpeed:         3.0,
		MaxFallSpeed:         8.0,
	}
}

func TestIntervalInterpolation(t *testing.T) {
	s := NewScheduler(testSettings(), rand.New(rand.NewSource(1)))

	cases := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1.0},
		{15 * time.Second, 0.65}, // linear midpoint
		{30 * time.Second, 0.3},
		{45 * time.Second, 0.3}, // clamped past match end
	}
	for _, tc := range cases {
		got := s.IntervalAt(tc.elapsed).Seconds()
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("IntervalAt(%s) = %gs; want %gs", tc.elapsed, got, tc.want)
		}
	}
}

func TestFallSpeedInterpolation(t *testing.T) {
	s := NewScheduler(testSettings(), rand.New(rand.NewSource(1)))

	if got := s.FallSpeedAt(0); got != 3.0 {
		t.Errorf("FallSpeedAt(0) = %g; want 3.0", got)
	}
	if got := s.FallSpeedAt(15 * time.Second); math.Abs(got-5.5) > 1e-9 {
		t.Errorf("FallSpeedAt(15s) = %g; want 5.5", got)
	}
	if got := s.FallSpeedAt(30 * time.Second); got != 8.0 {
		t.Errorf("FallSpeedAt(30s) = %g; want 8.0", got)
	}
}

func TestNoSpawnsBeforeStartDelay(t *testing.T) {
	s := NewScheduler(testSettings(), rand.New(rand.NewSource(1)))

	step := 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < 2*time.Second; elapsed += step {
		if spawns := s.Advance(elapsed, step); len(spawns) > 0 {
			t.Fatalf("spawn emitted at elapsed=%s, before start delay", elapsed)
		}
	}
}

func TestSpawnCadence(t *testing.T) {
	settings := testSettings()
	settings.StartDelay = 0
	s := NewScheduler(settings, rand.New(rand.NewSource(1)))

	// Near round start the interval is ~1s: stepping 100ms at a time should
	// produce roughly one spawn per second.
	var spawned int
	step := 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < 3*time.Second; elapsed += step {
		spawned += len(s.Advance(elapsed, step))
	}
	if spawned < 2 || spawned > 4 {
		t.Fatalf("spawned %d hazards in 3s at ~1s cadence", spawned)
	}
}

func TestSpawnPositionStaysInsideWindow(t *testing.T) {
	settings := testSettings()
	settings.StartDelay = 0
	s := NewScheduler(settings, rand.New(rand.NewSource(7)))

	// Width 16 at fraction 0.8 means spawns live in [-6.4, 6.4].
	limit := settings.PlayfieldWidth * settings.AllowedWidthFraction / 2
	for elapsed := time.Duration(0); elapsed < 60*time.Second; elapsed += time.Second {
		for _, spawn := range s.Advance(elapsed, time.Second) {
			if spawn.X < -limit || spawn.X > limit {
				t.Fatalf("spawn at x=%g outside [%g, %g]", spawn.X, -limit, limit)
			}
			if spawn.FallSpeed < settings.MinFallSpeed || spawn.FallSpeed > settings.MaxFallSpeed {
				t.Fatalf("spawn fall speed %g outside [%g, %g]",
					spawn.FallSpeed, settings.MinFallSpeed, settings.MaxFallSpeed)
			}
		}
	}
}

func TestResetClearsSpawnTimer(t *testing.T) {
	settings := testSettings()
	settings.StartDelay = 0
	s := NewScheduler(settings, rand.New(rand.NewSource(1)))

	s.Advance(0, 900*time.Millisecond)
	s.Reset()

	// After a reset the accumulated 900ms is gone; a small step spawns nothing.
	if spawns := s.Advance(0, 100*time.Millisecond); len(spawns) != 0 {
		t.Fatalf("spawned %d hazards right after reset", len(spawns))
	}
}
